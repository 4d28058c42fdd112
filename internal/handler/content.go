package handler // handler defines http handlers

import (
	"net/http" // net/http provides status codes

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/efs-reader/internal/content" // content reads the data file
)

// ContentHandler serves the configured data file on every non-health path.
type ContentHandler struct {
	Source content.Source // re-read on every request
}

// NewContentHandler constructs a ContentHandler and panics if src is nil.
func NewContentHandler(src content.Source) *ContentHandler {
	if src == nil { // a handler without a source cannot answer anything
		panic("nil content source passed to NewContentHandler")
	}
	return &ContentHandler{Source: src}
}

// Serve reads the file and writes the banner followed by its contents.  Any
// read failure becomes a 500 carrying the error text.
func (h *ContentHandler) Serve(c echo.Context) error {
	body, err := h.Source.Read(c.Request().Context()) // one fresh read per request
	if err != nil {
		return c.String(http.StatusInternalServerError, "ERROR: "+err.Error()) // no distinction between failure kinds
	}
	return c.Blob(http.StatusOK, "text/plain", []byte(content.Banner+body)) // Blob keeps the header exactly text/plain
}

// Package content reads the served data file.  Every call goes to the
// filesystem; nothing is cached, so edits to the file show up on the next
// request.
package content

import (
	"context" // context lets a cancelled request skip the read

	"github.com/spf13/afero"             // afero abstracts the filesystem
	"golang.org/x/text/encoding/unicode" // unicode decodes the file as UTF-8
)

// Banner prefixes every successful response body.
const Banner = "APPS VERSION 2. READ FROM EFS:\n"

// Source is what the HTTP layer needs from a Reader.
type Source interface {
	Read(ctx context.Context) (string, error)
}

// Reader reads a single file from Fs.
type Reader struct {
	Fs   afero.Fs // host filesystem in production, in-memory in tests
	Path string   // resolved once at startup
}

// NewReader returns a Reader for path on the host filesystem.
func NewReader(path string) *Reader {
	return &Reader{Fs: afero.NewOsFs(), Path: path}
}

// Read returns the whole file decoded as UTF-8: invalid byte sequences
// become U+FFFD and a byte order mark is kept as-is.  Filesystem errors come
// back unwrapped so their message can be shown to the client verbatim.
func (r *Reader) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil { // request already gone; skip the I/O
		return "", err
	}
	b, err := afero.ReadFile(r.Fs, r.Path) // fresh read, no cache
	if err != nil {
		return "", err
	}
	text, err := unicode.UTF8.NewDecoder().Bytes(b) // replaces, never fails on bad input
	if err != nil {
		return "", err
	}
	return string(text), nil
}

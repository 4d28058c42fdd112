package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// HealthBody is the fixed body of the health endpoint.
const HealthBody = "SEHAT"

// Health is a liveness check for load balancers and orchestrators.  It does
// no I/O and answers the same regardless of the state of the data file.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, HealthBody) // String writes plain text with a 200
}

package router // package router defines how HTTP routes are registered for the service

import (
	"errors" // errors.Is matches echo's routing sentinels

	"github.com/labstack/echo/v4"                   // echo is the web framework used for this project
	echomw "github.com/labstack/echo/v4/middleware" // echo's bundled middleware (Recover)
	"github.com/redis/go-redis/v9"                  // redis.Scripter backs the optional limiter
	"github.com/sirupsen/logrus"                    // logrus receives the optional access log

	"github.com/iliyamo/efs-reader/internal/config"     // runtime configuration
	"github.com/iliyamo/efs-reader/internal/handler"    // health and content handlers
	"github.com/iliyamo/efs-reader/internal/middleware" // access log and rate limiter
)

// HealthPath is the only request target not answered from the data file.
// It must match exactly: a query string makes it an ordinary request.
const HealthPath = "/health"

// New builds the Echo instance serving cfg.  rdb may be nil, in which case
// rate limiting is off whatever the config says.
func New(cfg config.Config, h *handler.ContentHandler, rdb redis.Scripter, logger *logrus.Logger) *echo.Echo {
	e := echo.New()
	// Startup output is the service's own three lines only.
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover()) // a panic in one request never reaches the listener
	if cfg.AccessLog {
		e.Use(middleware.AccessLog(logger))
	}
	e.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb, HealthPath))
	// Last in the chain so it runs inside Recover and the limiter.
	e.Use(anyMethod(h))

	RegisterRoutes(e, h)
	return e
}

// RegisterRoutes maps /health to the health check and everything else, for
// every method, to the content handler.
func RegisterRoutes(e *echo.Echo, h *handler.ContentHandler) {
	e.Any(HealthPath, func(c echo.Context) error { return dispatch(c, h) }) // exact target only
	e.Any("/", h.Serve)
	e.Any("/*", h.Serve)
}

// anyMethod serves requests whose method Echo's Any does not enumerate.  The
// router answers those with 405 before any handler runs; the request is
// dispatched by target instead.
func anyMethod(h *handler.ContentHandler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil || c.Response().Committed {
				return err
			}
			if !errors.Is(err, echo.ErrMethodNotAllowed) && !errors.Is(err, echo.ErrNotFound) {
				return err
			}
			c.Response().Header().Del(echo.HeaderAllow) // set by echo's 405 handler
			return dispatch(c, h)
		}
	}
}

func dispatch(c echo.Context, h *handler.ContentHandler) error {
	if isHealth(c) {
		return handler.Health(c)
	}
	return h.Serve(c)
}

// isHealth reports whether the raw request target is exactly HealthPath.
func isHealth(c echo.Context) bool {
	return c.Request().RequestURI == HealthPath
}

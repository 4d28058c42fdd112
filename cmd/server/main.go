package main // Entry point package

import (
	"context"   // context carries the shutdown signal
	"net"       // net binds the listener before anything is announced
	"net/http"  // http.ErrServerClosed marks a clean stop
	"os"        // os.Stdout receives the startup lines
	"os/signal" // signal turns SIGINT/SIGTERM into a cancelled context
	"syscall"   // syscall names the signals
	"time"      // time bounds the shutdown

	"github.com/pkg/errors"        // errors wraps startup failures with context
	"github.com/redis/go-redis/v9" // redis backs the optional rate limiter
	"github.com/sirupsen/logrus"   // logrus writes the startup lines

	"github.com/iliyamo/efs-reader/internal/config"  // Internal config loader
	"github.com/iliyamo/efs-reader/internal/content" // Data file reader
	"github.com/iliyamo/efs-reader/internal/handler" // HTTP handlers
	"github.com/iliyamo/efs-reader/internal/router"  // Internal router setup
)

const shutdownTimeout = 10 * time.Second // grace period for in-flight requests

func main() {
	logger := logrus.New()      // service logger
	logger.SetOutput(os.Stdout) // startup lines go to standard output

	if err := run(logger); err != nil {
		logger.Fatal(err) // Log and exit if startup fails
	}
}

func run(logger *logrus.Logger) error {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, logger)
}

// serve binds cfg.Addr, announces the server and blocks until ctx is done or
// the server fails.  Nothing is logged if the address cannot be bound.
func serve(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	var rdb redis.Scripter // stays nil unless rate limiting is on and Redis answers
	if cfg.RateLimit.Enabled {
		if client := config.NewRedisClient(ctx, cfg.RateLimit.Redis); client != nil {
			defer client.Close()
			rdb = client
		} else {
			logger.Warnf("rate limiting disabled: redis at %s unreachable", cfg.RateLimit.Redis.Addr)
		}
	}

	h := handler.NewContentHandler(content.NewReader(cfg.FilePath)) // re-reads the file per request
	e := router.New(cfg, h, rdb, logger)                            // Register application routes

	// Bind before announcing, so a busy port fails without claiming to run.
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", cfg.Addr)
	}
	e.Listener = ln // echo serves on the bound listener instead of opening its own

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("INI APPS VERSION 2")
	logger.Infof("Server running on port %d", ln.Addr().(*net.TCPAddr).Port)
	logger.Infof("Reading file from %s", cfg.FilePath)

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "serving")
		}
		return nil
	case <-ctx.Done(): // SIGINT or SIGTERM
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx) // drain in-flight requests
}

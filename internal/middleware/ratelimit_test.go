package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/efs-reader/internal/config"
)

// fakeScripter answers every script call with a fixed result.
type fakeScripter struct {
	result []interface{}
	err    error
	keys   []string
}

func (f *fakeScripter) cmd(keys []string) *redis.Cmd {
	f.keys = append(f.keys, keys...)
	return redis.NewCmdResult(f.result, f.err)
}

func (f *fakeScripter) Eval(_ context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.cmd(keys)
}

func (f *fakeScripter) EvalSha(_ context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.cmd(keys)
}

func (f *fakeScripter) EvalRO(_ context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.cmd(keys)
}

func (f *fakeScripter) EvalShaRO(_ context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.cmd(keys)
}

func (f *fakeScripter) ScriptExists(context.Context, ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{true}, nil)
}

func (f *fakeScripter) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func enabledConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       5,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func run(t *testing.T, mw echo.MiddlewareFunc, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Logger.SetOutput(&bytes.Buffer{})
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h := mw(func(c echo.Context) error { return c.String(http.StatusOK, "next") })
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestTokenBucket(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.RateLimitConfig
		scripter   *fakeScripter
		path       string
		status     int
		body       string
		retryAfter string
		remaining  string
	}{
		{
			name:     "disabled",
			cfg:      config.RateLimitConfig{},
			scripter: &fakeScripter{err: errors.New("must not be called")},
			path:     "/",
			status:   http.StatusOK,
			body:     "next",
		},
		{
			name:      "allowed",
			cfg:       enabledConfig(),
			scripter:  &fakeScripter{result: []interface{}{int64(1), int64(4), int64(0)}},
			path:      "/",
			status:    http.StatusOK,
			body:      "next",
			remaining: "4",
		},
		{
			name:       "blocked",
			cfg:        enabledConfig(),
			scripter:   &fakeScripter{result: []interface{}{int64(0), int64(0), int64(1500)}},
			path:       "/data",
			status:     http.StatusTooManyRequests,
			body:       "ERROR: rate limit exceeded",
			retryAfter: "2",
			remaining:  "0",
		},
		{
			name:     "health is exempt",
			cfg:      enabledConfig(),
			scripter: &fakeScripter{result: []interface{}{int64(0), int64(0), int64(1000)}},
			path:     "/health",
			status:   http.StatusOK,
			body:     "next",
		},
		{
			name:       "health with a query is limited",
			cfg:        enabledConfig(),
			scripter:   &fakeScripter{result: []interface{}{int64(0), int64(0), int64(1000)}},
			path:       "/health?x=1",
			status:     http.StatusTooManyRequests,
			body:       "ERROR: rate limit exceeded",
			retryAfter: "1",
			remaining:  "0",
		},
		{
			name:     "redis failure lets request through",
			cfg:      enabledConfig(),
			scripter: &fakeScripter{err: errors.New("connection refused")},
			path:     "/",
			status:   http.StatusOK,
			body:     "next",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := run(t, NewTokenBucket(test.cfg, test.scripter, "/health"), test.path)

			assert.Equal(t, test.status, rec.Code)
			assert.Equal(t, test.body, rec.Body.String())
			assert.Equal(t, test.retryAfter, rec.Header().Get("Retry-After"))
			assert.Equal(t, test.remaining, rec.Header().Get("X-RateLimit-Remaining"))
		})
	}
}

func TestTokenBucketNilClient(t *testing.T) {
	rec := run(t, NewTokenBucket(enabledConfig(), nil, "/health"), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
	tests := []struct {
		strategy string
		expected string
	}{
		{strategy: "ip", expected: "rl:ip:10.0.0.1"},
		{strategy: "route", expected: "rl:route:GET /x"},
		{strategy: "ip_route", expected: "rl:ip:10.0.0.1:route:GET /x"},
		{strategy: "unknown", expected: "rl:ip:10.0.0.1:route:GET /x"},
	}
	for _, test := range tests {
		t.Run(test.strategy, func(t *testing.T) {
			cfg := enabledConfig()
			cfg.KeyStrategy = test.strategy
			s := &fakeScripter{result: []interface{}{int64(1), int64(1), int64(0)}}

			run(t, NewTokenBucket(cfg, s, "/health"), "/x")

			assert.Equal(t, []string{test.expected}, s.keys)
		})
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	rec := run(t, AccessLog(logger), "/some/path")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `uri=/some/path`)
	assert.Contains(t, buf.String(), `status=200`)
	assert.Contains(t, buf.String(), `method=GET`)
}

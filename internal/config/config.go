package config // package config loads application configuration from environment variables

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// Addr is the fixed listen address of the HTTP server.
	Addr = ":3000"
	// DataFileName is the name of the served file inside the base directory.
	DataFileName = "data.txt"
	// DefaultSubdir is the base directory used when EFS_PATH is unset, relative
	// to the directory holding the executable.
	DefaultSubdir = "v1"
)

// executable is swapped in tests.
var executable = os.Executable

// Config holds all runtime configuration values.  It is built once at
// process start and passed by value into the handlers and middleware that
// need it; nothing in it changes afterwards.
type Config struct {
	BaseDir   string          // directory containing the served file
	FilePath  string          // BaseDir joined with DataFileName
	Addr      string          // listen address, always Addr
	AccessLog bool            // emit one log entry per request
	RateLimit RateLimitConfig // optional Redis token bucket
}

// Load reads configuration values from the environment and returns a Config.
// A .env file in the working directory is applied first if present; variables
// already set in the process environment take precedence over it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.Wrap(err, "loading .env")
	}

	base, err := BaseDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		BaseDir:   base,
		FilePath:  filepath.Join(base, DataFileName),
		Addr:      Addr,
		AccessLog: envBool("ACCESS_LOG", false),
		RateLimit: LoadRateLimitConfig(),
	}, nil
}

// BaseDir returns EFS_PATH when it is set and non-empty, otherwise the v1
// directory next to the running executable.
func BaseDir() (string, error) {
	if v := os.Getenv("EFS_PATH"); v != "" {
		return v, nil
	}
	exe, err := executable()
	if err != nil {
		return "", errors.Wrap(err, "resolving executable path")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultSubdir), nil
}

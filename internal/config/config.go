// Package config resolves runtime settings from an optional .env file and
// the process environment. Command-line flags override these per command.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Environment variables.
const (
	EnvBackendURL        = "QUTTY_BACKEND_URL"
	EnvHTTPTimeout       = "QUTTY_HTTP_TIMEOUT"
	EnvListenAddr        = "QUTTY_LISTEN_ADDR"
	EnvFrameMaxDimension = "QUTTY_FRAME_MAX_DIMENSION"
	EnvLogLevel          = "QUTTY_LOG_LEVEL"
	EnvMetrics           = "QUTTY_METRICS"
)

// Defaults.
const (
	DefaultBackendURL        = "http://localhost:8000"
	DefaultHTTPTimeout       = 60 * time.Second
	DefaultListenAddr        = ":8090"
	DefaultFrameMaxDimension = 640
)

// envPaths are tried in order; the first readable file wins.
var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
}

// Config holds resolved settings.
type Config struct {
	BackendURL        string
	HTTPTimeout       time.Duration
	ListenAddr        string
	FrameMaxDimension int
	LogLevel          string
	Metrics           bool
	// EnvFile is the .env file that was loaded, if any.
	EnvFile string
}

// Load reads the first .env file found (if any) and resolves every setting.
// Variables already present in the environment take precedence over .env.
func Load() (*Config, error) {
	envFile := ""
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			envFile = p
			break
		}
	}
	if envFile != "" {
		log.Debug().Str("path", envFile).Msg("Loaded .env file")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.EnvFile = envFile
	return cfg, nil
}

// FromEnv resolves settings from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BackendURL:        envOrDefault(EnvBackendURL, DefaultBackendURL),
		HTTPTimeout:       DefaultHTTPTimeout,
		ListenAddr:        envOrDefault(EnvListenAddr, DefaultListenAddr),
		FrameMaxDimension: DefaultFrameMaxDimension,
		LogLevel:          strings.ToLower(os.Getenv(EnvLogLevel)),
	}

	if !strings.HasPrefix(cfg.BackendURL, "http://") && !strings.HasPrefix(cfg.BackendURL, "https://") {
		return nil, fmt.Errorf("%s must be an http(s) URL, got %q", EnvBackendURL, cfg.BackendURL)
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration, got %q", EnvHTTPTimeout, v)
		}
		cfg.HTTPTimeout = d
	}

	if v := os.Getenv(EnvFrameMaxDimension); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer, got %q", EnvFrameMaxDimension, v)
		}
		cfg.FrameMaxDimension = n
	}

	if v := os.Getenv(EnvMetrics); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean, got %q", EnvMetrics, v)
		}
		cfg.Metrics = b
	}

	return cfg, nil
}

// envOrDefault returns the value of the named environment variable, or
// defaultVal if the variable is empty or unset.
func envOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

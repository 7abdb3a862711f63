package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvBackendURL, EnvHTTPTimeout, EnvListenAddr, EnvFrameMaxDimension, EnvLogLevel, EnvMetrics} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackendURL != DefaultBackendURL || cfg.HTTPTimeout != DefaultHTTPTimeout ||
		cfg.ListenAddr != DefaultListenAddr || cfg.FrameMaxDimension != DefaultFrameMaxDimension || cfg.Metrics {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBackendURL, "https://api.example.com/")
	t.Setenv(EnvHTTPTimeout, "90s")
	t.Setenv(EnvListenAddr, "127.0.0.1:9000")
	t.Setenv(EnvFrameMaxDimension, "0")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvMetrics, "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackendURL != "https://api.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.BackendURL)
	}
	if cfg.HTTPTimeout != 90*time.Second || cfg.ListenAddr != "127.0.0.1:9000" ||
		cfg.FrameMaxDimension != 0 || cfg.LogLevel != "debug" || !cfg.Metrics {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvBackendURL, "localhost:8000"},
		{EnvHTTPTimeout, "soon"},
		{EnvHTTPTimeout, "-5s"},
		{EnvFrameMaxDimension, "big"},
		{EnvFrameMaxDimension, "-1"},
		{EnvMetrics, "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("QUTTY_LISTEN_ADDR=:7777\nQUTTY_BACKEND_URL=http://backend:8000\nQUTTY_LOG_LEVEL=Debug\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// An explicit environment value wins over .env.
	t.Setenv(EnvBackendURL, "http://override:8000")
	// godotenv only fills unset variables; clear these entirely.
	os.Unsetenv(EnvListenAddr)
	os.Unsetenv(EnvLogLevel)
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.EnvFile != ".env" {
		t.Errorf("expected .env to be loaded, got %q", cfg.EnvFile)
	}
	if cfg.ListenAddr != ":7777" {
		t.Errorf("expected listen addr from .env, got %s", cfg.ListenAddr)
	}
	if cfg.BackendURL != "http://override:8000" {
		t.Errorf("expected environment to win, got %s", cfg.BackendURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level from .env, got %q", cfg.LogLevel)
	}
}

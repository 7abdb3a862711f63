package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnv names the environment variable consulted by Init.
const LevelEnv = "QUTTY_LOG_LEVEL"

// Init initializes the global logger with configuration from environment variables.
// QUTTY_LOG_LEVEL controls the log level: trace, debug, info, warn, error (default: info)
func Init() {
	InitWith(os.Getenv(LevelEnv), os.Stderr)
}

// InitWith installs a console logger on out at the named level.
func InitWith(level string, out io.Writer) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Package logging configures the process-wide slog logger. Every binary
// calls InitLogger once at startup; after that, slog.Default() (or a
// component-scoped logger from WithComponent) is used throughout.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// InitLogger configures the global slog logger with a JSON handler and
// returns it so callers can attach it to constructors instead of reaching
// for slog.Default() everywhere.
func InitLogger(logLevel string) *slog.Logger {
	level := parseLogLevel(logLevel)

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.LevelKey:
				a.Key = "level"
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// WithComponent returns a logger scoped to a named component (scheduler,
// car, floor-agent), matching the component names in internal/constants.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// parseLogLevel converts string log level to slog.Level. Defaults to INFO
// for production safety.
func parseLogLevel(logLevel string) slog.Level {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package log configures the process-wide slog logger.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldPortfolio = "portfolio"
	FieldDataset   = "dataset"
	FieldSource    = "source"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
)

// Component names used across the service.
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentSheets = "sheets"
	ComponentCache  = "cache"
	ComponentAMQP   = "amqp"
	ComponentWorker = "worker"
)

// Setup installs the default logger. level is one of debug, info, warn,
// error (case-insensitive); format is "json" or "text". Unrecognized values
// fall back to info/text.
func Setup(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// With returns the default logger scoped to a component.
func With(component string) *slog.Logger {
	return slog.Default().With(FieldComponent, component)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

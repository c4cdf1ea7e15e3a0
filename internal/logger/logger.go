// Package logger configures the process-wide structured logger.
//
// The terminal UI owns stdout, so callers normally hand Init a log file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// L is the global logger; replaced by Init.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

// Init installs a logger writing to w at the given level ("debug", "info",
// "warn", "error") and format ("text" or "json").
func Init(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	L = slog.New(handler)
	slog.SetDefault(L)
	return L
}

// OpenFile opens (creating if needed) the log file at path for appending
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// Named returns l tagged with a service name, falling back to L when l is nil
func Named(l *slog.Logger, service string) *slog.Logger {
	if l == nil {
		l = L
	}
	return l.With(slog.String("service", service))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

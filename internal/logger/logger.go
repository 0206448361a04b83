// Package logger provides structured logging via slog with optional
// asynchronous handling for hot request paths.
package logger

import (
	"log/slog"
	"os"

	"github.com/brandloom/brandloom/internal/config"
)

const (
	asyncChanSize = 4096
	asyncWorkers  = 2
)

// New creates a structured JSON logger from the logging config. The returned
// Closer must be called on shutdown to flush buffered records; in synchronous
// mode it is a no-op.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	closer := Closer(nopCloser{})
	if cfg.Async {
		async := NewAsyncHandler(handler, asyncChanSize, asyncWorkers)
		handler = async
		closer = async
	}

	l := slog.New(handler)
	if cfg.Service != "" {
		l = l.With(slog.String("service", cfg.Service))
	}
	return l, closer
}

func parseLevel(level string) slog.Level {
	switch level {
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

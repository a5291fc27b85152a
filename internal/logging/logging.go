// Package logging builds the application's *slog.Logger: a stdout handler in
// the configured format, optionally fanned out to Fluent Bit.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Options configures New.
type Options struct {
	Writer io.Writer // defaults to os.Stdout
	Level  slog.Leveler
	// Format is "text", "json" or "color" (tint).
	Format string
	// AppName is added to every record as "app".
	AppName string

	// Fluent, when non-nil, receives a copy of every record.
	Fluent Poster
}

// New returns a logger writing to opts.Writer, and to Fluent when set.
func New(opts Options) *slog.Logger {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}

	var handler slog.Handler
	switch opts.Format {
	case "json":
		handler = slog.NewJSONHandler(opts.Writer, &slog.HandlerOptions{Level: opts.Level})
	case "color":
		handler = tint.NewHandler(opts.Writer, &tint.Options{
			Level:      opts.Level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	default:
		handler = slog.NewTextHandler(opts.Writer, &slog.HandlerOptions{Level: opts.Level})
	}

	if opts.Fluent != nil {
		handler = Fanout(handler, NewFluentHandler(opts.Fluent, opts.Level))
	}

	logger := slog.New(handler)
	if opts.AppName != "" {
		logger = logger.With(slog.String("app", opts.AppName))
	}
	return logger
}

// ParseLevel accepts debug, info, warn / warning and error, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
}

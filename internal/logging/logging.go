// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/chaz8081/scraper/internal/config"
)

// New builds a logger for the given level and format ("text" or "json").
// A nil output writes to stderr so stdout stays free for command output.
func New(level, format string, output io.Writer) *slog.Logger {
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(level)}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}

// Setup installs a logger built from cfg as the slog default and returns it.
func Setup(cfg *config.Config) *slog.Logger {
	logger := New(cfg.LogLevel, cfg.LogFormat, nil)
	slog.SetDefault(logger)
	return logger
}

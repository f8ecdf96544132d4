package config

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger writing to w at the configured level.
// An unknown level falls back to info; Load has already rejected it.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger on stdout.
func NewLogger(cfg *Config) *slog.Logger {
	return NewLoggerTo(os.Stdout, cfg.Environment, cfg.LogLevel)
}

// NewLoggerTo writes JSON in production and text elsewhere. An empty
// level picks info for production and debug otherwise; development adds
// source locations.
func NewLoggerTo(w io.Writer, env, level string) *slog.Logger {
	lvl, err := ParseLevel(level)
	if err != nil || level == "" {
		lvl = slog.LevelDebug
		if env == "production" {
			lvl = slog.LevelInfo
		}
	}

	opts := &slog.HandlerOptions{Level: lvl, AddSource: env == "development"}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if env == "production" {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With(slog.String("app", "rekko-kiosk"))
}

// ParseLevel accepts debug, info, warn or error, case-insensitive. The
// empty string parses as info.
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
	}
	return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", s)
}

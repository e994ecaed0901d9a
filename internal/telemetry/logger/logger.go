package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the handler built by New. It mirrors the log section of
// the server configuration.
type Config struct {
	Level  string    // debug, info, warn or error; empty means info
	Format string    // json, text or console; empty means json
	Output io.Writer // defaults to os.Stderr
}

// level is shared by every logger built by New so that a config reload can
// raise or lower verbosity without rebuilding handlers.
var level = new(slog.LevelVar)

// New builds a redacting slog logger writing to cfg.Output and sets the
// shared level.
func New(cfg Config) (*slog.Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		h = slog.NewJSONHandler(out, opts)
	case "text", "console":
		h = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}

	level.Set(lvl)
	return slog.New(h), nil
}

// ParseLevel maps a log.level value to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", name)
}

// SetLevel changes the level of every logger built by New. It reports
// whether the level actually changed.
func SetLevel(name string) (bool, error) {
	lvl, err := ParseLevel(name)
	if err != nil {
		return false, err
	}
	if level.Level() == lvl {
		return false, nil
	}
	level.Set(lvl)
	return true, nil
}

// LevelName returns the shared level as it would appear in log.level.
func LevelName() string {
	return strings.ToLower(level.Level().String())
}

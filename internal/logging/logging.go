// Package logging builds the structured logger used by glucobar.
//
// A tray process usually has no console, so the default sink is a log file
// under the user state directory. Stderr is added when attached to a
// terminal or when asked for explicitly.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const redactedValue = "[REDACTED]"

// Attribute keys containing any of these are never written out.
var sensitiveKeys = []string{"password", "secret", "token", "session_id"}

type contextKey struct{}

// Config holds the logger settings.
type Config struct {
	Level          string
	Format         string
	File           string
	StderrMode     string
	InteractiveTTY bool
	Version        string
}

// WithLogger returns a new context carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger in ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// New creates a logger from cfg. The returned cleanup closes the log file,
// if one was opened.
func New(cfg *Config) (*slog.Logger, func() error, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	toStderr, err := stderrEnabled(cfg.StderrMode, cfg.InteractiveTTY)
	if err != nil {
		return nil, nil, err
	}

	format := strings.ToLower(cfg.Format)
	if format != "" && format != "text" && format != "json" {
		return nil, nil, fmt.Errorf("invalid log format %q (allowed: text, json)", cfg.Format)
	}

	var sinks []io.Writer
	cleanup := func() error { return nil }
	if toStderr {
		sinks = append(sinks, os.Stderr)
	}
	if cfg.File != "" {
		f, err := openLogFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, f)
		cleanup = f.Close
	}

	out := io.Discard
	if len(sinks) > 0 {
		out = io.MultiWriter(sinks...)
	}

	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: redact}
	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Version != "" {
		logger = logger.With("version", cfg.Version)
	}
	return logger, cleanup, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// stderrEnabled resolves log.stderr: auto follows the terminal.
func stderrEnabled(mode string, interactiveTTY bool) (bool, error) {
	switch strings.ToLower(mode) {
	case "", "auto":
		return interactiveTTY, nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid log.stderr value %q (allowed: auto, on, off)", mode)
}

func redact(_ []string, attr slog.Attr) slog.Attr {
	key := strings.ToLower(attr.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return slog.String(attr.Key, redactedValue)
		}
	}
	return attr
}

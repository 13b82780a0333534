package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/Vodeneev/easepick/internal/pkg/config"
)

// SetupLogger configures the global logger: text on stdout, plus JSON lines in cfg.File when set.
func SetupLogger(cfg *config.LoggingConfig, serviceName string) (*slog.Logger, error) {
	if cfg == nil {
		cfg = &config.LoggingConfig{}
	}
	level := ParseLevel(cfg.Level)

	var fileOut io.Writer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Printf("Warning: failed to open log file %s: %v", cfg.File, err)
			log.Println("Continuing with stdout logging only")
		} else {
			fileOut = f
		}
	}

	logger := newLogger(os.Stdout, fileOut, level, serviceName)
	slog.SetDefault(logger)

	if cfg.File != "" && fileOut == nil {
		return logger, fmt.Errorf("failed to open log file %s", cfg.File)
	}
	return logger, nil
}

func newLogger(stdout, file io.Writer, level slog.Level, serviceName string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{slog.NewTextHandler(stdout, opts)}
	if file != nil {
		handlers = append(handlers, slog.NewJSONHandler(file, opts))
	}

	logger := slog.New(&MultiHandler{handlers: handlers})
	return logger.With("service", serviceName)
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR (any case) to a slog level. Unknown values give INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// MultiHandler sends every record to several handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var lastErr error
	for _, h := range m.handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}

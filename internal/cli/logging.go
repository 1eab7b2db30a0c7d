package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/roach88/techshop/internal/config"
)

// setupLogging builds the command logger and installs it as the slog default.
//
// Text records go to stderr at warn level, or debug with --verbose. When
// cfg.File is set, JSON records at cfg.Level are also written to a rotating
// file. The returned closer flushes and closes that file.
func setupLogging(cfg config.LogConfig, verbose bool, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	var fileLevel slog.Level
	if err := fileLevel.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, err
	}

	consoleLevel := max(fileLevel, slog.LevelWarn)
	if verbose {
		consoleLevel = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: consoleLevel})

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		closer = rotator
		handler = teeHandler{
			handler,
			slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: fileLevel}),
		}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// teeHandler sends every record to each handler that accepts its level.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

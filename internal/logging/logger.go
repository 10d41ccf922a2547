package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New constructs a slog logger using the provided options. Format is either
// "text" (default) or "json".
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(output, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(output, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// LoggingConfig is the subset of application config the logger needs.
// Declared here to keep config free of a logging dependency.
type LoggingConfig struct {
	Level  string
	Format string
	LogDir string
}

// NewFromConfig creates a logger that writes to stderr and, when a log
// directory is configured, also to uplinkd.log inside it.
func NewFromConfig(cfg LoggingConfig) (*slog.Logger, func() error, error) {
	output := io.Writer(os.Stderr)
	closer := func() error { return nil }

	if dir := strings.TrimSpace(cfg.LogDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("ensure log directory: %w", err)
		}
		path := filepath.Join(dir, "uplinkd.log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		output = io.MultiWriter(os.Stderr, file)
		closer = file.Close
	}

	logger, err := New(Options{Level: cfg.Level, Format: cfg.Format, Output: output})
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return logger, closer, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

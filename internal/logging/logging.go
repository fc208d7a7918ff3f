// Package logging builds the zap logger used across the app.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing human-readable output to stderr and,
// when file is non-empty, JSON lines to that file.
func New(level, file string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(levelOrDefault(level))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleConfig),
		zapcore.Lock(os.Stderr),
		parsed,
	)

	if file == "" {
		return zap.New(consoleCore), nil
	}

	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	sink, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(sink),
		parsed,
	)

	return zap.New(zapcore.NewTee(consoleCore, fileCore)), nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

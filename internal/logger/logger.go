// Package logger owns the process-wide zap logger and a few helpers for the
// load/render lifecycle.
package logger

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	current *zap.Logger
)

// Setup builds the default logger at the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func Setup(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}

	mu.Lock()
	current = l
	mu.Unlock()
	return l
}

// L returns the default logger, initializing it at info level if Setup was
// never called.
func L() *zap.Logger {
	mu.Lock()
	l := current
	mu.Unlock()
	if l == nil {
		return Setup("info")
	}
	return l
}

// Replace swaps the default logger. Tests use it with zaptest/observer.
func Replace(l *zap.Logger) {
	mu.Lock()
	current = l
	mu.Unlock()
}

// LogLoad logs a completed load step.
func LogLoad(component string, count int, d time.Duration) {
	L().Named(component).Info("loaded",
		zap.Int("count", count),
		zap.Int64("duration_ms", d.Milliseconds()),
	)
}

// LogError logs an error from an operation.
func LogError(component, op string, err error) {
	L().Named(component).Error(op+" error", zap.Error(err))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Package logger adapts zap to the map-field logging calls used across the
// risk pipeline. Fields are emitted in key order so log lines diff cleanly.
package logger

import (
	"maps"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
	With(fields map[string]interface{}) Logger
}

// ParseLevel accepts any zap level name in either case. Blank or unknown
// names fall back to info.
func ParseLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// New returns the process logger: JSON lines for "json", the human console
// encoder for anything else. A build failure degrades to a no-op logger.
func New(level, format string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	built, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return built
}

type fieldLogger struct {
	base *zap.Logger
}

func (f *fieldLogger) Debug(msg string, fields map[string]interface{}) {
	f.base.Debug(msg, zapFields(fields)...)
}

func (f *fieldLogger) Info(msg string, fields map[string]interface{}) {
	f.base.Info(msg, zapFields(fields)...)
}

func (f *fieldLogger) Warn(msg string, fields map[string]interface{}) {
	f.base.Warn(msg, zapFields(fields)...)
}

func (f *fieldLogger) Error(msg string, fields map[string]interface{}) {
	f.base.Error(msg, zapFields(fields)...)
}

func (f *fieldLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return f
	}
	return &fieldLogger{base: f.base.With(zapFields(fields)...)}
}

func (f *fieldLogger) With(fields map[string]interface{}) Logger {
	return f.WithFields(fields)
}

func (f *fieldLogger) WithError(err error) Logger {
	if err == nil {
		return f
	}
	return &fieldLogger{base: f.base.With(zap.Error(err))}
}

// zapFields keeps error values as named errors so they render as strings
// rather than as reflected structs.
func zapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if err, ok := fields[key].(error); ok {
			out = append(out, zap.NamedError(key, err))
			continue
		}
		out = append(out, zap.Any(key, fields[key]))
	}
	return out
}

func NewStructured(level, format string) Logger {
	return &fieldLogger{base: New(level, format)}
}

func NewZapAdapter(l *zap.Logger) Logger {
	return &fieldLogger{base: l}
}

// NewTestLogger routes output through t.Log so it only shows for failing
// or verbose tests.
func NewTestLogger(t testing.TB) Logger {
	return &fieldLogger{base: zaptest.NewLogger(t)}
}

func NewNoOpLogger() Logger {
	return &fieldLogger{base: zap.NewNop()}
}

package logger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldLogger_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"stage": "predict"})

	log.Info("ML model prediction completed successfully", map[string]interface{}{"requestId": "r-1"})
	log.WithError(fmt.Errorf("shape mismatch")).Error("prediction failed", nil)

	entries := logs.All()
	assert.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "predict", first["stage"])
	assert.Equal(t, "r-1", first["requestId"])
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)

	second := entries[1].ContextMap()
	assert.Equal(t, "shape mismatch", second["error"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestZapFields_ErrorValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	NewZapAdapter(zap.New(core)).Warn("stage failed", map[string]interface{}{"cause": fmt.Errorf("boom")})

	assert.Equal(t, "boom", logs.All()[0].ContextMap()["cause"])
	assert.Nil(t, zapFields(nil))
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"WARN", zapcore.WarnLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			l := New(tt.level, "json")
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNoOpAndTestLoggers(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNoOpLogger().Debug("ignored", nil)
		NewTestLogger(t).Info("visible in test output", map[string]interface{}{"k": 1})
	})
}

func TestZapFields_SortedByKey(t *testing.T) {
	fields := zapFields(map[string]interface{}{"stage": "report", "companyName": "GreenTech", "attempt": 2})

	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"attempt", "companyName", "stage"}, keys)
}

func TestWithError_NilKeepsLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapAdapter(zap.New(core))

	assert.Same(t, log, log.WithError(nil))
	assert.Same(t, log, log.WithFields(nil))

	log.WithError(nil).Info("no error attached", nil)
	_, hasErr := logs.All()[0].ContextMap()["error"]
	assert.False(t, hasErr)
}

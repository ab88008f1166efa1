package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapAdapter(zap.New(core)), logs
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestMapToZapFields(t *testing.T) {
	assert.Nil(t, mapToZapFields(nil))

	fields := mapToZapFields(map[string]interface{}{
		"error": errors.New("boom"),
		"city":  "Paris",
	})
	require.Len(t, fields, 2)

	byKey := map[string]zap.Field{}
	for _, f := range fields {
		byKey[f.Key] = f
	}
	assert.Equal(t, zapcore.ErrorType, byKey["error"].Type)
	assert.NotEqual(t, zapcore.ErrorType, byKey["city"].Type)
}

func TestZapWrapper_FieldsAndErrors(t *testing.T) {
	log, logs := newObserved(zapcore.InfoLevel)

	log.WithFields(map[string]interface{}{"component": "batch"}).
		Warn("unit failed", map[string]interface{}{"error": errors.New("timeout"), "units": 3})
	log.WithError(errors.New("closed")).Error("store failed", nil)
	log.Debug("dropped below level", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "unit failed", entries[0].Message)
	assert.Equal(t, "batch", first["component"])
	assert.Equal(t, "timeout", first["error"])
	assert.EqualValues(t, 3, first["units"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "closed", entries[1].ContextMap()["error"])
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.WithError(errors.New("x")).WithFields(map[string]interface{}{"a": 1}).Error("ignored", nil)
	})
}

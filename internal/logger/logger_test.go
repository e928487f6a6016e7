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

func TestZapLogger_FieldsAndError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.Info("health check complete", "service", "calls", "status", "ok")
	log.Error("alert email failed", errors.New("smtp: 535 auth"), "service", "leads")

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "health check complete", entries[0].Message)
	assert.Equal(t, "calls", entries[0].ContextMap()["service"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "smtp: 535 auth", entries[1].ContextMap()["error"])
	assert.Equal(t, "leads", entries[1].ContextMap()["service"])
}

func TestZapLogger_With(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewFromZap(zap.New(core)).With("component", "health")

	log.Warn("probe slow", "latency_ms", 3200)
	log.Debug("dropped below level")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "health", entries[0].ContextMap()["component"])
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log, err := New("verbose", "json", "production")
	require.NoError(t, err)
	assert.NotNil(t, log)
}

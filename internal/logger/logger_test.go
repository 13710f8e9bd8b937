package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDevelopmentLoggerEnablesDebug(t *testing.T) {
	log, err := New("development", "debug")
	require.NoError(t, err)
	defer log.Sync()

	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestProductionLoggerDefaultsToInfo(t *testing.T) {
	log, err := New("production", "")
	require.NoError(t, err)
	defer log.Sync()

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestInvalidLevelRejected(t *testing.T) {
	_, err := New("production", "verbose")
	assert.Error(t, err)
}

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewModes(t *testing.T) {
	dev, err := New("development")
	require.NoError(t, err)
	assert.True(t, dev.Zap().Core().Enabled(zapcore.DebugLevel))

	prod, err := New("PROD")
	require.NoError(t, err)
	assert.False(t, prod.Zap().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Zap().Core().Enabled(zapcore.InfoLevel))
}

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &Logger{SugaredLogger: zap.New(core).Sugar()}

	log.With("batch", "b1").Info("downloaded", "key", "a/b")
	log.Warn("slow")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "downloaded", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"batch": "b1", "key": "a/b"}, entries[0].ContextMap())
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Error("ignored")
	log.Sync()
}

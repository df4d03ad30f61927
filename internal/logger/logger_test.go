package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("chatty"))
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		l, err := New(Config{Level: "debug", Format: format})
		require.NoError(t, err)
		l.With(String("keyword", "carbon tax")).Info("built", Int("n", 1))
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.With(String("a", "b")).Error("ignored")
	assert.NoError(t, l.Sync())
}

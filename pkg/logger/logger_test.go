package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		l, err := New(nil)
		require.NoError(t, err)
		require.NotNil(t, l)
		l.Info("hello", "key", "value")
	})

	t.Run("json format", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Format = JSONFormat
		l, err := New(cfg)
		require.NoError(t, err)
		l.Debug("debug message", "n", 1)
	})

	t.Run("file without path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EnableFile = true
		cfg.OutputPath = ""
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrInvalidOutputPath)
	})

	t.Run("no output enabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EnableConsole = false
		cfg.EnableFile = false
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrNoOutputEnabled)
	})
}

func TestNamed(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)

	child := l.Named("gateway")
	require.NotNil(t, child)
	child.Info("named logger works")

	grandchild := child.Named("router")
	grandchild.Info("nested name works")
}

func TestWithFields(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)

	derived := l.WithFields("session_id", "abc", "user_id", int64(42))
	derived.Info("with fields")
}

func TestNoop(t *testing.T) {
	l := NewNoop()
	l.Info("ignored")
	assert.NoError(t, l.Sync())
	assert.Equal(t, l, l.Named("x"))
}

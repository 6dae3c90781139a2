package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		assert.ErrorIs(t, validateConfig(nil), ErrNilConfig)
	})

	t.Run("nil db config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Standalone = nil
		assert.ErrorIs(t, validateConfig(cfg), ErrInvalidConfig)
	})

	t.Run("empty host", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Standalone.Host = ""
		assert.ErrorIs(t, validateConfig(cfg), ErrInvalidConfig)
	})

	t.Run("invalid port", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Standalone.Port = 70000
		assert.ErrorIs(t, validateConfig(cfg), ErrInvalidConfig)
	})

	t.Run("min conns above max", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Pool.MinConns = 50
		assert.ErrorIs(t, validateConfig(cfg), ErrInvalidConfig)
	})

	t.Run("valid default", func(t *testing.T) {
		require.NoError(t, validateConfig(DefaultConfig()))
	})
}

func TestMergeConfig(t *testing.T) {
	dst := DefaultConfig()
	src := &Config{
		Standalone: &DBConfig{
			Host:   "db.internal",
			Port:   5433,
			User:   "gateway",
			DBName: "concord",
		},
	}

	merged, err := MergeConfig(dst, src)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", merged.Standalone.Host)
	assert.Equal(t, 5433, merged.Standalone.Port)
	// 未覆盖的字段保留默认值
	assert.Equal(t, int32(25), merged.Pool.MaxConns)
	assert.Equal(t, "disable", merged.Standalone.SSLMode)
}

func TestBuildConnString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Standalone.Password = "secret"

	got := buildConnString(cfg, cfg.Standalone)
	assert.Contains(t, got, "host=localhost")
	assert.Contains(t, got, "port=5432")
	assert.Contains(t, got, "dbname=concord")
	assert.Contains(t, got, "sslmode=disable")
	assert.Contains(t, got, "password=secret")
}

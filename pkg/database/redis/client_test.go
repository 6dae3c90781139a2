package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		var cfg *Config
		assert.ErrorIs(t, cfg.Validate(), ErrNilConfig)
	})

	t.Run("no mode", func(t *testing.T) {
		cfg := &Config{}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("two modes", func(t *testing.T) {
		cfg := &Config{
			Standalone: &NodeConfig{Host: "localhost", Port: 6379},
			Cluster:    &ClusterConfig{Addrs: []string{"localhost:7000"}},
		}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("standalone", func(t *testing.T) {
		cfg := &Config{Standalone: &NodeConfig{Host: "localhost", Port: 6379}}
		require.NoError(t, cfg.Validate())
		assert.True(t, cfg.IsStandalone())
		assert.False(t, cfg.IsCluster())
	})

	t.Run("cluster", func(t *testing.T) {
		cfg := &Config{Cluster: &ClusterConfig{Addrs: []string{"localhost:7000"}}}
		require.NoError(t, cfg.Validate())
		assert.True(t, cfg.IsCluster())
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost", cfg.Standalone.Host)
	assert.Equal(t, 6379, cfg.Standalone.Port)
}

func TestNewClientInvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewClientStandalone(t *testing.T) {
	// 仅验证构造，不触发网络
	client, err := NewClient(DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.NoError(t, client.Close())
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Host    string
	Port    int
	Nested  nestedConfig
	Pointer *nestedConfig
	Labels  map[string]string
}

type nestedConfig struct {
	Timeout int
	Enabled bool
}

func TestMergeConfig(t *testing.T) {
	t.Run("both nil", func(t *testing.T) {
		_, err := MergeConfig[sampleConfig](nil, nil)
		assert.Error(t, err)
	})

	t.Run("dst nil returns src", func(t *testing.T) {
		src := &sampleConfig{Host: "a"}
		out, err := MergeConfig(nil, src)
		require.NoError(t, err)
		assert.Equal(t, src, out)
	})

	t.Run("src nil returns dst", func(t *testing.T) {
		dst := &sampleConfig{Host: "a"}
		out, err := MergeConfig(dst, nil)
		require.NoError(t, err)
		assert.Equal(t, dst, out)
	})

	t.Run("src overrides non-zero fields only", func(t *testing.T) {
		dst := &sampleConfig{Host: "localhost", Port: 5432, Nested: nestedConfig{Timeout: 30}}
		src := &sampleConfig{Port: 6432}

		out, err := MergeConfig(dst, src)
		require.NoError(t, err)
		assert.Equal(t, "localhost", out.Host)
		assert.Equal(t, 6432, out.Port)
		assert.Equal(t, 30, out.Nested.Timeout)
	})

	t.Run("nested struct merge", func(t *testing.T) {
		dst := &sampleConfig{Nested: nestedConfig{Timeout: 30, Enabled: true}}
		src := &sampleConfig{Nested: nestedConfig{Timeout: 60}}

		out, err := MergeConfig(dst, src)
		require.NoError(t, err)
		assert.Equal(t, 60, out.Nested.Timeout)
		assert.True(t, out.Nested.Enabled)
	})

	t.Run("pointer merge", func(t *testing.T) {
		dst := &sampleConfig{Pointer: &nestedConfig{Timeout: 30}}
		src := &sampleConfig{Pointer: &nestedConfig{Enabled: true}}

		out, err := MergeConfig(dst, src)
		require.NoError(t, err)
		assert.Equal(t, 30, out.Pointer.Timeout)
		assert.True(t, out.Pointer.Enabled)
	})

	t.Run("map merge", func(t *testing.T) {
		dst := &sampleConfig{Labels: map[string]string{"a": "1", "b": "2"}}
		src := &sampleConfig{Labels: map[string]string{"b": "3"}}

		out, err := MergeConfig(dst, src)
		require.NoError(t, err)
		assert.Equal(t, "1", out.Labels["a"])
		assert.Equal(t, "3", out.Labels["b"])
	})
}

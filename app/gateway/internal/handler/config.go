package handler

import (
	"errors"
	"time"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/pipeline"
)

// Config 网关连接处理配置
type Config struct {
	// HandshakeTimeout 等待身份帧的最长时间，超时关闭连接
	HandshakeTimeout time.Duration `json:"handshake_timeout" mapstructure:"handshake_timeout"`

	// LivenessInterval 存活巡检间隔
	LivenessInterval time.Duration `json:"liveness_interval" mapstructure:"liveness_interval"`

	// RateWindow 限流窗口
	RateWindow time.Duration `json:"rate_window" mapstructure:"rate_window"`

	// RateLimit 窗口内允许的最大帧数，超出即断开
	RateLimit int `json:"rate_limit" mapstructure:"rate_limit"`

	// Pipeline 出站管线配置
	Pipeline *pipeline.Config `json:"pipeline" mapstructure:"pipeline"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		HandshakeTimeout: 300 * time.Second,
		LivenessInterval: 45 * time.Second,
		RateWindow:       time.Minute,
		RateLimit:        60,
		Pipeline:         pipeline.DefaultConfig(),
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.HandshakeTimeout <= 0 {
		return errors.New("handler: handshake timeout must be positive")
	}
	if c.LivenessInterval <= 0 {
		return errors.New("handler: liveness interval must be positive")
	}
	if c.RateWindow <= 0 {
		return errors.New("handler: rate window must be positive")
	}
	if c.RateLimit <= 0 {
		return errors.New("handler: rate limit must be positive")
	}
	if c.Pipeline == nil {
		c.Pipeline = pipeline.DefaultConfig()
	}
	return c.Pipeline.Validate()
}

// pkg/websocket/config.go
package websocket

import (
	"net/http"
	"time"
)

// ServerConfig 服务端配置
type ServerConfig struct {
	// ReadBufferSize 读缓冲区大小
	ReadBufferSize int `json:"read_buffer_size" mapstructure:"read_buffer_size"`

	// WriteBufferSize 写缓冲区大小
	WriteBufferSize int `json:"write_buffer_size" mapstructure:"write_buffer_size"`

	// HandshakeTimeout 握手超时时间
	HandshakeTimeout time.Duration `json:"handshake_timeout" mapstructure:"handshake_timeout"`

	// MaxMessageSize 单条消息最大字节数（0 表示不限制）
	MaxMessageSize int64 `json:"max_message_size" mapstructure:"max_message_size"`

	// PingInterval 服务端 Ping 间隔（0 表示不发送）
	PingInterval time.Duration `json:"ping_interval" mapstructure:"ping_interval"`

	// PongTimeout 收到 Pong 后刷新的读超时
	PongTimeout time.Duration `json:"pong_timeout" mapstructure:"pong_timeout"`

	// EnableCompression 启用 permessage-deflate 扩展
	EnableCompression bool `json:"enable_compression" mapstructure:"enable_compression"`

	// CheckOrigin 跨域检查函数（nil 时仅允许无 Origin 请求）
	CheckOrigin func(r *http.Request) bool `json:"-" mapstructure:"-"`

	// Pool 连接池配置
	Pool PoolConfig `json:"pool" mapstructure:"pool"`
}

// PoolConfig 连接池配置
type PoolConfig struct {
	// MaxConnections 最大连接数（0 表示不限制）
	MaxConnections int `json:"max_connections" mapstructure:"max_connections"`

	// MaxConnectionsPerIP 每 IP 最大连接数（0 表示不限制）
	MaxConnectionsPerIP int `json:"max_connections_per_ip" mapstructure:"max_connections_per_ip"`
}

// DefaultServerConfig 返回默认服务端配置
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		HandshakeTimeout: 10 * time.Second,
		MaxMessageSize:   1 << 20,
		PingInterval:     30 * time.Second,
		PongTimeout:      60 * time.Second,
		Pool:             DefaultPoolConfig(),
	}
}

// DefaultPoolConfig 返回默认连接池配置
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConnections:      10000,
		MaxConnectionsPerIP: 0,
	}
}

// Validate 验证配置
func (c *ServerConfig) Validate() error {
	if c.ReadBufferSize < 0 || c.WriteBufferSize < 0 {
		return ErrInvalidConfig
	}
	if c.MaxMessageSize < 0 {
		return ErrInvalidConfig
	}
	if c.Pool.MaxConnections < 0 || c.Pool.MaxConnectionsPerIP < 0 {
		return ErrInvalidConfig
	}
	return nil
}

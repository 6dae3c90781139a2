// pkg/websocket/options.go
package websocket

import (
	"time"

	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
	"github.com/concordchat-legacy/concord-gateway/pkg/serializer"
	"github.com/prometheus/client_golang/prometheus"
)

// ServerOption 服务端选项
type ServerOption func(*Server)

// WithServerLogger 设置服务端日志器
func WithServerLogger(l logger.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithServerHandler 设置消息处理器
func WithServerHandler(h MessageHandler) ServerOption {
	return func(s *Server) { s.handler = h }
}

// WithServerMiddleware 添加中间件
func WithServerMiddleware(m ...Middleware) ServerOption {
	return func(s *Server) { s.middlewares = append(s.middlewares, m...) }
}

// WithServerSerializer 设置序列化器
func WithServerSerializer(sr serializer.Serializer) ServerOption {
	return func(s *Server) { s.serializer = sr }
}

// WithMetricsRegisterer 设置 Prometheus 注册器
func WithMetricsRegisterer(r prometheus.Registerer) ServerOption {
	return func(s *Server) { s.metricsRegisterer = r }
}

// ConnectionOption 连接选项
type ConnectionOption func(*Connection)

// WithConnectionLogger 设置连接日志器
func WithConnectionLogger(l logger.Logger) ConnectionOption {
	return func(c *Connection) { c.logger = l }
}

// WithConnectionSerializer 设置连接序列化器
func WithConnectionSerializer(s serializer.Serializer) ConnectionOption {
	return func(c *Connection) {
		if s != nil {
			c.serializer = s
		}
	}
}

// WithReadTimeout 设置读超时
func WithReadTimeout(d time.Duration) ConnectionOption {
	return func(c *Connection) { c.readTimeout = d }
}

// WithWriteTimeout 设置写超时
func WithWriteTimeout(d time.Duration) ConnectionOption {
	return func(c *Connection) { c.writeTimeout = d }
}

// WithSendQueueSize 设置发送队列大小
func WithSendQueueSize(size int) ConnectionOption {
	return func(c *Connection) {
		if size > 0 {
			c.sendQueueSize = size
			c.sendChan = make(chan *Message, size)
		}
	}
}

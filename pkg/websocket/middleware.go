// pkg/websocket/middleware.go
package websocket

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
)

// Middleware 中间件函数类型
type Middleware func(HandlerFunc) HandlerFunc

// MiddlewareChain 中间件链
type MiddlewareChain struct {
	middlewares []Middleware
}

// NewMiddlewareChain 创建中间件链
func NewMiddlewareChain(middlewares ...Middleware) *MiddlewareChain {
	return &MiddlewareChain{
		middlewares: middlewares,
	}
}

// Use 添加中间件
func (c *MiddlewareChain) Use(middlewares ...Middleware) *MiddlewareChain {
	c.middlewares = append(c.middlewares, middlewares...)
	return c
}

// Then 将中间件链应用到处理函数
func (c *MiddlewareChain) Then(handler HandlerFunc) HandlerFunc {
	// 从后向前包装，确保执行顺序正确
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		handler = c.middlewares[i](handler)
	}
	return handler
}

// Len 返回中间件数量
func (c *MiddlewareChain) Len() int {
	return len(c.middlewares)
}

// ================================
// 内置中间件
// ================================

// Recovery Panic 恢复中间件
func Recovery(log logger.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(conn *Connection, msg *Message) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := debug.Stack()
					if log != nil {
						log.Error("websocket handler panic recovered",
							"panic", r,
							"conn_id", conn.ID(),
							"stack", string(stack),
						)
					}
					// 将 panic 转换为错误
					switch v := r.(type) {
					case error:
						err = v
					default:
						err = ErrConnectionFailed
					}
				}
			}()
			return next(conn, msg)
		}
	}
}

// Logger 日志中间件
func Logger(log logger.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(conn *Connection, msg *Message) error {
			start := time.Now()

			err := next(conn, msg)

			duration := time.Since(start)
			fields := []interface{}{
				"conn_id", conn.ID(),
				"msg_size", len(msg.Data),
				"duration", duration.String(),
			}

			if err != nil {
				fields = append(fields, "error", err.Error())
				log.Warn("websocket message handled with error", fields...)
			} else {
				log.Debug("websocket message handled", fields...)
			}

			return err
		}
	}
}

// RateLimiter 限流器接口
type RateLimiter interface {
	// Allow 检查是否允许请求
	Allow(key string) bool
}

// simpleRateLimiter 简单的滑动窗口限流器
type simpleRateLimiter struct {
	limit    int
	window   time.Duration
	counters sync.Map // map[string]*rateLimitCounter
}

type rateLimitCounter struct {
	mu       sync.Mutex
	count    int
	windowAt time.Time
}

// NewSimpleRateLimiter 创建简单限流器
func NewSimpleRateLimiter(limit int, window time.Duration) RateLimiter {
	return &simpleRateLimiter{
		limit:  limit,
		window: window,
	}
}

func (r *simpleRateLimiter) Allow(key string) bool {
	now := time.Now()

	val, _ := r.counters.LoadOrStore(key, &rateLimitCounter{
		windowAt: now,
	})
	counter := val.(*rateLimitCounter)

	counter.mu.Lock()
	defer counter.mu.Unlock()

	// 检查是否需要重置窗口
	if now.Sub(counter.windowAt) >= r.window {
		counter.count = 0
		counter.windowAt = now
	}

	if counter.count >= r.limit {
		return false
	}

	counter.count++
	return true
}

// RateLimit 限流中间件
func RateLimit(limiter RateLimiter) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(conn *Connection, msg *Message) error {
			if !limiter.Allow(conn.ID()) {
				return ErrRateLimited
			}
			return next(conn, msg)
		}
	}
}

// RateLimitPerConnection 每连接限流中间件
func RateLimitPerConnection(limit int, window time.Duration) Middleware {
	limiter := NewSimpleRateLimiter(limit, window)
	return RateLimit(limiter)
}

// RateLimitPerIP 每 IP 限流中间件
func RateLimitPerIP(limit int, window time.Duration) Middleware {
	limiter := NewSimpleRateLimiter(limit, window)
	return func(next HandlerFunc) HandlerFunc {
		return func(conn *Connection, msg *Message) error {
			// 使用远程地址作为限流 key
			if !limiter.Allow(conn.RemoteAddr()) {
				return ErrRateLimited
			}
			return next(conn, msg)
		}
	}
}

// MaxMessageSize 消息大小限制中间件
func MaxMessageSize(maxSize int64) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(conn *Connection, msg *Message) error {
			if int64(len(msg.Data)) > maxSize {
				return ErrMessageTooBig
			}
			return next(conn, msg)
		}
	}
}

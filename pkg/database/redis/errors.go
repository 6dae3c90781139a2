package redis

import "errors"

var (
	// ErrNilConfig 配置为空
	ErrNilConfig = errors.New("redis: config is nil")

	// ErrInvalidConfig 配置无效（模式不唯一或缺失）
	ErrInvalidConfig = errors.New("redis: exactly one of standalone or cluster must be configured")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("redis: client closed")
)

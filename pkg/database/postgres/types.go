package postgres

import "time"

// PoolStats 连接池统计信息（隐藏 pgx 类型）
type PoolStats struct {
	AcquireCount    int64         // 获取连接总次数
	AcquireDuration time.Duration // 获取连接总耗时
	AcquiredConns   int32         // 当前已获取连接数
	IdleConns       int32         // 空闲连接数
	MaxConns        int32         // 最大连接数
	TotalConns      int32         // 总连接数
}

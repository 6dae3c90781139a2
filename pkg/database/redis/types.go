package redis

// PoolStats 连接池统计信息（隐藏 go-redis 类型）
type PoolStats struct {
	Hits       uint32 // 命中空闲连接次数
	Misses     uint32 // 未命中空闲连接次数
	Timeouts   uint32 // 获取连接超时次数
	TotalConns uint32 // 总连接数
	IdleConns  uint32 // 空闲连接数
	StaleConns uint32 // 被移除的过期连接数
}

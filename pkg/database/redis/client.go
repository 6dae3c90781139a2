package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient 内部 Redis 客户端接口（隐藏单机/集群差异）
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
	PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub
	PoolStats() *redis.PoolStats
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Client Redis 客户端（隐藏 go-redis 类型）
type Client struct {
	rdb redisClient
	cfg *Config
}

// NewClient 创建 Redis 客户端
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := &Client{cfg: cfg}

	if cfg.IsStandalone() {
		return client.createStandaloneClient()
	}
	return client.createClusterClient()
}

// createStandaloneClient 创建单机模式客户端
func (c *Client) createStandaloneClient() (*Client, error) {
	opts := &redis.Options{
		Addr:            fmt.Sprintf("%s:%d", c.cfg.Standalone.Host, c.cfg.Standalone.Port),
		Password:        c.cfg.Standalone.Password,
		DB:              c.cfg.Standalone.DB,
		MaxIdleConns:    c.cfg.Pool.MaxIdleConns,
		MaxActiveConns:  c.cfg.Pool.MaxOpenConns,
		ConnMaxLifetime: c.cfg.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: c.cfg.Pool.ConnMaxIdleTime,
		DialTimeout:     c.cfg.Pool.DialTimeout,
		ReadTimeout:     c.cfg.Pool.ReadTimeout,
		WriteTimeout:    c.cfg.Pool.WriteTimeout,
		PoolTimeout:     c.cfg.Pool.PoolTimeout,
	}

	c.rdb = redis.NewClient(opts)
	return c, nil
}

// createClusterClient 创建集群模式客户端
func (c *Client) createClusterClient() (*Client, error) {
	opts := &redis.ClusterOptions{
		Addrs:           c.cfg.Cluster.Addrs,
		Password:        c.cfg.Cluster.Password,
		MaxIdleConns:    c.cfg.Pool.MaxIdleConns,
		ConnMaxLifetime: c.cfg.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: c.cfg.Pool.ConnMaxIdleTime,
		DialTimeout:     c.cfg.Pool.DialTimeout,
		ReadTimeout:     c.cfg.Pool.ReadTimeout,
		WriteTimeout:    c.cfg.Pool.WriteTimeout,
		PoolTimeout:     c.cfg.Pool.PoolTimeout,
	}

	c.rdb = redis.NewClusterClient(opts)
	return c, nil
}

// Ping 测试连接
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// PoolStats 获取连接池统计信息（隐藏 go-redis 类型）
func (c *Client) PoolStats() PoolStats {
	stats := c.rdb.PoolStats()
	return PoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

// Close 关闭客户端
func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

// ===== Commands =====

// Get 获取键值
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set 设置键值
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Incr 自增计数器，返回自增后的值
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}

// Expire 设置键过期时间
func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return c.rdb.Expire(ctx, key, expiration).Err()
}

// ===== Pub/Sub =====

// Publish 发布消息到频道
func (c *Client) Publish(ctx context.Context, channel string, message interface{}) error {
	return c.rdb.Publish(ctx, channel, message).Err()
}

// Subscribe 订阅指定频道
func (c *Client) Subscribe(ctx context.Context, channels ...string) *PubSub {
	return &PubSub{ps: c.rdb.Subscribe(ctx, channels...)}
}

// PSubscribe 订阅模式匹配的频道
func (c *Client) PSubscribe(ctx context.Context, patterns ...string) *PubSub {
	return &PubSub{ps: c.rdb.PSubscribe(ctx, patterns...)}
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Client PostgreSQL 客户端
type Client struct {
	pool *pgxpool.Pool
	cfg  *Config
}

// New 创建 PostgreSQL 客户端
func New(cfg *Config) (*Client, error) {
	// 合并配置，确保有最小可用的配置
	newCfg, err := MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	if err := validateConfig(newCfg); err != nil {
		return nil, err
	}

	pool, err := createPool(newCfg, newCfg.Standalone)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	return &Client{pool: pool, cfg: newCfg}, nil
}

// applyQueryTimeout 应用查询超时到 context
func (c *Client) applyQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.QueryTimeout)
	}
	return ctx, func() {}
}

// Query 执行查询，返回多行结果
func (c *Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

// QueryRow 执行查询，返回单行结果
func (c *Client) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	return c.pool.QueryRow(ctx, sql, args...)
}

// Exec 执行写操作（INSERT/UPDATE/DELETE），返回影响行数
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	result, err := c.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return result.RowsAffected(), nil
}

// SendBatch 批量执行（使用 Pipeline）
func (c *Client) SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults {
	return c.pool.SendBatch(ctx, batch)
}

// IsNoRows 判断错误是否为未查询到数据
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNoRows)
}

// IsUniqueViolation 判断错误是否为唯一约束冲突
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Ping 检查数据库连接
func (c *Client) Ping(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

// Stats 获取连接池状态
func (c *Client) Stats() *PoolStats {
	stat := c.pool.Stat()
	return &PoolStats{
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration(),
		AcquiredConns:   stat.AcquiredConns(),
		IdleConns:       stat.IdleConns(),
		MaxConns:        stat.MaxConns(),
		TotalConns:      stat.TotalConns(),
	}
}

// Close 关闭客户端
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

// validateConfig 验证配置
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}

	if err := validateDBConfig(cfg.Standalone); err != nil {
		return err
	}

	if cfg.Pool.MaxConns <= 0 {
		return fmt.Errorf("%w: max_conns must be positive", ErrInvalidConfig)
	}
	if cfg.Pool.MinConns < 0 {
		return fmt.Errorf("%w: min_conns must be non-negative", ErrInvalidConfig)
	}
	if cfg.Pool.MinConns > cfg.Pool.MaxConns {
		return fmt.Errorf("%w: min_conns cannot be greater than max_conns", ErrInvalidConfig)
	}

	return nil
}

// validateDBConfig 验证单个数据库配置
func validateDBConfig(cfg *DBConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: db config is nil", ErrInvalidConfig)
	}
	if cfg.Host == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidConfig)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, cfg.Port)
	}
	if cfg.User == "" {
		return fmt.Errorf("%w: user is empty", ErrInvalidConfig)
	}
	if cfg.DBName == "" {
		return fmt.Errorf("%w: db_name is empty", ErrInvalidConfig)
	}
	return nil
}

// createPool 创建连接池
func createPool(cfg *Config, dbCfg *DBConfig) (*pgxpool.Pool, error) {
	connString := buildConnString(cfg, dbCfg)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = cfg.Pool.MaxConns
	poolConfig.MinConns = cfg.Pool.MinConns
	poolConfig.MaxConnLifetime = cfg.Pool.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Pool.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.Pool.HealthCheckPeriod

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// buildConnString 构建连接字符串
func buildConnString(cfg *Config, dbCfg *DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.User,
		dbCfg.Password,
		dbCfg.DBName,
		dbCfg.SSLMode,
		int(cfg.ConnectTimeout.Seconds()),
	)
}

package postgres

import (
	"time"

	"github.com/concordchat-legacy/concord-gateway/pkg/config"
)

// DBConfig 单个数据库实例配置
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	User     string `json:"user" mapstructure:"user"`
	Password string `json:"password" mapstructure:"password"`
	DBName   string `json:"db_name" mapstructure:"db_name"`
	SSLMode  string `json:"ssl_mode" mapstructure:"ssl_mode"` // disable, require, verify-ca, verify-full
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxConns          int32         `json:"max_conns" mapstructure:"max_conns"`                     // 最大连接数
	MinConns          int32         `json:"min_conns" mapstructure:"min_conns"`                     // 最小连接数
	MaxConnLifetime   time.Duration `json:"max_conn_lifetime" mapstructure:"max_conn_lifetime"`     // 连接最大生命周期
	MaxConnIdleTime   time.Duration `json:"max_conn_idle_time" mapstructure:"max_conn_idle_time"`   // 连接最大空闲时间
	HealthCheckPeriod time.Duration `json:"health_check_period" mapstructure:"health_check_period"` // 健康检查周期
}

// Config PostgreSQL 配置
type Config struct {
	// Standalone 数据库实例配置
	Standalone *DBConfig `json:"standalone,omitempty" mapstructure:"standalone,omitempty"`

	// Pool 连接池配置
	Pool PoolConfig `json:"pool" mapstructure:"pool"`

	// 连接超时配置
	ConnectTimeout time.Duration `json:"connect_timeout" mapstructure:"connect_timeout"` // 连接超时
	QueryTimeout   time.Duration `json:"query_timeout" mapstructure:"query_timeout"`     // 查询超时
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Standalone: &DBConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "",
			DBName:   "concord",
			SSLMode:  "disable",
		},
		Pool: PoolConfig{
			MaxConns:          25,
			MinConns:          5,
			MaxConnLifetime:   time.Hour,
			MaxConnIdleTime:   30 * time.Minute,
			HealthCheckPeriod: time.Minute,
		},
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   30 * time.Second,
	}
}

// MergeConfig 合并配置（使用通用的 config.MergeConfig）
func MergeConfig(dst, src *Config) (*Config, error) {
	return config.MergeConfig(dst, src)
}

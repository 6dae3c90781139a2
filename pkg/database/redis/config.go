package redis

import "time"

// Config Redis 配置（Standalone/Cluster 两种模式，必须且只能配置一种）
type Config struct {
	// Standalone 单机模式配置
	Standalone *NodeConfig `json:"standalone,omitempty" mapstructure:"standalone,omitempty"`

	// Cluster 集群模式配置
	Cluster *ClusterConfig `json:"cluster,omitempty" mapstructure:"cluster,omitempty"`

	// Pool 连接池配置（所有模式共享）
	Pool PoolConfig `json:"pool" mapstructure:"pool"`
}

// NodeConfig 单节点配置
type NodeConfig struct {
	Host     string `json:"host" mapstructure:"host"`         // 主机地址
	Port     int    `json:"port" mapstructure:"port"`         // 端口
	Password string `json:"password" mapstructure:"password"` // 密码
	DB       int    `json:"db" mapstructure:"db"`             // 数据库索引（0-15）
}

// ClusterConfig 集群配置
type ClusterConfig struct {
	Addrs    []string `json:"addrs" mapstructure:"addrs"`       // 集群节点地址列表 (格式: "host:port")
	Password string   `json:"password" mapstructure:"password"` // 密码
}

// PoolConfig 连接池配置
type PoolConfig struct {
	// MaxIdleConns 最大空闲连接数
	MaxIdleConns int `json:"max_idle_conns" mapstructure:"max_idle_conns"`

	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `json:"max_open_conns" mapstructure:"max_open_conns"`

	// ConnMaxLifetime 连接最大生命周期
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	// ConnMaxIdleTime 连接最大空闲时间
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`

	// DialTimeout 连接超时时间
	DialTimeout time.Duration `json:"dial_timeout" mapstructure:"dial_timeout"`

	// ReadTimeout 读超时时间
	ReadTimeout time.Duration `json:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout 写超时时间
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout"`

	// PoolTimeout 从连接池获取连接的超时时间
	PoolTimeout time.Duration `json:"pool_timeout" mapstructure:"pool_timeout"`
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}

	// 必须且只能配置一种模式
	modeCount := 0
	if c.Standalone != nil {
		modeCount++
	}
	if c.Cluster != nil {
		modeCount++
	}
	if modeCount != 1 {
		return ErrInvalidConfig
	}

	return nil
}

// IsStandalone 是否为单机模式
func (c *Config) IsStandalone() bool {
	return c.Standalone != nil
}

// IsCluster 是否为集群模式
func (c *Config) IsCluster() bool {
	return c.Cluster != nil
}

// DefaultConfig 返回本地单机默认配置
func DefaultConfig() *Config {
	return &Config{
		Standalone: &NodeConfig{
			Host: "localhost",
			Port: 6379,
		},
		Pool: PoolConfig{
			MaxIdleConns: 10,
			MaxOpenConns: 100,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolTimeout:  4 * time.Second,
		},
	}
}

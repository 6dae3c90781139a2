package pipeline

import (
	"errors"
	"time"

	"github.com/concordchat-legacy/concord-gateway/pkg/compress"
)

// Config 出站管线配置
type Config struct {
	// QueueSize 出站队列长度，满时丢弃新事件
	QueueSize int `json:"queue_size" mapstructure:"queue_size"`

	// ChunkSize 单个二进制帧的最大字节数
	ChunkSize int `json:"chunk_size" mapstructure:"chunk_size"`

	// WriteTimeout 单帧写入超时
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout"`

	// Compression 压缩方式
	Compression compress.Type `json:"compression" mapstructure:"compression"`

	// Cluster 集群名，用于链路追踪标记
	Cluster string `json:"cluster" mapstructure:"cluster"`

	// Mode 运行模式，用于链路追踪标记
	Mode string `json:"mode" mapstructure:"mode"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		QueueSize:    64,
		ChunkSize:    1024,
		WriteTimeout: 10 * time.Second,
		Compression:  compress.TypeZlibStream,
		Cluster:      "asia-east1",
		Mode:         "dev",
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.QueueSize <= 0 {
		return errors.New("pipeline: queue size must be positive")
	}
	if c.ChunkSize <= 0 {
		return errors.New("pipeline: chunk size must be positive")
	}
	if !compress.IsRegistered(c.Compression) {
		return errors.New("pipeline: unknown compression type")
	}
	return nil
}

package config

import "github.com/spf13/viper"

// Option 配置管理器选项
type Option func(*manager)

// WithViper 使用外部 Viper 实例（用于与命令行参数共享同一实例）
func WithViper(v *viper.Viper) Option {
	return func(m *manager) {
		if v != nil {
			m.v = v
		}
	}
}

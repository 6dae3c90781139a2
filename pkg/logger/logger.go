// pkg/logger/logger.go
package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 确保 BaseLogger 实现了 Logger 接口
var _ Logger = (*BaseLogger)(nil)

// BaseLogger 基于 zap 的日志记录器实现
type BaseLogger struct {
	sugar  *zap.SugaredLogger
	config *Config
	name   string
}

// New 创建新的 BaseLogger
func New(cfg *Config) (*BaseLogger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(cfg.TimeFormat),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if cfg.Development {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var encoder zapcore.Encoder
	if cfg.Format == JSONFormat {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	level, err := zapcore.ParseLevel(cfg.Level.zapLevel())
	if err != nil {
		level = zapcore.InfoLevel
	}

	var cores []zapcore.Core
	if cfg.EnableConsole {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}
	if cfg.EnableFile {
		w := newRotationWriter(&cfg.Rotation, cfg.OutputPath)
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(w), level))
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if cfg.EnableStacktrace {
		stackLevel, err := zapcore.ParseLevel(cfg.StacktraceLevel.zapLevel())
		if err != nil {
			stackLevel = zapcore.ErrorLevel
		}
		opts = append(opts, zap.AddStacktrace(stackLevel))
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	core := zapcore.NewTee(cores...)
	return &BaseLogger{
		sugar:  zap.New(core, opts...).Sugar(),
		config: cfg,
	}, nil
}

// Default 返回仅输出到控制台的默认 Logger
// 配置加载前的引导阶段使用。
func Default() Logger {
	l, err := New(DefaultConfig())
	if err != nil {
		return NewNoop()
	}
	return l
}

// Debug 记录 debug 等级日志
func (l *BaseLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Info 记录 info 等级日志
func (l *BaseLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn 记录 warn 等级日志
func (l *BaseLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error 记录 error 等级日志
func (l *BaseLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// DebugContext Context 版本
func (l *BaseLogger) DebugContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// InfoContext Context 版本
func (l *BaseLogger) InfoContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// WarnContext Context 版本
func (l *BaseLogger) WarnContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// ErrorContext Context 版本
func (l *BaseLogger) ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Named 派生具名 Logger
func (l *BaseLogger) Named(name string) Logger {
	clone := *l
	clone.sugar = l.sugar.Named(name)
	if clone.name != "" {
		clone.name = clone.name + "." + name
	} else {
		clone.name = name
	}
	return &clone
}

// WithFields 派生带固定字段的 Logger
func (l *BaseLogger) WithFields(keysAndValues ...interface{}) Logger {
	clone := *l
	clone.sugar = l.sugar.With(keysAndValues...)
	return &clone
}

// Sync 刷新缓冲
func (l *BaseLogger) Sync() error {
	return l.sugar.Sync()
}

package logger

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newRotationWriter 创建按大小轮换的 writer
// 仅在 EnableFile=true 时调用
func newRotationWriter(cfg *RotationConfig, outputPath string) io.Writer {
	return &lumberjack.Logger{
		Filename:   outputPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
}

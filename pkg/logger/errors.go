package logger

import "errors"

var (
	// ErrInvalidOutputPath 启用文件输出但未指定路径
	ErrInvalidOutputPath = errors.New("logger: output_path is required when enable_file is true")
	// ErrNoOutputEnabled 至少需要启用一种输出
	ErrNoOutputEnabled = errors.New("logger: at least one of enable_console/enable_file must be set")
)

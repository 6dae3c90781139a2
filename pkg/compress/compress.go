// pkg/compress/compress.go
package compress

import (
	"fmt"
	"sync"
)

// Stream 流式压缩器接口
// 一个 Stream 持有跨消息的压缩字典状态，必须与对端的解压流一一对应。
// 同一 Stream 的 Compress 调用是互斥的，输出顺序即写出顺序。
type Stream interface {
	// Compress 压缩一条消息并执行 sync flush，返回本条消息新产生的压缩字节
	Compress(src []byte) ([]byte, error)

	// Close 结束压缩流并释放资源
	Close() error

	// Name 返回压缩算法名称
	Name() string
}

// Factory 压缩流工厂函数类型
type Factory func() (Stream, error)

// Type 压缩算法类型
type Type string

const (
	// TypeNone 不压缩
	TypeNone Type = "none"
	// TypeZlibStream zlib 流式压缩（每条消息 sync flush）
	TypeZlibStream Type = "zlib-stream"
)

var (
	mu        sync.RWMutex
	factories = make(map[Type]Factory)
)

func init() {
	// 注册默认支持的压缩算法
	Register(TypeNone, func() (Stream, error) {
		return &noneStream{}, nil
	})
	Register(TypeZlibStream, func() (Stream, error) {
		return newZlibStream()
	})
}

// Register 注册压缩流工厂
func Register(t Type, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[t] = factory
}

// Unregister 注销压缩流工厂
func Unregister(t Type) {
	mu.Lock()
	defer mu.Unlock()
	delete(factories, t)
}

// IsRegistered 检查类型是否已注册
func IsRegistered(t Type) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := factories[t]
	return ok
}

// List 返回已注册的类型
func List() []Type {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]Type, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	return types
}

// New 创建指定类型的压缩流
// 每个连接必须持有自己独立的 Stream，不可共享。
func New(t Type) (Stream, error) {
	mu.RLock()
	factory, ok := factories[t]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("compress: unsupported type %q", t)
	}
	return factory()
}

// MustNew 创建压缩流，失败时 panic
func MustNew(t Type) Stream {
	s, err := New(t)
	if err != nil {
		panic(err)
	}
	return s
}

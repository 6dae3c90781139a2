// Package conc 提供统一的并发原语：带结果的 Future 与基于 ants 的工作池。
// 所有后台 goroutine 都应通过 conc.Go 或 Pool.Submit 启动，保证 panic 被捕获。
package conc

import (
	"fmt"

	"github.com/panjf2000/ants/v2"
)

// Future 表示一个异步任务的结果
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go 启动一个 goroutine 执行 fn，返回 Future
// fn 内的 panic 会被捕获并转换为 error
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go f.run(fn)
	return f
}

func (f *Future[T]) run(fn func() (T, error)) {
	defer func() {
		if r := recover(); r != nil {
			f.err = fmt.Errorf("conc: task panicked: %v", r)
		}
		close(f.done)
	}()
	f.val, f.err = fn()
}

// Inner 返回完成通知 channel，可用于 select
func (f *Future[T]) Inner() <-chan struct{} {
	return f.done
}

// Wait 阻塞等待结果
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// Err 阻塞等待并返回错误
func (f *Future[T]) Err() error {
	<-f.done
	return f.err
}

// Pool 固定容量的工作池，底层使用 ants
type Pool[T any] struct {
	pool *ants.Pool
}

// NewPool 创建工作池
func NewPool[T any](size int) *Pool[T] {
	if size <= 0 {
		size = 1
	}
	p, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		// ants 仅在 size 非法时报错，上面已兜底
		panic(err)
	}
	return &Pool[T]{pool: p}
}

// Submit 提交任务，返回 Future
// 池满时阻塞直到有空闲 worker
func (p *Pool[T]) Submit(fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	if err := p.pool.Submit(func() { f.run(fn) }); err != nil {
		f.err = err
		close(f.done)
	}
	return f
}

// Running 返回正在运行的 worker 数量
func (p *Pool[T]) Running() int {
	return p.pool.Running()
}

// Release 释放工作池
func (p *Pool[T]) Release() {
	p.pool.Release()
}

// pkg/pool/bytebuff/pool.go
// 基于 valyala/bytebufferpool 的 buffer 池，附带统计信息
package bytebuff

import (
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Pool byte buffer 对象池
type Pool struct {
	pool *bytebufferpool.Pool

	// 统计信息
	gets uint64
	puts uint64
}

// defaultPool 默认的全局池
var defaultPool = NewPool()

// NewPool 创建一个新的 buffer pool
func NewPool() *Pool {
	return &Pool{pool: &bytebufferpool.Pool{}}
}

// Get 从池中获取一个 ByteBuffer
func (p *Pool) Get() *bytebufferpool.ByteBuffer {
	atomic.AddUint64(&p.gets, 1)
	return p.pool.Get()
}

// Put 将 ByteBuffer 归还到池中
func (p *Pool) Put(buf *bytebufferpool.ByteBuffer) {
	if buf == nil {
		return
	}
	atomic.AddUint64(&p.puts, 1)
	p.pool.Put(buf)
}

// Stats 返回池的统计信息
func (p *Pool) Stats() (gets, puts uint64) {
	return atomic.LoadUint64(&p.gets), atomic.LoadUint64(&p.puts)
}

// Get 从默认池中获取一个 ByteBuffer
func Get() *bytebufferpool.ByteBuffer {
	return defaultPool.Get()
}

// Put 将 ByteBuffer 归还到默认池中
func Put(buf *bytebufferpool.ByteBuffer) {
	defaultPool.Put(buf)
}

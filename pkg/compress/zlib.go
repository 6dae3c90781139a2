// pkg/compress/zlib.go
package compress

import (
	"errors"
	"sync"

	"github.com/concordchat-legacy/concord-gateway/pkg/pool/bytebuff"
	"github.com/klauspost/compress/zlib"
	"github.com/valyala/bytebufferpool"
)

// ErrStreamClosed 压缩流已关闭
var ErrStreamClosed = errors.New("compress: stream closed")

// zlibStream zlib 流式压缩实现
// 压缩字典跨消息保留，暂存 buffer 取自共享池，流关闭时归还。
type zlibStream struct {
	mu     sync.Mutex
	buf    *bytebufferpool.ByteBuffer
	zw     *zlib.Writer
	closed bool
}

// newZlibStream 创建 zlib 压缩流
func newZlibStream() (*zlibStream, error) {
	s := &zlibStream{buf: bytebuff.Get()}
	s.zw = zlib.NewWriter(s.buf)
	return s, nil
}

// Compress 压缩一条消息，sync flush 后返回压缩字节
func (s *zlibStream) Compress(src []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStreamClosed
	}

	s.buf.Reset()
	if _, err := s.zw.Write(src); err != nil {
		return nil, err
	}
	if err := s.zw.Flush(); err != nil {
		return nil, err
	}

	// buf 会在下条消息前被复用，必须拷贝
	out := make([]byte, len(s.buf.B))
	copy(out, s.buf.B)
	return out, nil
}

// Close 结束压缩流并归还暂存 buffer
func (s *zlibStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.zw.Close()
	bytebuff.Put(s.buf)
	s.buf = nil
	return err
}

// Name 返回压缩算法名称
func (s *zlibStream) Name() string {
	return string(TypeZlibStream)
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/concordchat-legacy/concord-gateway/pkg/compress"
	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureConn struct {
	mu     sync.Mutex
	frames [][]byte

	block     chan struct{}
	started   chan struct{}
	startOnce sync.Once
}

func newCaptureConn() *captureConn {
	return &captureConn{started: make(chan struct{})}
}

func (c *captureConn) SendBinary(_ context.Context, data []byte) error {
	c.startOnce.Do(func() { close(c.started) })
	if c.block != nil {
		<-c.block
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *captureConn) all() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func plainConfig() *Config {
	cfg := DefaultConfig()
	cfg.Compression = compress.TypeNone
	return cfg
}

type frame struct {
	Op    int             `json:"op"`
	T     string          `json:"t"`
	D     json.RawMessage `json:"d"`
	Trace []string        `json:"_trace"`
}

func TestSendEventOrderAndTrace(t *testing.T) {
	conn := newCaptureConn()
	s, err := NewSender(conn, plainConfig(), logger.NewNoop())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SendEvent("MESSAGE_CREATE", map[string]int{"seq": i}))
	}
	require.NoError(t, s.Close())

	frames := conn.all()
	require.Len(t, frames, 5)

	wantTrace := fmt.Sprintf("concord-asia-east1-gateway-dev-%d", os.Getpid())
	for i, raw := range frames {
		var f frame
		require.NoError(t, json.Unmarshal(raw, &f))
		assert.Equal(t, 0, f.Op)
		assert.Equal(t, "MESSAGE_CREATE", f.T)
		assert.JSONEq(t, fmt.Sprintf(`{"seq":%d}`, i), string(f.D))
		require.Len(t, f.Trace, 1)
		assert.Equal(t, wantTrace, f.Trace[0])
	}
}

func TestSendRawOmitsEventName(t *testing.T) {
	conn := newCaptureConn()
	s, err := NewSender(conn, plainConfig(), logger.NewNoop())
	require.NoError(t, err)

	require.NoError(t, s.SendRaw(map[string]string{"hello": "world"}))
	require.NoError(t, s.Close())

	frames := conn.all()
	require.Len(t, frames, 1)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(frames[0], &decoded))
	assert.Contains(t, decoded, "op")
	assert.NotContains(t, decoded, "t")

	var f frame
	require.NoError(t, json.Unmarshal(frames[0], &f))
	assert.Equal(t, 1, f.Op)
}

func TestChunkedWrites(t *testing.T) {
	conn := newCaptureConn()
	s, err := NewSender(conn, plainConfig(), logger.NewNoop())
	require.NoError(t, err)

	payload := bytes.Repeat([]byte("a"), 3000)
	require.NoError(t, s.SendEvent("MESSAGE_CREATE", string(payload)))
	require.NoError(t, s.Close())

	frames := conn.all()
	require.Greater(t, len(frames), 1, "payload must be split into chunks")

	var whole []byte
	for _, f := range frames {
		assert.LessOrEqual(t, len(f), 1024)
		whole = append(whole, f...)
	}

	var f frame
	require.NoError(t, json.Unmarshal(whole, &f))
	var got string
	require.NoError(t, json.Unmarshal(f.D, &got))
	assert.Equal(t, string(payload), got)
}

func TestZlibStreamDecoding(t *testing.T) {
	conn := newCaptureConn()
	s, err := NewSender(conn, nil, logger.NewNoop())
	require.NoError(t, err)

	require.NoError(t, s.SendEvent("READY", map[string]int64{"id": 42}))
	require.NoError(t, s.SendEvent("GUILD_CREATE", map[string]int64{"id": 7}))
	require.NoError(t, s.Close())

	var whole []byte
	for _, f := range conn.all() {
		whole = append(whole, f...)
	}

	zr, err := zlib.NewReader(bytes.NewReader(whole))
	require.NoError(t, err)
	dec := json.NewDecoder(zr)

	var first, second frame
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, "READY", first.T)
	assert.Equal(t, "GUILD_CREATE", second.T)
}

func TestQueueFull(t *testing.T) {
	conn := newCaptureConn()
	conn.block = make(chan struct{})

	cfg := plainConfig()
	cfg.QueueSize = 1
	s, err := NewSender(conn, cfg, logger.NewNoop())
	require.NoError(t, err)

	// 第一条被写协程取走并阻塞在连接上
	require.NoError(t, s.SendEvent("E", 1))
	select {
	case <-conn.started:
	case <-time.After(time.Second):
		t.Fatal("writer never picked up the first event")
	}

	// 第二条占满队列，第三条被拒绝
	require.NoError(t, s.SendEvent("E", 2))
	assert.ErrorIs(t, s.SendEvent("E", 3), ErrQueueFull)

	close(conn.block)
	require.NoError(t, s.Close())
	assert.Len(t, conn.all(), 2)
}

func TestSendAfterClose(t *testing.T) {
	conn := newCaptureConn()
	s, err := NewSender(conn, plainConfig(), logger.NewNoop())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	assert.ErrorIs(t, s.SendEvent("E", nil), ErrSenderClosed)
	assert.ErrorIs(t, s.SendRaw(nil), ErrSenderClosed)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, true},
		{"zero chunk", func(c *Config) { c.ChunkSize = 0 }, true},
		{"unknown compression", func(c *Config) { c.Compression = "lz77" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

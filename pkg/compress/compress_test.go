// pkg/compress/compress_test.go
package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func TestNoneStream(t *testing.T) {
	s, err := New(TypeNone)
	if err != nil {
		t.Fatalf("failed to create none stream: %v", err)
	}

	data := []byte("hello world")
	out, err := s.Compress(data)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	if !bytes.Equal(data, out) {
		t.Errorf("none stream should pass data through")
	}
}

func TestZlibStreamRoundTrip(t *testing.T) {
	s, err := New(TypeZlibStream)
	if err != nil {
		t.Fatalf("failed to create zlib stream: %v", err)
	}
	defer s.Close()

	messages := [][]byte{
		[]byte(`{"op":0,"t":"READY","d":{"id":"1"}}`),
		[]byte(`{"op":0,"t":"PRESENCE_UPDATE","d":{"status":"online"}}`),
		[]byte(`{"op":1,"d":null}`),
	}

	// 客户端视角: 把每条消息的压缩输出按序拼接，用同一个解压流还原
	var wire bytes.Buffer
	var want bytes.Buffer
	for _, msg := range messages {
		chunk, err := s.Compress(msg)
		if err != nil {
			t.Fatalf("compress failed: %v", err)
		}
		if len(chunk) == 0 {
			t.Fatal("sync flush should always produce output")
		}
		wire.Write(chunk)
		want.Write(msg)
	}

	zr, err := zlib.NewReader(&wire)
	if err != nil {
		t.Fatalf("failed to open decompressor: %v", err)
	}

	got := make([]byte, want.Len())
	if _, err := io.ReadFull(zr, got); err != nil {
		t.Fatalf("decompress failed: %v", err)
	}
	if !bytes.Equal(want.Bytes(), got) {
		t.Errorf("round trip mismatch: want %q, got %q", want.Bytes(), got)
	}
}

func TestZlibStreamStateIsShared(t *testing.T) {
	// 第二条重复消息应因字典复用而明显变小
	s := MustNew(TypeZlibStream)
	defer s.Close()

	msg := bytes.Repeat([]byte("concord gateway event payload "), 32)

	first, err := s.Compress(msg)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	second, err := s.Compress(msg)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	if len(second) >= len(first) {
		t.Errorf("expected dictionary reuse to shrink repeat message: first=%d second=%d",
			len(first), len(second))
	}
}

func TestZlibStreamClosed(t *testing.T) {
	s := MustNew(TypeZlibStream)
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	// 重复关闭应为幂等
	if err := s.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if _, err := s.Compress([]byte("x")); err != ErrStreamClosed {
		t.Errorf("expected ErrStreamClosed, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	customType := Type("custom")

	Register(customType, func() (Stream, error) {
		return &noneStream{}, nil
	})
	defer Unregister(customType)

	if !IsRegistered(customType) {
		t.Error("custom stream should be registered")
	}

	s, err := New(customType)
	if err != nil {
		t.Fatalf("failed to create custom stream: %v", err)
	}
	if s == nil {
		t.Error("stream should not be nil")
	}
}

func TestUnsupportedType(t *testing.T) {
	_, err := New(Type("unknown"))
	if err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for unknown stream type")
		}
	}()
	MustNew(Type("unknown"))
}

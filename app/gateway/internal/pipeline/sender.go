package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	cerrors "github.com/cockroachdb/errors"
	"github.com/concordchat-legacy/concord-gateway/pkg/compress"
	"github.com/concordchat-legacy/concord-gateway/pkg/config"
	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
	"github.com/concordchat-legacy/concord-gateway/pkg/serializer"
	"github.com/concordchat-legacy/concord-gateway/pkg/util/conc"
)

var (
	// ErrQueueFull 出站队列已满
	ErrQueueFull = errors.New("pipeline: outbound queue full")

	// ErrSenderClosed 发送器已关闭
	ErrSenderClosed = errors.New("pipeline: sender closed")
)

// 操作码
const (
	opDispatch = 0 // 带事件名的分发
	opPush     = 1 // 通用推送
)

// Conn 出站管线依赖的连接写入能力
// pkg/websocket 的 Connection 实现该接口。
type Conn interface {
	SendBinary(ctx context.Context, data []byte) error
}

// envelope 出站信封
type envelope struct {
	Op    int         `json:"op"`
	T     string      `json:"t,omitempty"`
	D     interface{} `json:"d"`
	Trace []string    `json:"_trace"`
}

// Sender 单连接的出站管线
// 所有出站消息经同一队列由单个写协程处理：序列化、流式压缩、
// 按块写出。压缩流带跨消息字典，写出顺序即入队顺序。
type Sender struct {
	conn   Conn
	cfg    *Config
	ser    serializer.Serializer
	stream compress.Stream
	logger logger.Logger
	trace  []string

	queue chan envelope
	done  chan struct{}
	loop  *conc.Future[struct{}]

	closeOnce sync.Once
}

// NewSender 创建出站管线并启动写协程
func NewSender(conn Conn, cfg *Config, l logger.Logger) (*Sender, error) {
	cfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stream, err := compress.New(cfg.Compression)
	if err != nil {
		return nil, cerrors.Wrap(err, "pipeline: create compress stream")
	}

	s := &Sender{
		conn:   conn,
		cfg:    cfg,
		ser:    serializer.Default(),
		stream: stream,
		logger: l.Named("pipeline"),
		trace: []string{
			fmt.Sprintf("concord-%s-gateway-%s-%d", cfg.Cluster, cfg.Mode, os.Getpid()),
		},
		queue: make(chan envelope, cfg.QueueSize),
		done:  make(chan struct{}),
	}
	s.loop = conc.Go(func() (struct{}, error) {
		s.run()
		return struct{}{}, nil
	})
	return s, nil
}

// SendEvent 发送分发事件（op 0）
// 队列满时立即返回 ErrQueueFull，不阻塞调用方。
func (s *Sender) SendEvent(t string, d interface{}) error {
	return s.enqueue(envelope{Op: opDispatch, T: t, D: d})
}

// SendRaw 发送通用推送（op 1）
func (s *Sender) SendRaw(d interface{}) error {
	return s.enqueue(envelope{Op: opPush, D: d})
}

func (s *Sender) enqueue(e envelope) error {
	select {
	case <-s.done:
		return ErrSenderClosed
	default:
	}

	e.Trace = s.trace
	select {
	case s.queue <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close 关闭发送器
// 写出队列中剩余的消息后结束压缩流。重复调用为 no-op。
func (s *Sender) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.loop.Wait()
		if err := s.stream.Close(); err != nil {
			s.logger.Warn("compress stream close failed", "error", err)
		}
	})
	return nil
}

func (s *Sender) run() {
	for {
		select {
		case e := <-s.queue:
			s.write(e)
		case <-s.done:
			// 收尾：写完已入队的消息
			for {
				select {
				case e := <-s.queue:
					s.write(e)
				default:
					return
				}
			}
		}
	}
}

func (s *Sender) write(e envelope) {
	data, err := s.ser.Serialize(e)
	if err != nil {
		s.logger.Error("serialize outbound envelope failed", "error", err)
		return
	}

	compressed, err := s.stream.Compress(data)
	if err != nil {
		s.logger.Error("compress outbound frame failed", "error", err)
		return
	}

	// compressed 每条消息独立分配，子切片可安全交给发送队列
	frame := compressed
	for len(frame) > 0 {
		n := s.cfg.ChunkSize
		if n > len(frame) {
			n = len(frame)
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
		err := s.conn.SendBinary(ctx, frame[:n])
		cancel()
		if err != nil {
			s.logger.Debug("outbound write failed", "error", err)
			return
		}
		frame = frame[n:]
	}
}

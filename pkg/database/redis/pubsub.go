package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Message 订阅收到的一条消息
type Message struct {
	Channel string // 来源频道
	Pattern string // 命中的订阅模式（普通订阅为空）
	Payload string // 消息内容
}

// PubSub 订阅句柄（隐藏 go-redis 类型）
// Close 后 Channel 返回的通道会被关闭。
type PubSub struct {
	ps *redis.PubSub
}

// Channel 返回消息通道
func (p *PubSub) Channel() <-chan *Message {
	src := p.ps.Channel()
	out := make(chan *Message)

	go func() {
		defer close(out)
		for msg := range src {
			out <- &Message{
				Channel: msg.Channel,
				Pattern: msg.Pattern,
				Payload: msg.Payload,
			}
		}
	}()

	return out
}

// Receive 阻塞接收一条消息（订阅确认等非消息事件被跳过）
func (p *PubSub) Receive(ctx context.Context) (*Message, error) {
	msg, err := p.ps.ReceiveMessage(ctx)
	if err != nil {
		return nil, err
	}
	return &Message{
		Channel: msg.Channel,
		Pattern: msg.Pattern,
		Payload: msg.Payload,
	}, nil
}

// Close 取消订阅并关闭
func (p *PubSub) Close() error {
	return p.ps.Close()
}

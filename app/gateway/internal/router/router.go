package router

import (
	"context"
	"encoding/json"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/metrics"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/session"
	"github.com/concordchat-legacy/concord-gateway/pkg/database/redis"
	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
	"github.com/concordchat-legacy/concord-gateway/pkg/util/conc"
)

// DefaultChannel 默认订阅频道
const DefaultChannel = "gateway"

// Router 分发路由器
// 订阅 redis 频道，把上游信封扇出到注册表中的相关会话。
// 所有投递都是非阻塞入队，慢会话不会拖住路由循环。
type Router struct {
	logger   logger.Logger
	client   *redis.Client
	registry *session.Registry
	metrics  *metrics.GatewayMetrics
	channel  string

	ctx       context.Context
	cancel    context.CancelFunc
	subFuture *conc.Future[struct{}]
}

// NewRouter 创建路由器
func NewRouter(l logger.Logger, client *redis.Client, reg *session.Registry, m *metrics.GatewayMetrics) *Router {
	ctx, cancel := context.WithCancel(context.Background())
	return &Router{
		logger:   l.Named("router"),
		client:   client,
		registry: reg,
		metrics:  m,
		channel:  DefaultChannel,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start 订阅频道并启动路由循环
func (r *Router) Start() error {
	pubsub := r.client.Subscribe(r.ctx, r.channel)

	r.logger.Info("router started", "channel", r.channel)

	r.subFuture = conc.Go(func() (struct{}, error) {
		return struct{}{}, r.messageLoop(pubsub)
	})

	return nil
}

// Stop 停止路由循环
func (r *Router) Stop() error {
	r.cancel()

	if r.subFuture != nil {
		if err := r.subFuture.Err(); err != nil {
			r.logger.Warn("router stopped with error", "error", err)
		}
	}

	r.logger.Info("router stopped")
	return nil
}

// messageLoop 消息处理循环
func (r *Router) messageLoop(pubsub *redis.PubSub) error {
	msgChan := pubsub.Channel()

	for {
		select {
		case <-r.ctx.Done():
			return pubsub.Close()

		case msg, ok := <-msgChan:
			if !ok {
				r.logger.Warn("pubsub channel closed")
				return nil
			}
			r.handleEvent([]byte(msg.Payload))
		}
	}
}

// handleEvent 处理一条上游信封
// 解析失败或类型未知的信封静默丢弃。
func (r *Router) handleEvent(payload []byte) {
	var e Envelope
	if err := json.Unmarshal(payload, &e); err != nil {
		r.logger.Debug("drop unparseable envelope", "error", err)
		r.metrics.OnEventDropped()
		return
	}

	r.metrics.OnEventRouted(e.Type)

	switch e.Type {
	case TypeUser:
		r.routeUser(&e)
	case TypeGuild:
		r.routeGuild(&e)
	case TypeChannel:
		r.routeChannel(&e)
	case TypeFriend:
		r.routeFriend(&e)
	case TypeMember:
		r.routeMember(&e)
	case TypePresence:
		r.routePresence(&e)
	default:
		r.logger.Debug("drop envelope of unknown type", "type", e.Type)
		r.metrics.OnEventDropped()
	}
}

// routeUser 用户级事件：投递给 data.user_id 的所有会话
func (r *Router) routeUser(e *Envelope) {
	userID, ok := e.dataUserID()
	if !ok {
		r.metrics.OnEventDropped()
		return
	}

	name := "USER_" + e.Name
	for _, sess := range r.registry.FindByUser(userID) {
		r.send(sess, name, e.Data)
	}
}

// routeGuild 服务器级事件
// 带 user_id 表示该用户新进服务器：投递 GUILD_CREATE 并登记成员关系；
// 否则投递给已在服务器内的会话，JOIN/DELETE 同步更新成员集合。
func (r *Router) routeGuild(e *Envelope) {
	if e.UserID != nil {
		for _, sess := range r.registry.FindByUser(*e.UserID) {
			r.send(sess, "GUILD_CREATE", e.Data)
			if e.GuildID != nil {
				sess.JoinGuild(*e.GuildID)
			}
		}
		return
	}

	if e.GuildID == nil {
		r.metrics.OnEventDropped()
		return
	}

	name := "GUILD_" + e.Name
	r.registry.Range(func(sess *session.Session) bool {
		if !sess.InGuild(*e.GuildID) {
			return true
		}
		r.send(sess, name, e.Data)

		switch e.Name {
		case "JOIN":
			sess.JoinGuild(*e.GuildID)
		case "DELETE":
			sess.LeaveGuild(*e.GuildID)
		}
		return true
	})
}

// routeChannel 频道/消息事件
// 服务器频道按 guild_messages/guild_channels 意图过滤，
// 私聊按 direct_messages 意图投递给频道接收方。
func (r *Router) routeChannel(e *Envelope) {
	name := "CHANNEL_" + e.Name
	if e.IsMessage {
		name = "MESSAGE_" + e.Name
	}

	if e.GuildID != nil {
		r.registry.Range(func(sess *session.Session) bool {
			if !sess.InGuild(*e.GuildID) {
				return true
			}
			in := sess.Intents()
			if (e.IsMessage && in.GuildMessages) || (!e.IsMessage && in.GuildChannels) {
				r.send(sess, name, e.Data)
			}
			return true
		})
		return
	}

	if e.Channel == nil {
		r.metrics.OnEventDropped()
		return
	}

	for _, recipient := range e.Channel.Recipients {
		for _, sess := range r.registry.FindByUser(recipient.ID) {
			if sess.Intents().DirectMessages {
				r.send(sess, name, e.Data)
			}
		}
	}
}

// routeFriend 好友请求事件：接收方收到请求详情，发起方收到确认
func (r *Router) routeFriend(e *Envelope) {
	if e.ReceiverID != nil {
		for _, sess := range r.registry.FindByUser(*e.ReceiverID) {
			r.send(sess, "FRIEND_REQUEST", e.Data)
		}
	}
	if e.RequesterID != nil {
		for _, sess := range r.registry.FindByUser(*e.RequesterID) {
			r.send(sess, "FRIEND_ACK", nil)
		}
	}
}

// routeMember 成员事件：投递给开启 guild_members 意图的服务器成员
func (r *Router) routeMember(e *Envelope) {
	if e.GuildID == nil {
		r.metrics.OnEventDropped()
		return
	}

	name := "MEMBER_" + e.Name
	r.registry.Range(func(sess *session.Session) bool {
		if sess.InGuild(*e.GuildID) && sess.Intents().GuildMembers {
			r.send(sess, name, e.Data)
		}
		return true
	})
}

// routePresence 在线状态变更
// 以变更用户任一会话的服务器集合为准，投递给与其共享至少一个
// 服务器、开启 presences 意图的其他会话。
func (r *Router) routePresence(e *Envelope) {
	if e.UserID == nil {
		r.metrics.OnEventDropped()
		return
	}

	acting := r.registry.FindByUser(*e.UserID)
	if len(acting) == 0 {
		return
	}
	actor := acting[0]
	guilds := actor.GuildIDs()

	r.registry.Range(func(sess *session.Session) bool {
		if sess.ID() == actor.ID() {
			return true
		}
		if !sess.Intents().Presences {
			return true
		}
		for _, guildID := range guilds {
			if sess.InGuild(guildID) {
				r.send(sess, "PRESENCE_UPDATE", e.Data)
				return true
			}
		}
		return true
	})
}

// send 非阻塞投递
func (r *Router) send(sess *session.Session, name string, data interface{}) {
	if err := sess.Outbound().SendEvent(name, data); err != nil {
		r.metrics.OnDeliveryFailure()
		r.logger.Debug("event delivery rejected",
			"session_id", sess.ID(),
			"event", name,
			"error", err,
		)
		return
	}
	r.metrics.OnDelivery()
}

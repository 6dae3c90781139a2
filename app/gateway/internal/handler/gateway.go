package handler

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/auth"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/intents"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/metrics"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/pipeline"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/presence"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/session"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/store"
	"github.com/concordchat-legacy/concord-gateway/pkg/config"
	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
	"github.com/concordchat-legacy/concord-gateway/pkg/util/conc"
	"github.com/concordchat-legacy/concord-gateway/pkg/websocket"
)

// 关闭码
const (
	CloseInvalidData      = 4001 // 身份帧不是合法的 JSON 对象
	CloseNoToken          = 4002 // 身份帧缺少令牌
	CloseInvalidToken     = 4003 // 令牌校验失败
	CloseHandshakeTimeout = 4005 // 非文本帧或握手超时
	CloseRateLimited      = 4008 // 帧频超限
)

// identifyFrame 客户端身份帧
type identifyFrame struct {
	Token   *string `json:"token"`
	Intents *uint64 `json:"intents"`
}

// connState 单连接的处理状态
type connState struct {
	conn   *websocket.Connection
	sender *pipeline.Sender

	mu   sync.Mutex
	sess *session.Session

	identified     atomic.Bool
	handshakeTimer *time.Timer
	preAuthClose   sync.Once
}

func (st *connState) session() *session.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sess
}

// Gateway 网关连接处理器
// 驱动每条连接走完 握手→认证→就绪→活跃→清理 的状态机，
// 实现 pkg/websocket 的 MessageHandler 接口。
type Gateway struct {
	cfg      *Config
	logger   logger.Logger
	verifier *auth.Verifier
	store    store.Store
	registry *session.Registry
	presence *presence.Manager
	metrics  *metrics.GatewayMetrics

	states sync.Map // conn id -> *connState
}

// NewGateway 创建网关处理器
func NewGateway(
	cfg *Config,
	l logger.Logger,
	verifier *auth.Verifier,
	s store.Store,
	registry *session.Registry,
	pm *presence.Manager,
	m *metrics.GatewayMetrics,
) (*Gateway, error) {
	cfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Gateway{
		cfg:      cfg,
		logger:   l.Named("gateway"),
		verifier: verifier,
		store:    s,
		registry: registry,
		presence: pm,
		metrics:  m,
	}, nil
}

// OnConnect 连接建立：准备出站管线并启动握手计时器
func (g *Gateway) OnConnect(conn *websocket.Connection) error {
	sender, err := pipeline.NewSender(conn, g.cfg.Pipeline, g.logger)
	if err != nil {
		return err
	}

	st := &connState{conn: conn, sender: sender}
	st.handshakeTimer = time.AfterFunc(g.cfg.HandshakeTimeout, func() {
		if !st.identified.Load() {
			g.logger.Debug("handshake timed out", "conn_id", conn.ID())
			conn.CloseWithCode(CloseHandshakeTimeout, "Handshake Timeout")
		}
	})
	g.states.Store(conn.ID(), st)

	g.logger.Debug("connection opened", "conn_id", conn.ID(), "remote_addr", conn.RemoteAddr())
	return nil
}

// OnMessage 收到帧
// 未认证连接只接受一帧文本身份帧；认证后只做帧频管控，
// 载荷内容被忽略。
func (g *Gateway) OnMessage(conn *websocket.Connection, msg *websocket.Message) error {
	v, ok := g.states.Load(conn.ID())
	if !ok {
		return nil
	}
	st := v.(*connState)

	if msg.Type != websocket.MessageTypeText {
		conn.CloseWithCode(CloseHandshakeTimeout, "Text Frames Only")
		return nil
	}

	sess := st.session()
	if sess == nil {
		g.identify(st, msg.Data)
		return nil
	}

	count := sess.RegisterFrame(time.Now(), g.cfg.RateWindow)
	if count > g.cfg.RateLimit {
		g.logger.Warn("session rate limited",
			"session_id", sess.ID(),
			"user_id", sess.UserID(),
			"frames", count,
		)
		conn.CloseWithCode(CloseRateLimited, "Too Many Requests")
	}
	return nil
}

// OnDisconnect 连接断开：触发一次性清理
func (g *Gateway) OnDisconnect(conn *websocket.Connection, err error) {
	v, ok := g.states.LoadAndDelete(conn.ID())
	if !ok {
		return
	}
	g.teardown(v.(*connState))
}

// OnError 连接错误
func (g *Gateway) OnError(conn *websocket.Connection, err error) {
	g.logger.Debug("connection error", "conn_id", conn.ID(), "error", err)
}

// identify 处理身份帧
func (g *Gateway) identify(st *connState, data []byte) {
	var frame identifyFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		st.conn.CloseWithCode(CloseInvalidData, "Invalid Data Sent")
		return
	}
	if frame.Token == nil {
		st.conn.CloseWithCode(CloseNoToken, "No Token Given")
		return
	}

	var mask uint64
	if frame.Intents != nil {
		mask = *frame.Intents
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := g.verifier.Verify(ctx, *frame.Token)
	if err != nil {
		g.logger.Debug("token rejected", "conn_id", st.conn.ID(), "error", err)
		st.conn.CloseWithCode(CloseInvalidToken, "Invalid Token")
		return
	}

	st.identified.Store(true)
	st.handshakeTimer.Stop()

	sess := session.New(user, intents.Decode(mask), st.sender)
	st.mu.Lock()
	st.sess = sess
	st.mu.Unlock()

	sess.SetState(session.StateReady)
	g.registry.Add(sess)
	g.metrics.OnSessionOpened()

	g.logger.Info("session authenticated",
		"session_id", sess.ID(),
		"user_id", user.ID,
		"conn_id", st.conn.ID(),
	)

	g.ready(ctx, sess)
	sess.SetState(session.StateActive)

	g.watchLiveness(st, sess)
}

// ready 就绪序列：核对在线状态、下发用户信息和已加入的服务器
func (g *Gateway) ready(ctx context.Context, sess *session.Session) {
	if err := g.presence.Reconcile(ctx, sess); err != nil {
		g.logger.Error("presence reconcile failed",
			"session_id", sess.ID(),
			"user_id", sess.UserID(),
			"error", err,
		)
	}

	if err := sess.Outbound().SendEvent("READY", sess.User()); err != nil {
		g.logger.Warn("ready event rejected", "session_id", sess.ID(), "error", err)
	}

	guildIDs, err := g.store.GetMemberGuildIDs(ctx, sess.UserID())
	if err != nil {
		g.logger.Error("member guild lookup failed",
			"session_id", sess.ID(),
			"user_id", sess.UserID(),
			"error", err,
		)
		return
	}

	for _, guildID := range guildIDs {
		guild, err := g.store.GetGuild(ctx, guildID)
		if err != nil {
			g.logger.Warn("guild lookup failed", "guild_id", guildID, "error", err)
			continue
		}

		// 成员关系无条件登记，事件下发受 guilds 意图约束
		sess.JoinGuild(guildID)
		if sess.Intents().Guilds {
			if err := sess.Outbound().SendEvent("GUILD_CREATE", guild); err != nil {
				g.logger.Warn("guild event rejected", "session_id", sess.ID(), "error", err)
			}
		}
	}
}

// watchLiveness 周期巡检连接存活
func (g *Gateway) watchLiveness(st *connState, sess *session.Session) {
	conc.Go(func() (struct{}, error) {
		ticker := time.NewTicker(g.cfg.LivenessInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if st.conn.IsClosed() {
					g.teardown(st)
					return struct{}{}, nil
				}
			case <-sess.Done():
				return struct{}{}, nil
			}
		}
	})
}

// teardown 一次性清理
// 先从注册表移出，再回写在线状态，最后释放出站管线。
func (g *Gateway) teardown(st *connState) {
	sess := st.session()
	if sess == nil {
		st.preAuthClose.Do(func() {
			st.handshakeTimer.Stop()
			st.sender.Close()
		})
		return
	}

	sess.Teardown(func() {
		g.registry.Remove(sess.ID())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.presence.Cleanup(ctx, sess); err != nil {
			g.logger.Error("presence cleanup failed",
				"session_id", sess.ID(),
				"user_id", sess.UserID(),
				"error", err,
			)
		}

		st.sender.Close()
		g.metrics.OnSessionClosed(st.conn.CloseCode())

		g.logger.Info("session closed",
			"session_id", sess.ID(),
			"user_id", sess.UserID(),
			"close_code", st.conn.CloseCode(),
		)
	})
}

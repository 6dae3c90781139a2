package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/intents"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/model"
	"github.com/google/uuid"
)

// State 会话状态
type State int32

const (
	// StateConnecting 已建立连接，等待身份帧
	StateConnecting State = iota
	// StateAuthenticating 身份帧已收到，校验中
	StateAuthenticating
	// StateReady 就绪序列进行中
	StateReady
	// StateActive 活跃，接收分发事件
	StateActive
	// StateClosing 清理中
	StateClosing
	// StateClosed 已关闭
	StateClosed
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Outbound 会话出站通道
// pipeline.Sender 实现该接口；测试中可用桩替代。
type Outbound interface {
	// SendEvent 发送分发事件（op 0，带事件名）
	SendEvent(t string, d interface{}) error

	// SendRaw 发送通用推送（op 1）
	SendRaw(d interface{}) error

	// Close 关闭出站通道并释放压缩流
	Close() error
}

// Session 一条已认证的网关会话
// ID 全局唯一且从不复用。joinedGuilds 同时被就绪序列和路由循环修改，
// 由会话互斥锁保护。
type Session struct {
	id      string
	user    *model.User
	intents intents.Set
	out     Outbound

	mu           sync.Mutex
	joinedGuilds map[int64]struct{}
	presence     *model.Presence
	lastActivity time.Time
	requestCount int

	state    atomic.Int32
	done     chan struct{}
	teardown sync.Once
}

// New 创建会话
// user 必须已脱敏。
func New(user *model.User, set intents.Set, out Outbound) *Session {
	s := &Session{
		id:           uuid.New().String(),
		user:         user,
		intents:      set,
		out:          out,
		joinedGuilds: make(map[int64]struct{}),
		lastActivity: time.Now(),
		done:         make(chan struct{}),
	}
	s.state.Store(int32(StateAuthenticating))
	return s
}

// ID 返回会话 ID
func (s *Session) ID() string {
	return s.id
}

// User 返回会话用户（已脱敏）
func (s *Session) User() *model.User {
	return s.user
}

// UserID 返回用户 ID
func (s *Session) UserID() int64 {
	return s.user.ID
}

// Intents 返回意图集合
func (s *Session) Intents() intents.Set {
	return s.intents
}

// Outbound 返回出站通道
func (s *Session) Outbound() Outbound {
	return s.out
}

// State 返回当前状态
func (s *Session) State() State {
	return State(s.state.Load())
}

// SetState 设置状态
func (s *Session) SetState(state State) {
	s.state.Store(int32(state))
}

// JoinGuild 记录加入服务器，已在集合中时返回 false
func (s *Session) JoinGuild(guildID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.joinedGuilds[guildID]; ok {
		return false
	}
	s.joinedGuilds[guildID] = struct{}{}
	return true
}

// LeaveGuild 移除服务器，不在集合中时为 no-op 并返回 false
func (s *Session) LeaveGuild(guildID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.joinedGuilds[guildID]; !ok {
		return false
	}
	delete(s.joinedGuilds, guildID)
	return true
}

// InGuild 检查是否在指定服务器中
func (s *Session) InGuild(guildID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.joinedGuilds[guildID]
	return ok
}

// GuildIDs 返回已加入服务器 ID 的快照
func (s *Session) GuildIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.joinedGuilds))
	for id := range s.joinedGuilds {
		ids = append(ids, id)
	}
	return ids
}

// SetPresence 缓存在线状态记录
func (s *Session) SetPresence(p *model.Presence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence = p
}

// Presence 返回缓存的在线状态记录（可能为 nil）
func (s *Session) Presence() *model.Presence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence
}

// RegisterFrame 记录一个入站帧并返回当前窗口内的帧计数
// 距上次活动超过 window 时窗口重置。
func (s *Session) RegisterFrame(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requestCount++
	if now.Sub(s.lastActivity) > window {
		s.requestCount = 0
	}
	s.lastActivity = now
	return s.requestCount
}

// Done 返回会话结束通知通道
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Teardown 执行一次性清理，后续调用为 no-op
func (s *Session) Teardown(fn func()) {
	s.teardown.Do(func() {
		s.SetState(StateClosing)
		if fn != nil {
			fn()
		}
		s.SetState(StateClosed)
		close(s.done)
	})
}

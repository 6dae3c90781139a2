package presence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	cerrors "github.com/cockroachdb/errors"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/model"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/session"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/store"
	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
)

// DefaultChannel 在线状态变更发布的默认频道
const DefaultChannel = "gateway"

// Publisher 在线状态变更发布方
// pkg/database/redis 的 Client 实现该接口。
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// announcement 在线状态变更的发布载荷
// 与路由器消费的分发信封同构（type 7），由路由器统一扇出。
type announcement struct {
	Type   int         `json:"type"`
	UserID int64       `json:"user_id"`
	Data   interface{} `json:"data"`
}

// Manager 在线状态管理器
// 负责会话上线时的状态核对和断开时的状态清理，
// 所有变更通过 Publisher 广播，由路由器扇出给相关会话。
type Manager struct {
	store     store.Store
	publisher Publisher
	logger    logger.Logger
	channel   string
	now       func() time.Time
}

// NewManager 创建在线状态管理器
func NewManager(s store.Store, p Publisher, l logger.Logger) *Manager {
	return &Manager{
		store:     s,
		publisher: p,
		logger:    l.Named("presence"),
		channel:   DefaultChannel,
		now:       time.Now,
	}
}

// Reconcile 会话上线时核对在线状态
// 无记录时创建并广播；记录存在且 stay_offline 为真时不动、不广播；
// 否则置为 online 并广播。无论哪种情况，记录都缓存到会话上，
// 供 Cleanup 判断是否需要回写。
func (m *Manager) Reconcile(ctx context.Context, sess *session.Session) error {
	userID := sess.UserID()

	p, err := m.store.GetPresence(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return cerrors.Wrap(err, "presence: lookup failed")
		}

		since := m.now().Unix()
		p = &model.Presence{
			UserID: userID,
			Since:  &since,
			Status: model.StatusOnline,
		}
		if err := m.store.PutPresence(ctx, p); err != nil {
			return cerrors.Wrap(err, "presence: create failed")
		}
		sess.SetPresence(p)
		return m.announce(ctx, p)
	}

	if p.StayOffline {
		// 用户主动隐身，不动也不广播
		sess.SetPresence(p)
		m.logger.Debug("presence stays offline", "user_id", userID)
		return nil
	}

	p.Status = model.StatusOnline
	if err := m.store.PutPresence(ctx, p); err != nil {
		return cerrors.Wrap(err, "presence: update failed")
	}
	sess.SetPresence(p)
	return m.announce(ctx, p)
}

// Cleanup 会话断开时清理在线状态
// 记录已是 offline 时直接返回，重复调用只产生一次广播。
func (m *Manager) Cleanup(ctx context.Context, sess *session.Session) error {
	p := sess.Presence()
	if p == nil || p.Status == model.StatusOffline {
		return nil
	}

	p.Status = model.StatusOffline
	if err := m.store.PutPresence(ctx, p); err != nil {
		return cerrors.Wrap(err, "presence: offline update failed")
	}
	return m.announce(ctx, p)
}

// announce 广播在线状态变更
func (m *Manager) announce(ctx context.Context, p *model.Presence) error {
	raw, err := json.Marshal(announcement{
		Type:   7,
		UserID: p.UserID,
		Data:   p.Payload(),
	})
	if err != nil {
		return cerrors.Wrap(err, "presence: marshal announcement")
	}
	if err := m.publisher.Publish(ctx, m.channel, raw); err != nil {
		return cerrors.Wrap(err, "presence: publish failed")
	}
	m.logger.Debug("presence announced", "user_id", p.UserID, "status", p.Status)
	return nil
}

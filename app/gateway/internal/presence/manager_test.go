package presence

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/intents"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/model"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/session"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/store"
	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	messages [][]byte
}

func (p *capturePublisher) Publish(_ context.Context, _ string, message interface{}) error {
	p.messages = append(p.messages, message.([]byte))
	return nil
}

type nopOutbound struct{}

func (nopOutbound) SendEvent(string, interface{}) error { return nil }
func (nopOutbound) SendRaw(interface{}) error           { return nil }
func (nopOutbound) Close() error                        { return nil }

func newManager(t *testing.T) (*Manager, *store.MemoryStore, *capturePublisher) {
	t.Helper()
	s := store.NewMemoryStore()
	p := &capturePublisher{}
	return NewManager(s, p, logger.NewNoop()), s, p
}

func newTestSession(userID int64) *session.Session {
	return session.New(&model.User{ID: userID}, intents.Decode(0), nopOutbound{})
}

func decodeAnnouncement(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestReconcileCreatesRecord(t *testing.T) {
	m, s, p := newManager(t)
	sess := newTestSession(42)

	require.NoError(t, m.Reconcile(context.Background(), sess))

	stored, err := s.GetPresence(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, stored.Status)

	require.Len(t, p.messages, 1)
	msg := decodeAnnouncement(t, p.messages[0])
	assert.Equal(t, float64(7), msg["type"])
	assert.Equal(t, float64(42), msg["user_id"])

	require.NotNil(t, sess.Presence())
}

func TestReconcileStayOffline(t *testing.T) {
	m, s, p := newManager(t)
	sess := newTestSession(42)

	require.NoError(t, s.PutPresence(context.Background(), &model.Presence{
		UserID:      42,
		Status:      model.StatusOffline,
		StayOffline: true,
	}))

	require.NoError(t, m.Reconcile(context.Background(), sess))

	stored, err := s.GetPresence(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, stored.Status, "record must stay untouched")
	assert.Empty(t, p.messages, "no announcement for a deliberately offline user")

	// 记录仍缓存到会话上，Cleanup 才能判断无需回写
	require.NotNil(t, sess.Presence())
}

func TestReconcileFlipsOnline(t *testing.T) {
	m, s, p := newManager(t)
	sess := newTestSession(42)

	require.NoError(t, s.PutPresence(context.Background(), &model.Presence{
		UserID: 42,
		Status: model.StatusOffline,
	}))

	require.NoError(t, m.Reconcile(context.Background(), sess))

	stored, err := s.GetPresence(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, stored.Status)
	require.Len(t, p.messages, 1)
}

func TestAnnouncementStripsStayOffline(t *testing.T) {
	m, s, p := newManager(t)
	sess := newTestSession(42)

	require.NoError(t, s.PutPresence(context.Background(), &model.Presence{
		UserID: 42,
		Status: model.StatusOffline,
	}))
	require.NoError(t, m.Reconcile(context.Background(), sess))

	require.Len(t, p.messages, 1)
	msg := decodeAnnouncement(t, p.messages[0])
	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, data, "stay_offline")
}

func TestCleanupIdempotent(t *testing.T) {
	m, s, p := newManager(t)
	sess := newTestSession(42)

	require.NoError(t, m.Reconcile(context.Background(), sess))
	require.Len(t, p.messages, 1)

	require.NoError(t, m.Cleanup(context.Background(), sess))
	require.NoError(t, m.Cleanup(context.Background(), sess))
	require.NoError(t, m.Cleanup(context.Background(), sess))

	assert.Len(t, p.messages, 2, "repeated cleanup announces once")

	stored, err := s.GetPresence(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, stored.Status)
}

func TestCleanupSkipsStickyOffline(t *testing.T) {
	m, s, p := newManager(t)
	sess := newTestSession(42)

	require.NoError(t, s.PutPresence(context.Background(), &model.Presence{
		UserID:      42,
		Status:      model.StatusOffline,
		StayOffline: true,
	}))
	require.NoError(t, m.Reconcile(context.Background(), sess))

	require.NoError(t, m.Cleanup(context.Background(), sess))
	assert.Empty(t, p.messages)
}

func TestCleanupWithoutReconcile(t *testing.T) {
	m, _, p := newManager(t)
	sess := newTestSession(42)

	require.NoError(t, m.Cleanup(context.Background(), sess))
	assert.Empty(t, p.messages)
}

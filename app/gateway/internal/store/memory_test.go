package store

import (
	"context"
	"testing"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetUserByID(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	s.PutUser(&model.User{ID: 1, Username: "maya"})

	u, err := s.GetUserByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "maya", u.Username)
}

func TestMemoryStoreMembership(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ids, err := s.GetMemberGuildIDs(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)

	s.AddMember(1, 10)
	s.AddMember(1, 20)

	ids, err = s.GetMemberGuildIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20}, ids)
}

func TestMemoryStorePresence(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetPresence(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.PutPresence(ctx, &model.Presence{UserID: 1, Status: model.StatusOnline}))

	p, err := s.GetPresence(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, p.Status)

	// 返回的是副本，修改不影响存储
	p.Status = model.StatusOffline
	again, err := s.GetPresence(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, again.Status)
}

package store

import (
	"context"
	"sync"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/model"
)

// MemoryStore Store 的内存实现，用于测试和本地开发
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[int64]*model.User
	guilds    map[int64]*model.Guild
	members   map[int64][]int64 // user id -> guild ids
	presences map[int64]*model.Presence
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[int64]*model.User),
		guilds:    make(map[int64]*model.Guild),
		members:   make(map[int64][]int64),
		presences: make(map[int64]*model.Presence),
	}
}

// PutUser 写入用户
func (s *MemoryStore) PutUser(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutGuild 写入服务器
func (s *MemoryStore) PutGuild(g *model.Guild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds[g.ID] = g
}

// AddMember 记录用户加入服务器
func (s *MemoryStore) AddMember(userID, guildID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[userID] = append(s.members[userID], guildID)
}

// GetUserByID 按 ID 获取用户
func (s *MemoryStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

// GetGuild 按 ID 获取服务器
func (s *MemoryStore) GetGuild(ctx context.Context, id int64) (*model.Guild, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.guilds[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *g
	return &clone, nil
}

// GetMemberGuildIDs 获取用户加入的所有服务器 ID
func (s *MemoryStore) GetMemberGuildIDs(ctx context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.members[userID]
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}

// GetPresence 获取用户在线状态
func (s *MemoryStore) GetPresence(ctx context.Context, userID int64) (*model.Presence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presences[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// PutPresence 写入用户在线状态
func (s *MemoryStore) PutPresence(ctx context.Context, p *model.Presence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.presences[p.UserID] = p.Clone()
	return nil
}

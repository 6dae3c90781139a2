package store

import (
	"context"
	"fmt"
	"time"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/model"
	"github.com/concordchat-legacy/concord-gateway/pkg/cache/lru"
	"golang.org/x/sync/singleflight"
)

// CachedStore Store 的读穿缓存装饰器
// 用户和服务器记录带 TTL 缓存；在线状态必须保持新鲜，不缓存。
// 并发的同键未命中会合并为一次底层查询。
type CachedStore struct {
	inner  Store
	users  *lru.LRU[int64, *model.User]
	guilds *lru.LRU[int64, *model.Guild]
	group  singleflight.Group
}

// NewCachedStore 创建读穿缓存
func NewCachedStore(inner Store) *CachedStore {
	return &CachedStore{
		inner: inner,
		users: lru.New[int64, *model.User](&lru.Config{
			MaxSize:         4096,
			DefaultTTL:      time.Minute,
			CleanupInterval: time.Minute,
		}),
		guilds: lru.New[int64, *model.Guild](&lru.Config{
			MaxSize:         4096,
			DefaultTTL:      5 * time.Minute,
			CleanupInterval: time.Minute,
		}),
	}
}

// GetUserByID 按 ID 获取用户，命中缓存时不访问底层存储
func (s *CachedStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if u, ok := s.users.Get(id); ok {
		clone := *u
		return &clone, nil
	}

	v, err, _ := s.group.Do(fmt.Sprintf("user:%d", id), func() (interface{}, error) {
		u, err := s.inner.GetUserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		clone := *u
		s.users.Set(id, &clone)
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	clone := *v.(*model.User)
	return &clone, nil
}

// GetGuild 按 ID 获取服务器
func (s *CachedStore) GetGuild(ctx context.Context, id int64) (*model.Guild, error) {
	if g, ok := s.guilds.Get(id); ok {
		clone := *g
		return &clone, nil
	}

	v, err, _ := s.group.Do(fmt.Sprintf("guild:%d", id), func() (interface{}, error) {
		g, err := s.inner.GetGuild(ctx, id)
		if err != nil {
			return nil, err
		}
		clone := *g
		s.guilds.Set(id, &clone)
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	clone := *v.(*model.Guild)
	return &clone, nil
}

// GetMemberGuildIDs 成员关系随时变化，直接透传
func (s *CachedStore) GetMemberGuildIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.inner.GetMemberGuildIDs(ctx, userID)
}

// GetPresence 在线状态直接透传
func (s *CachedStore) GetPresence(ctx context.Context, userID int64) (*model.Presence, error) {
	return s.inner.GetPresence(ctx, userID)
}

// PutPresence 在线状态直接透传
func (s *CachedStore) PutPresence(ctx context.Context, p *model.Presence) error {
	return s.inner.PutPresence(ctx, p)
}

// Close 释放缓存
func (s *CachedStore) Close() error {
	if err := s.users.Close(); err != nil {
		return err
	}
	return s.guilds.Close()
}

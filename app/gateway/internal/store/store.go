package store

import (
	"context"
	"errors"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("store: not found")

// Store 网关所需的持久层访问接口
type Store interface {
	// GetUserByID 按 ID 获取用户（含机密字段，调用方负责脱敏）
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	// GetGuild 按 ID 获取服务器
	GetGuild(ctx context.Context, id int64) (*model.Guild, error)

	// GetMemberGuildIDs 获取用户加入的所有服务器 ID
	GetMemberGuildIDs(ctx context.Context, userID int64) ([]int64, error)

	// GetPresence 获取用户在线状态，不存在时返回 ErrNotFound
	GetPresence(ctx context.Context, userID int64) (*model.Presence, error)

	// PutPresence 写入（插入或覆盖）用户在线状态
	PutPresence(ctx context.Context, p *model.Presence) error
}

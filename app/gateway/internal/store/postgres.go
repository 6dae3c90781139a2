package store

import (
	"context"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/model"
	"github.com/concordchat-legacy/concord-gateway/pkg/database/postgres"
	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
)

// PostgresStore Store 的 PostgreSQL 实现
type PostgresStore struct {
	db     *postgres.Client
	logger logger.Logger
}

// NewPostgresStore 创建 PostgreSQL 存储
func NewPostgresStore(db *postgres.Client, l logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: l.Named("store.postgres"),
	}
}

// GetUserByID 按 ID 获取用户
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query, args, err := squirrel.
		Select("id", "username", "discriminator", "email", "password",
			"verification_code", "flags", "avatar", "banner", "locale",
			"bio", "joined_at", "verified", "system").
		From("users").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build user query")
	}

	var u model.User
	if err := s.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Username,
		&u.Discriminator,
		&u.Email,
		&u.Password,
		&u.VerificationCode,
		&u.Flags,
		&u.Avatar,
		&u.Banner,
		&u.Locale,
		&u.Bio,
		&u.JoinedAt,
		&u.Verified,
		&u.System,
	); err != nil {
		if postgres.IsNoRows(err) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to get user", "user_id", id, "error", err)
		return nil, errors.Wrap(err, "failed to get user")
	}

	return &u, nil
}

// GetGuild 按 ID 获取服务器
func (s *PostgresStore) GetGuild(ctx context.Context, id int64) (*model.Guild, error) {
	query, args, err := squirrel.
		Select("id", "name", "description", "vanity_url", "icon", "banner",
			"owner_id", "nsfw", "large", "preferred_locale", "permissions", "splash").
		From("guilds").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build guild query")
	}

	var g model.Guild
	if err := s.db.QueryRow(ctx, query, args...).Scan(
		&g.ID,
		&g.Name,
		&g.Description,
		&g.VanityURL,
		&g.Icon,
		&g.Banner,
		&g.OwnerID,
		&g.NSFW,
		&g.Large,
		&g.PreferredLocale,
		&g.Permissions,
		&g.Splash,
	); err != nil {
		if postgres.IsNoRows(err) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to get guild", "guild_id", id, "error", err)
		return nil, errors.Wrap(err, "failed to get guild")
	}

	return &g, nil
}

// GetMemberGuildIDs 获取用户加入的所有服务器 ID
func (s *PostgresStore) GetMemberGuildIDs(ctx context.Context, userID int64) ([]int64, error) {
	query, args, err := squirrel.
		Select("guild_id").
		From("members").
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build member query")
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to list member guilds", "user_id", userID, "error", err)
		return nil, errors.Wrap(err, "failed to list member guilds")
	}
	defer rows.Close()

	var guildIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan guild id")
		}
		guildIDs = append(guildIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate member guilds")
	}

	return guildIDs, nil
}

// GetPresence 获取用户在线状态
func (s *PostgresStore) GetPresence(ctx context.Context, userID int64) (*model.Presence, error) {
	query, args, err := squirrel.
		Select("user_id", "since", "activity", "status", "afk", "stay_offline").
		From("presences").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build presence query")
	}

	var (
		p            model.Presence
		activityJSON []byte
	)
	if err := s.db.QueryRow(ctx, query, args...).Scan(
		&p.UserID,
		&p.Since,
		&activityJSON,
		&p.Status,
		&p.AFK,
		&p.StayOffline,
	); err != nil {
		if postgres.IsNoRows(err) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to get presence", "user_id", userID, "error", err)
		return nil, errors.Wrap(err, "failed to get presence")
	}

	if len(activityJSON) > 0 {
		var activity model.Activity
		if err := json.Unmarshal(activityJSON, &activity); err != nil {
			return nil, errors.Wrap(err, "failed to decode presence activity")
		}
		p.Activity = &activity
	}

	return &p, nil
}

// PutPresence 写入用户在线状态
func (s *PostgresStore) PutPresence(ctx context.Context, p *model.Presence) error {
	var activityJSON []byte
	if p.Activity != nil {
		data, err := json.Marshal(p.Activity)
		if err != nil {
			return errors.Wrap(err, "failed to encode presence activity")
		}
		activityJSON = data
	}

	query, args, err := squirrel.
		Insert("presences").
		Columns("user_id", "since", "activity", "status", "afk", "stay_offline").
		Values(p.UserID, p.Since, activityJSON, p.Status, p.AFK, p.StayOffline).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			since = EXCLUDED.since,
			activity = EXCLUDED.activity,
			status = EXCLUDED.status,
			afk = EXCLUDED.afk,
			stay_offline = EXCLUDED.stay_offline`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build presence upsert")
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		s.logger.Error("failed to put presence", "user_id", p.UserID, "error", err)
		return errors.Wrap(err, "failed to put presence")
	}

	return nil
}

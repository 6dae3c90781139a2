package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	cerrors "github.com/cockroachdb/errors"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/model"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/store"
	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
)

var (
	// ErrMalformedToken 令牌格式无效
	ErrMalformedToken = errors.New("auth: malformed token")

	// ErrUnknownUser 令牌中的用户不存在
	ErrUnknownUser = errors.New("auth: unknown user")

	// ErrBadSignature 令牌签名无效
	ErrBadSignature = errors.New("auth: bad signature")
)

// 令牌可选前缀
var tokenPrefixes = []string{"Bot ", "User "}

// Verifier 令牌校验器
// 令牌由外部账号服务签发，网关只做校验，不签发。
type Verifier struct {
	store  store.Store
	logger logger.Logger
}

// NewVerifier 创建令牌校验器
func NewVerifier(s store.Store, l logger.Logger) *Verifier {
	return &Verifier{
		store:  s,
		logger: l.Named("auth"),
	}
}

// Verify 校验令牌并返回脱敏后的用户
// 失败时区分三类错误：格式无效、用户不存在、签名不符。
func (v *Verifier) Verify(ctx context.Context, token string) (*model.User, error) {
	for _, prefix := range tokenPrefixes {
		if strings.HasPrefix(token, prefix) {
			token = strings.TrimPrefix(token, prefix)
			break
		}
	}

	fragments := strings.Split(token, ".")
	if len(fragments) != 3 {
		return nil, ErrMalformedToken
	}

	rawID, err := base64.StdEncoding.DecodeString(fragments[0])
	if err != nil {
		return nil, ErrMalformedToken
	}
	userID, err := strconv.ParseInt(string(rawID), 10, 64)
	if err != nil {
		return nil, ErrMalformedToken
	}

	user, err := v.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, cerrors.Wrap(err, "auth: user lookup failed")
	}

	value, signature, ok := splitToken(token)
	if !ok || !verifySignature(user.Password, value, signature) {
		v.logger.Warn("token signature mismatch", "user_id", userID)
		return nil, ErrBadSignature
	}

	// 机密字段不出 auth 包
	return user.Sanitized(), nil
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/model"
	"github.com/concordchat-legacy/concord-gateway/app/gateway/internal/store"
	"github.com/concordchat-legacy/concord-gateway/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T) (*Verifier, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	return NewVerifier(s, logger.NewNoop()), s
}

func TestVerifyValidToken(t *testing.T) {
	v, s := newVerifier(t)
	s.PutUser(&model.User{ID: 42, Username: "maya", Password: "secret-key"})

	token := SignToken(42, "secret-key", time.Now().Unix())

	u, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ID)
	assert.Empty(t, u.Password, "secrets must be stripped")
}

func TestVerifyPrefixes(t *testing.T) {
	v, s := newVerifier(t)
	s.PutUser(&model.User{ID: 42, Password: "secret-key"})

	token := SignToken(42, "secret-key", time.Now().Unix())

	for _, prefix := range []string{"Bot ", "User ", ""} {
		u, err := v.Verify(context.Background(), prefix+token)
		require.NoError(t, err, "prefix %q", prefix)
		assert.Equal(t, int64(42), u.ID)
	}
}

func TestVerifyMalformed(t *testing.T) {
	v, s := newVerifier(t)
	s.PutUser(&model.User{ID: 42, Password: "secret-key"})

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no dots", "abcdef"},
		{"two fragments", "NDI.only"},
		{"id not base64", "!!!.ts.sig"},
		{"id not numeric", "bm90YW51bWJlcg.ts.sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestVerifyUnknownUser(t *testing.T) {
	v, _ := newVerifier(t)

	token := SignToken(99, "whatever", time.Now().Unix())
	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestVerifyBadSignature(t *testing.T) {
	v, s := newVerifier(t)
	s.PutUser(&model.User{ID: 42, Password: "secret-key"})

	// 用错误的密钥签发
	token := SignToken(42, "wrong-key", time.Now().Unix())
	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrBadSignature)

	// 篡改签名
	token = SignToken(42, "secret-key", time.Now().Unix())
	_, err = v.Verify(context.Background(), token+"x")
	assert.ErrorIs(t, err, ErrBadSignature)
}

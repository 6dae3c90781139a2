package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strconv"
	"strings"
)

// 签名密钥派生参数（与外部账号服务的签发方案保持一致）
const (
	signerSalt = "itsdangerous.Signer"
	signerKind = "signer"
)

// deriveKey 从用户密钥派生 HMAC 签名密钥
func deriveKey(secret string) []byte {
	h := sha1.New()
	h.Write([]byte(signerSalt))
	h.Write([]byte(signerKind))
	h.Write([]byte(secret))
	return h.Sum(nil)
}

// sign 计算 value 的签名
func sign(secret, value string) string {
	mac := hmac.New(sha1.New, deriveKey(secret))
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verifySignature 校验签名（恒定时间比较）
func verifySignature(secret, value, signature string) bool {
	want, err := base64.RawURLEncoding.DecodeString(sign(secret, value))
	if err != nil {
		return false
	}
	got, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}

// SignToken 签发用户令牌（测试和工具使用）
// 形如 <base64 user-id>.<timestamp>.<signature>。
func SignToken(userID int64, secret string, timestamp int64) string {
	id := base64.StdEncoding.EncodeToString([]byte(strconv.FormatInt(userID, 10)))
	ts := base64.RawURLEncoding.EncodeToString(encodeInt(timestamp))
	value := id + "." + ts
	return value + "." + sign(secret, value)
}

// encodeInt 将时间戳编码为大端字节（去除前导零）
func encodeInt(n int64) []byte {
	if n == 0 {
		return []byte{0}
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte(n & 0xff)}, buf...)
		n >>= 8
	}
	return buf
}

// splitToken 拆分令牌为值和签名两部分
func splitToken(token string) (value, signature string, ok bool) {
	idx := strings.LastIndex(token, ".")
	if idx < 0 {
		return "", "", false
	}
	return token[:idx], token[idx+1:], true
}

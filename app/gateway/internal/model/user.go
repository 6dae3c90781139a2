package model

import "time"

// User 用户记录
// Password 和 VerificationCode 属于机密字段，出站前必须经过 Sanitized。
type User struct {
	ID               int64     `json:"id,string"`
	Username         string    `json:"username"`
	Discriminator    int       `json:"discriminator"`
	Email            string    `json:"email"`
	Password         string    `json:"password,omitempty"`
	VerificationCode string    `json:"verification_code,omitempty"`
	Flags            int       `json:"flags"`
	Avatar           string    `json:"avatar"`
	Banner           string    `json:"banner"`
	Locale           string    `json:"locale"`
	Bio              string    `json:"bio"`
	JoinedAt         time.Time `json:"joined_at"`
	Verified         bool      `json:"verified"`
	System           bool      `json:"system"`
}

// Sanitized 返回清除机密字段后的副本
func (u *User) Sanitized() *User {
	clone := *u
	clone.Password = ""
	clone.VerificationCode = ""
	return &clone
}

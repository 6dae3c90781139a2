package model

import "time"

// 在线状态取值
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Activity 用户当前活动
type Activity struct {
	Name      string    `json:"name"`
	Type      int       `json:"type"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Emoji     string    `json:"emoji,omitempty"`
}

// Presence 在线状态记录
// StayOffline 为粘性标志：用户主动隐身时置位，会话上线不得覆盖。
type Presence struct {
	UserID      int64     `json:"user_id,string"`
	Since       *int64    `json:"since"`
	Activity    *Activity `json:"activity"`
	Status      string    `json:"status"`
	AFK         bool      `json:"afk"`
	StayOffline bool      `json:"stay_offline"`
}

// Payload 返回出站载荷，粘性标志不外泄
func (p *Presence) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  p.UserID,
		"since":    p.Since,
		"activity": p.Activity,
		"status":   p.Status,
		"afk":      p.AFK,
	}
}

// Clone 返回副本
func (p *Presence) Clone() *Presence {
	clone := *p
	if p.Since != nil {
		since := *p.Since
		clone.Since = &since
	}
	if p.Activity != nil {
		activity := *p.Activity
		clone.Activity = &activity
	}
	return &clone
}

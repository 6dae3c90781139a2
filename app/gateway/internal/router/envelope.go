package router

import "encoding/json"

// 信封类型
const (
	TypeUser     = 1 // 用户级事件
	TypeGuild    = 2 // 服务器级事件
	TypeChannel  = 3 // 频道/消息事件
	TypeFriend   = 5 // 好友请求事件
	TypeMember   = 6 // 成员事件
	TypePresence = 7 // 在线状态变更
)

// Recipient 私聊频道的接收方
type Recipient struct {
	ID int64 `json:"id"`
}

// Channel 信封携带的频道信息，仅私聊事件需要
type Channel struct {
	Recipients []Recipient `json:"recipients"`
}

// Envelope 上游发布的分发信封
// data 原样透传给会话，路由只看路由字段。
type Envelope struct {
	Type        int             `json:"type"`
	Name        string          `json:"name"`
	Data        json.RawMessage `json:"data"`
	UserID      *int64          `json:"user_id"`
	GuildID     *int64          `json:"guild_id"`
	ReceiverID  *int64          `json:"receiver_id"`
	RequesterID *int64          `json:"requester_id"`
	IsMessage   bool            `json:"is_message"`
	Channel     *Channel        `json:"channel"`
}

// dataFields 需要从 data 中提取的路由字段
type dataFields struct {
	UserID *int64 `json:"user_id"`
}

// dataUserID 提取 data.user_id，缺失时返回 false
func (e *Envelope) dataUserID() (int64, bool) {
	if len(e.Data) == 0 {
		return 0, false
	}
	var f dataFields
	if err := json.Unmarshal(e.Data, &f); err != nil || f.UserID == nil {
		return 0, false
	}
	return *f.UserID, true
}

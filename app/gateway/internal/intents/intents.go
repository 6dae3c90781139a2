package intents

// 意图位，自最低位起
const (
	BitDirectMessages uint64 = 1 << 0
	BitPresences      uint64 = 1 << 1
	BitGuilds         uint64 = 1 << 2
	BitGuildChannels  uint64 = 1 << 3
	BitGuildMembers   uint64 = 1 << 4
	BitGuildMessages  uint64 = 1 << 5
)

// Set 解码后的意图集合
// 全零表示静默模式：会话保持连接但不接收任何分发事件。
type Set struct {
	DirectMessages bool
	Presences      bool
	Guilds         bool
	GuildChannels  bool
	GuildMembers   bool
	GuildMessages  bool
}

// Decode 解码意图位掩码
// 未定义的高位被忽略。
func Decode(mask uint64) Set {
	return Set{
		DirectMessages: mask&BitDirectMessages != 0,
		Presences:      mask&BitPresences != 0,
		Guilds:         mask&BitGuilds != 0,
		GuildChannels:  mask&BitGuildChannels != 0,
		GuildMembers:   mask&BitGuildMembers != 0,
		GuildMessages:  mask&BitGuildMessages != 0,
	}
}

// Silent 是否为静默模式
func (s Set) Silent() bool {
	return s == Set{}
}

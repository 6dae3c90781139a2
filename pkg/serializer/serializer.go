// Package serializer 提供消息序列化抽象。
// 网关对外协议为 JSON 文本帧，默认实现为 JSON。
package serializer

// Serializer 序列化器接口
type Serializer interface {
	// Serialize 序列化为字节
	Serialize(v interface{}) ([]byte, error)
	// Deserialize 反序列化
	Deserialize(data []byte, v interface{}) error
	// Name 返回序列化器名称
	Name() string
}

var defaultSerializer Serializer = NewJSON()

// Default 返回默认序列化器
func Default() Serializer {
	return defaultSerializer
}

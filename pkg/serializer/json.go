package serializer

import "encoding/json"

// JSONSerializer JSON 序列化实现
type JSONSerializer struct{}

// NewJSON 创建 JSON 序列化器
func NewJSON() *JSONSerializer {
	return &JSONSerializer{}
}

// Serialize 序列化为 JSON 字节
func (s *JSONSerializer) Serialize(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Deserialize 反序列化 JSON 字节
func (s *JSONSerializer) Deserialize(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Name 返回名称
func (s *JSONSerializer) Name() string {
	return "json"
}

// pkg/compress/none.go
package compress

// noneStream 不压缩的透传实现
type noneStream struct{}

// Compress 原样返回数据
func (s *noneStream) Compress(src []byte) ([]byte, error) {
	return src, nil
}

// Close 空实现
func (s *noneStream) Close() error {
	return nil
}

// Name 返回压缩算法名称
func (s *noneStream) Name() string {
	return string(TypeNone)
}

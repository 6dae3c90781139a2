package config

import (
	"fmt"
	"reflect"
)

// MergeConfig 合并配置
// - 如果 dst 和 src 都为 nil，返回错误
// - 如果 dst 为 nil，返回 src
// - 如果 src 为 nil，返回 dst
// - 如果都不为 nil，src 的非零值覆盖 dst 的值，返回合并后的 dst
func MergeConfig[T any](dst, src *T) (*T, error) {
	if dst == nil && src == nil {
		return nil, fmt.Errorf("both dst and src cannot be nil")
	}
	if dst == nil {
		return src, nil
	}
	if src == nil {
		return dst, nil
	}

	dstValue := reflect.ValueOf(dst).Elem()
	srcValue := reflect.ValueOf(src).Elem()

	if err := mergeValues(dstValue, srcValue); err != nil {
		return nil, err
	}

	return dst, nil
}

// mergeValues 递归合并两个 reflect.Value
func mergeValues(dst, src reflect.Value) error {
	// src 是零值时不覆盖
	if !src.IsValid() || src.IsZero() {
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		return mergeStruct(dst, src)
	case reflect.Map:
		return mergeMap(dst, src)
	case reflect.Ptr:
		return mergePointer(dst, src)
	default:
		// 基本类型与 slice 直接覆盖
		if dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

// mergeStruct 逐字段合并结构体
func mergeStruct(dst, src reflect.Value) error {
	if src.Kind() != reflect.Struct {
		return fmt.Errorf("src is not a struct")
	}

	srcType := src.Type()
	for i := 0; i < src.NumField(); i++ {
		fieldType := srcType.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		dstField := dst.FieldByName(fieldType.Name)
		if !dstField.IsValid() || !dstField.CanSet() {
			continue
		}

		if err := mergeValues(dstField, src.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

// mergeMap 合并 map，src 的键覆盖 dst 的键
func mergeMap(dst, src reflect.Value) error {
	if src.Kind() != reflect.Map {
		return fmt.Errorf("src is not a map")
	}
	if dst.IsNil() {
		dst.Set(reflect.MakeMap(dst.Type()))
	}
	for _, key := range src.MapKeys() {
		dst.SetMapIndex(key, src.MapIndex(key))
	}
	return nil
}

// mergePointer 合并指针，按需解引用递归
func mergePointer(dst, src reflect.Value) error {
	if src.IsNil() {
		return nil
	}
	if dst.IsNil() {
		dst.Set(src)
		return nil
	}
	return mergeValues(dst.Elem(), src.Elem())
}

package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// BytesMD5 计算字节数组MD5
func BytesMD5(data []byte) string {
	hash := md5.Sum(data)
	return hex.EncodeToString(hash[:])
}

// ETag 为响应内容生成强校验 ETag
func ETag(data []byte) string {
	return `"` + BytesMD5(data) + `"`
}

package utils

import (
	"time"

	"github.com/google/uuid"
)

// GenerateID 生成基于时间戳的ID
func GenerateID() int64 {
	return time.Now().UnixNano()
}

// RequestID 生成请求ID
func RequestID() string {
	return uuid.NewString()
}

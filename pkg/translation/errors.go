package translation

import (
	"errors"
	"fmt"
)

// 预定义错误
var (
	// ErrEmptyBatch 空批次
	ErrEmptyBatch = errors.New("empty batch")

	// ErrCountMismatch 响应条目数与请求不一致
	ErrCountMismatch = errors.New("translated count does not match request")
)

// BatchError 单批次翻译失败（所有重试耗尽后记录在 BatchResult.Err 上，
// 永远不会向流水线上层传播）
type BatchError struct {
	BatchIndex int   // 批次序号
	Attempts   int   // 已发起的请求次数
	Cause      error // 最后一次失败的原因
}

// Error 实现 error 接口
func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d failed after %d attempts: %v", e.BatchIndex, e.Attempts, e.Cause)
}

// Unwrap 返回原因错误
func (e *BatchError) Unwrap() error {
	return e.Cause
}

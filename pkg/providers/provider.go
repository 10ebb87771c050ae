package providers

import (
	"context"
	"time"
)

// BaseConfig 提供商基础配置
type BaseConfig struct {
	// API配置
	APIKey      string `json:"api_key,omitempty"`
	APIEndpoint string `json:"api_endpoint,omitempty"`

	// 单次请求的硬超时
	Timeout time.Duration `json:"timeout"`

	// 自定义头部
	Headers map[string]string `json:"headers,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() BaseConfig {
	return BaseConfig{
		Timeout: 3 * time.Minute,
		Headers: make(map[string]string),
	}
}

// BatchProvider 批量翻译提供商接口。
// 一次调用对应一次网络请求（单次尝试，不含重试——重试和回退由上层
// 翻译客户端负责）。实现必须保证返回的译文与 texts 等长且顺序一致，
// 条目数不一致时返回错误而不是截断或填充。
type BatchProvider interface {
	// TranslateBatch 翻译一批文本
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)

	// GetName 获取提供商名称
	GetName() string
}

// Error 提供商错误
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewError 创建提供商错误
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

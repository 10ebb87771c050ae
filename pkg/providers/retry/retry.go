package retry

import (
	"context"
	"math"
	"time"
)

// Config 重试配置
type Config struct {
	// Limit 重试次数上限（不含首次尝试）
	Limit int `json:"limit"`

	// InitialDelay 首次重试前的延迟
	InitialDelay time.Duration `json:"initial_delay"`

	// MaxDelay 延迟上限
	MaxDelay time.Duration `json:"max_delay"`

	// BackoffFactor 退避因子（指数退避，逐次翻倍即 2.0）
	BackoffFactor float64 `json:"backoff_factor"`
}

// DefaultConfig 返回默认重试配置
func DefaultConfig() Config {
	return Config{
		Limit:         4,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Delay 计算第 retryCount 次重试前的延迟（retryCount 从 0 开始），
// 指数增长并受 MaxDelay 封顶
func (c Config) Delay(retryCount int) time.Duration {
	delay := c.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}

	factor := c.BackoffFactor
	if factor <= 1.0 {
		factor = 2.0
	}

	if retryCount > 0 {
		delay = time.Duration(float64(delay) * math.Pow(factor, float64(retryCount)))
	}

	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}

	return delay
}

// AttemptFunc 单次尝试
type AttemptFunc func(ctx context.Context) error

// Do 执行 1 次初始尝试 + 最多 Limit 次重试，每次失败后按退避延迟等待。
// 任何失败（超时、非 2xx、响应不匹配、传输错误）都视为可重试；
// 上下文取消会中止等待并立即返回。
// 返回最后一次的错误和实际发起的尝试次数。
func Do(ctx context.Context, cfg Config, fn AttemptFunc) (attempts int, err error) {
	for attempt := 0; attempt <= cfg.Limit; attempt++ {
		if ctx.Err() != nil {
			return attempts, ctx.Err()
		}

		attempts++
		err = fn(ctx)
		if err == nil {
			return attempts, nil
		}

		// 最后一次失败后不再等待
		if attempt == cfg.Limit {
			break
		}

		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		case <-time.After(cfg.Delay(attempt)):
		}
	}

	return attempts, err
}

package translation

import (
	"context"
	"time"

	"github.com/nerdneilsfield/docx-translator/pkg/providers"
	"github.com/nerdneilsfield/docx-translator/pkg/providers/retry"
	"go.uber.org/zap"
)

// Client 批次翻译客户端。
// 把一个批次交给提供商翻译：每次尝试施加硬超时，失败（超时、非 2xx、
// 响应条目数不符、传输错误）按指数退避重试；重试耗尽后整批回退为原文。
// 翻译失败永远不会越过 Client 向上传播——调用方只会看到 BatchResult，
// Outcome 标志是失败留下的唯一痕迹。
type Client struct {
	provider   providers.BatchProvider
	retryCfg   retry.Config
	timeout    time.Duration
	sourceLang string
	targetLang string
	logger     *zap.Logger
}

// ClientOptions 客户端参数
type ClientOptions struct {
	SourceLang string
	TargetLang string
	// Timeout 单次请求的硬超时
	Timeout time.Duration
	// Retry 重试与退避策略
	Retry retry.Config
}

// NewClient 创建批次翻译客户端
func NewClient(provider providers.BatchProvider, opts ClientOptions, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 180 * time.Second
	}
	return &Client{
		provider:   provider,
		retryCfg:   opts.Retry,
		timeout:    opts.Timeout,
		sourceLang: opts.SourceLang,
		targetLang: opts.TargetLang,
		logger:     logger,
	}
}

// TranslateBatch 翻译一个批次，结果与批内片段一一对应且顺序一致。
// 不返回 error：任何失败都已折叠进逐片段的 Outcome。
func (c *Client) TranslateBatch(ctx context.Context, batch Batch) *BatchResult {
	if len(batch.Items) == 0 {
		return &BatchResult{BatchIndex: batch.Index, Err: ErrEmptyBatch}
	}

	texts := make([]string, len(batch.Items))
	for i, item := range batch.Items {
		texts[i] = item.Text
	}

	var translated []string
	attempts, err := retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		out, attemptErr := c.provider.TranslateBatch(attemptCtx, texts, c.sourceLang, c.targetLang)
		if attemptErr != nil {
			c.logger.Warn("批次翻译尝试失败",
				zap.Int("batch", batch.Index),
				zap.Error(attemptErr))
			return attemptErr
		}
		if len(out) != len(texts) {
			c.logger.Warn("批次译文条目数不符",
				zap.Int("batch", batch.Index),
				zap.Int("want", len(texts)),
				zap.Int("got", len(out)))
			return ErrCountMismatch
		}

		translated = out
		return nil
	})

	result := &BatchResult{
		BatchIndex: batch.Index,
		Results:    make([]TranslationResult, len(batch.Items)),
		Attempts:   attempts,
	}

	if err != nil {
		// 整批回退：每个片段保留原文，不丢条目，不做部分重试
		result.Err = &BatchError{BatchIndex: batch.Index, Attempts: attempts, Cause: err}
		c.logger.Error("批次翻译失败，整批回退为原文",
			zap.Int("batch", batch.Index),
			zap.Int("attempts", attempts),
			zap.Error(err))

		for i, item := range batch.Items {
			result.Results[i] = TranslationResult{
				Item:    item,
				Text:    item.Text,
				Outcome: OutcomeFallbackOriginal,
			}
		}
		return result
	}

	for i, item := range batch.Items {
		result.Results[i] = TranslationResult{
			Item:    item,
			Text:    translated[i],
			Outcome: OutcomeTranslated,
		}
	}
	return result
}

package translation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nerdneilsfield/docx-translator/pkg/providers/retry"
)

// fakeProvider 可编程的测试提供商，逐次尝试返回预设结果
type fakeProvider struct {
	calls     int
	responses []fakeResponse
}

type fakeResponse struct {
	texts []string
	err   error
}

func (f *fakeProvider) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := f.calls
	f.calls++
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	resp := f.responses[idx]
	return resp.texts, resp.err
}

func (f *fakeProvider) GetName() string { return "fake" }

func fastRetry(limit int) retry.Config {
	return retry.Config{
		Limit:         limit,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func testBatch(texts ...string) Batch {
	items := make([]SubSegment, len(texts))
	for i, text := range texts {
		items[i] = SubSegment{ParentOriginID: "p/0", SequenceIndex: i, Text: text}
	}
	return Batch{Index: 0, Items: items}
}

func TestClient_SuccessFirstAttempt(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{texts: []string{"halo", "dunia"}},
	}}
	client := NewClient(provider, ClientOptions{
		SourceLang: "id",
		TargetLang: "en",
		Retry:      fastRetry(4),
	}, zaptest.NewLogger(t))

	result := client.TranslateBatch(context.Background(), testBatch("hello", "world"))

	require.Len(t, result.Results, 2)
	assert.Equal(t, 1, result.Attempts)
	assert.NoError(t, result.Err)
	assert.Equal(t, "halo", result.Results[0].Text)
	assert.Equal(t, "dunia", result.Results[1].Text)
	for _, res := range result.Results {
		assert.Equal(t, OutcomeTranslated, res.Outcome)
	}
}

func TestClient_RetriesThenSucceeds(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{err: errors.New("connection refused")},
		{texts: []string{"only-one"}}, // 条目数不符也要触发重试
		{texts: []string{"satu", "dua"}},
	}}
	client := NewClient(provider, ClientOptions{Retry: fastRetry(4)}, zaptest.NewLogger(t))

	result := client.TranslateBatch(context.Background(), testBatch("one", "two"))

	assert.Equal(t, 3, result.Attempts)
	assert.NoError(t, result.Err)
	assert.Equal(t, "satu", result.Results[0].Text)
	assert.Equal(t, OutcomeTranslated, result.Results[1].Outcome)
}

func TestClient_ExhaustedRetriesFallsBackWholeBatch(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{err: errors.New("server exploded")},
	}}
	client := NewClient(provider, ClientOptions{Retry: fastRetry(4)}, zaptest.NewLogger(t))

	batch := testBatch("alpha", "beta", "gamma")
	result := client.TranslateBatch(context.Background(), batch)

	// 1 次初始 + 4 次重试
	assert.Equal(t, 5, result.Attempts)
	assert.Equal(t, 5, provider.calls)
	require.Error(t, result.Err)

	var batchErr *BatchError
	require.ErrorAs(t, result.Err, &batchErr)
	assert.Equal(t, 5, batchErr.Attempts)

	// 整批回退：条目不丢、顺序不变、全部保留原文
	require.Len(t, result.Results, len(batch.Items))
	for i, res := range result.Results {
		assert.Equal(t, batch.Items[i].Text, res.Text)
		assert.Equal(t, OutcomeFallbackOriginal, res.Outcome)
	}
	assert.Equal(t, 3, result.FallbackCount())
}

func TestClient_CountMismatchExhaustsToFallback(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{texts: []string{"too", "many", "items"}},
	}}
	client := NewClient(provider, ClientOptions{Retry: fastRetry(2)}, zaptest.NewLogger(t))

	result := client.TranslateBatch(context.Background(), testBatch("a", "b"))

	assert.Equal(t, 3, result.Attempts)
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, ErrCountMismatch)
	for _, res := range result.Results {
		assert.Equal(t, OutcomeFallbackOriginal, res.Outcome)
	}
}

func TestClient_ContextCancelFallsBack(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{err: errors.New("still failing")},
	}}
	client := NewClient(provider, ClientOptions{
		Retry: retry.Config{Limit: 10, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 2.0},
	}, zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result := client.TranslateBatch(ctx, testBatch("x"))

	// 退避等待被取消打断，不会睡满一小时
	require.Error(t, result.Err)
	assert.Equal(t, OutcomeFallbackOriginal, result.Results[0].Outcome)
}

func TestClient_EmptyBatchRejected(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{{texts: nil}}}
	client := NewClient(provider, ClientOptions{Retry: fastRetry(4)}, zaptest.NewLogger(t))

	result := client.TranslateBatch(context.Background(), Batch{Index: 7})

	assert.Equal(t, 7, result.BatchIndex)
	assert.ErrorIs(t, result.Err, ErrEmptyBatch)
	assert.Empty(t, result.Results)
	assert.Zero(t, provider.calls)
}

func TestClient_FallbackTextIsVerbatimOriginal(t *testing.T) {
	provider := &fakeProvider{responses: []fakeResponse{
		{err: errors.New("nope")},
	}}
	client := NewClient(provider, ClientOptions{Retry: fastRetry(1)}, zaptest.NewLogger(t))

	original := "  mixed \t whitespace " + strings.Repeat("長", 3)
	result := client.TranslateBatch(context.Background(), testBatch(original))

	require.Len(t, result.Results, 1)
	assert.Equal(t, original, result.Results[0].Text)
}

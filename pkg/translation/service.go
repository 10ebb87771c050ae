package translation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nerdneilsfield/docx-translator/pkg/providers"
	"github.com/nerdneilsfield/docx-translator/pkg/providers/retry"
	"go.uber.org/zap"
)

// Config 流水线配置值对象。在入口处构造后传入，运行期间不再修改，
// 不存在进程级可变状态。
type Config struct {
	// SourceLang 源语言代码
	SourceLang string

	// TargetLang 目标语言代码
	TargetLang string

	// MaxCharsPerBatch 单批字符预算，同时也是单片段的拆分上限
	MaxCharsPerBatch int

	// MaxItemsPerBatch 单批条目上限
	MaxItemsPerBatch int

	// RetryLimit 每批重试次数上限（不含首次尝试）
	RetryLimit int

	// RequestTimeout 单次请求的硬超时
	RequestTimeout time.Duration

	// Concurrency 并行批次数。<=1 时严格串行，批间顺序即完成顺序；
	// >1 时批次分发给有界工作池，结果按批次标识收集，正确性不依赖完成顺序
	Concurrency int
}

// DefaultConfig 返回默认流水线配置
func DefaultConfig() Config {
	return Config{
		SourceLang:       "id",
		TargetLang:       "en",
		MaxCharsPerBatch: 20000,
		MaxItemsPerBatch: 50,
		RetryLimit:       4,
		RequestTimeout:   180 * time.Second,
		Concurrency:      1,
	}
}

// Service 文档翻译流水线：拆分 → 分批 → 翻译 → 重组。
// 所有实体只在一次运行内存活，运行之间不共享任何状态。
type Service struct {
	config   Config
	splitter *Splitter
	batcher  *Batcher
	client   *Client
	observer ProgressObserver
	logger   *zap.Logger
}

// Option Service 可选参数
type Option func(*Service)

// WithProgressObserver 设置进度观察者（每批解决后调用，核心不依赖它）
func WithProgressObserver(observer ProgressObserver) Option {
	return func(s *Service) {
		s.observer = observer
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService 创建翻译流水线
func NewService(config Config, provider providers.BatchProvider, opts ...Option) *Service {
	if config.MaxCharsPerBatch <= 0 {
		config.MaxCharsPerBatch = 20000
	}
	if config.MaxItemsPerBatch <= 0 {
		config.MaxItemsPerBatch = 50
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	s := &Service{
		config:   config,
		splitter: NewSplitter(config.MaxCharsPerBatch),
		batcher:  NewBatcher(config.MaxCharsPerBatch, config.MaxItemsPerBatch),
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.Limit = config.RetryLimit

	s.client = NewClient(provider, ClientOptions{
		SourceLang: config.SourceLang,
		TargetLang: config.TargetLang,
		Timeout:    config.RequestTimeout,
		Retry:      retryCfg,
	}, s.logger)

	return s
}

// Translate 翻译一组有序 Segment，返回与输入一一对应的最终结果。
// 不返回 error：服务完全不可用时所有片段回退为原文，运行仍然完成。
func (s *Service) Translate(ctx context.Context, segments []Segment) ([]TranslatedSegment, *RunSummary) {
	start := time.Now()
	runID := uuid.NewString()

	log := s.logger.With(zap.String("run_id", runID))

	// 空白 Segment 不送翻（原文回写时保持原样），但仍出现在最终输出里
	var subs []SubSegment
	translatable := 0
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		translatable++
		subs = append(subs, s.splitter.Split(seg)...)
	}

	batches := s.batcher.BuildBatches(subs)

	totalChars := 0
	for _, b := range batches {
		totalChars += b.TotalChars
	}

	log.Info("开始翻译",
		zap.Int("segments", len(segments)),
		zap.Int("translatable", translatable),
		zap.Int("sub_segments", len(subs)),
		zap.Int("batches", len(batches)),
		zap.Int("total_chars", totalChars),
		zap.String("source", s.config.SourceLang),
		zap.String("target", s.config.TargetLang))

	results := s.translateBatches(ctx, batches)

	reassembler := NewReassembler()
	for _, result := range results {
		reassembler.Collect(result)
	}
	out := reassembler.Reassemble(segments)

	summary := &RunSummary{
		RunID:            runID,
		Segments:         len(segments),
		TranslatableSegs: translatable,
		SubSegments:      len(subs),
		Batches:          len(batches),
		TotalChars:       totalChars,
		Duration:         time.Since(start),
	}
	for _, seg := range out {
		if seg.Fallback {
			summary.FallbackSegments++
		}
	}

	log.Info("翻译完成",
		zap.Int("fallback_segments", summary.FallbackSegments),
		zap.Duration("duration", summary.Duration))

	return out, summary
}

// translateBatches 逐批翻译。串行模式下一批阻塞到解决（成功或回退）
// 才开始下一批；并行模式下各批独立，一批的重试耗尽不会中止其他批次。
func (s *Service) translateBatches(ctx context.Context, batches []Batch) []*BatchResult {
	results := make([]*BatchResult, len(batches))

	itemsTotal := 0
	for _, batch := range batches {
		itemsTotal += len(batch.Items)
	}

	if s.config.Concurrency <= 1 || len(batches) <= 1 {
		completed := 0
		for i, batch := range batches {
			results[i] = s.client.TranslateBatch(ctx, batch)
			completed += len(batch.Items)
			s.notify(results[i], len(batches), completed, itemsTotal)
		}
		return results
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	sem := make(chan struct{}, s.config.Concurrency)

	for i, batch := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, batch Batch) {
			defer wg.Done()
			defer func() { <-sem }()

			// 结果槽位由批次序号决定，与完成顺序无关
			result := s.client.TranslateBatch(ctx, batch)
			results[i] = result

			mu.Lock()
			completed += len(batch.Items)
			done := completed
			mu.Unlock()
			s.notify(result, len(batches), done, itemsTotal)
		}(i, batch)
	}

	wg.Wait()
	return results
}

// notify 调用进度观察者（若设置）
func (s *Service) notify(result *BatchResult, totalBatches, completed, itemsTotal int) {
	if s.observer == nil {
		return
	}

	s.observer.OnBatchDone(BatchProgress{
		BatchIndex:     result.BatchIndex,
		TotalBatches:   totalBatches,
		ItemsCompleted: completed,
		ItemsTotal:     itemsTotal,
		Fallbacks:      result.FallbackCount(),
	})
}

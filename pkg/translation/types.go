package translation

import (
	"time"
)

// Segment 一个可翻译的文本单元，绑定到文档中的结构位置
type Segment struct {
	// OriginID 结构位置标识（段落索引或表格坐标），原样传递
	OriginID string `json:"origin_id"`

	// Text 原始文本
	Text string `json:"text"`

	// StyleTag 样式标签（如 Heading1），核心流水线不解析，仅透传
	StyleTag string `json:"style_tag,omitempty"`
}

// SubSegment 超长 Segment 被拆分后的片段
type SubSegment struct {
	// ParentOriginID 所属 Segment 的结构位置标识
	ParentOriginID string `json:"parent_origin_id"`

	// SequenceIndex 在父 Segment 内的位置（从 0 开始），决定重组顺序
	SequenceIndex int `json:"sequence_index"`

	// Text 片段文本
	Text string `json:"text"`
}

// Batch 一次网络请求携带的有序片段组
type Batch struct {
	// Index 批次序号（全局单调递增），并行模式下用于按标识收集结果
	Index int `json:"index"`

	// Items 批内片段，保持全局顺序
	Items []SubSegment `json:"items"`

	// TotalChars 批内字符总数（按 rune 计）
	TotalChars int `json:"total_chars"`
}

// Outcome 单个片段的翻译结果标志
type Outcome string

const (
	// OutcomeTranslated 翻译成功
	OutcomeTranslated Outcome = "translated"

	// OutcomeFallbackOriginal 重试耗尽后回退为原文
	OutcomeFallbackOriginal Outcome = "fallback_original"
)

// TranslationResult 单个片段的翻译结果
type TranslationResult struct {
	// Item 对应的输入片段
	Item SubSegment `json:"item"`

	// Text 输出文本（成功时为译文，回退时为原文）
	Text string `json:"text"`

	// Outcome 结果标志
	Outcome Outcome `json:"outcome"`
}

// BatchResult 一个批次的翻译结果，批内顺序与请求一致
type BatchResult struct {
	// BatchIndex 对应的批次序号
	BatchIndex int `json:"batch_index"`

	// Results 逐片段结果
	Results []TranslationResult `json:"results"`

	// Attempts 实际发起的请求次数（1 次初始 + N 次重试）
	Attempts int `json:"attempts"`

	// Err 最后一次失败的原因，仅在回退时非空；调用方分支依据是 Outcome 而非它
	Err error `json:"-"`
}

// FallbackCount 统计批内回退的片段数
func (r *BatchResult) FallbackCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == OutcomeFallbackOriginal {
			n++
		}
	}
	return n
}

// TranslatedSegment 重组后的最终输出，与输入 Segment 一一对应
type TranslatedSegment struct {
	// OriginID 结构位置标识，与输入 Segment 相同
	OriginID string `json:"origin_id"`

	// Text 最终译文（拆分片段按序拼接后的结果）
	Text string `json:"text"`

	// StyleTag 原样恢复的样式标签
	StyleTag string `json:"style_tag,omitempty"`

	// Fallback 该 Segment 的任一片段是否发生过回退
	Fallback bool `json:"fallback"`
}

// RunSummary 一次文档翻译运行的统计信息
type RunSummary struct {
	RunID            string        `json:"run_id"`
	Segments         int           `json:"segments"`
	TranslatableSegs int           `json:"translatable_segments"`
	SubSegments      int           `json:"sub_segments"`
	Batches          int           `json:"batches"`
	TotalChars       int           `json:"total_chars"`
	FallbackSegments int           `json:"fallback_segments"`
	Duration         time.Duration `json:"duration"`
}

// BatchProgress 单个批次完成后的进度通知
type BatchProgress struct {
	BatchIndex     int `json:"batch_index"`
	TotalBatches   int `json:"total_batches"`
	ItemsCompleted int `json:"items_completed"`
	ItemsTotal     int `json:"items_total"`
	Fallbacks      int `json:"fallbacks"`
}

// ProgressObserver 进度观察者，在每个批次解决（成功或回退）后被调用。
// 核心流水线不依赖它的任何行为。
type ProgressObserver interface {
	OnBatchDone(p BatchProgress)
}

// ProgressFunc 函数式进度观察者
type ProgressFunc func(p BatchProgress)

// OnBatchDone 实现 ProgressObserver
func (f ProgressFunc) OnBatchDone(p BatchProgress) {
	f(p)
}

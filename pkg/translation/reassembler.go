package translation

import (
	"sort"
	"strings"
)

// Reassembler 把跨批次的片段译文重组为逐 Segment 的最终译文。
// 片段按 ParentOriginID 分组、按 SequenceIndex 排序后直接拼接
// （Splitter 产出的是原文连续子串，连接符为空串）。
type Reassembler struct {
	// byOrigin 各 Segment 已收到的片段结果
	byOrigin map[string][]TranslationResult
}

// NewReassembler 创建重组器
func NewReassembler() *Reassembler {
	return &Reassembler{
		byOrigin: make(map[string][]TranslationResult),
	}
}

// Collect 收集一个批次的结果。批次可以按任意顺序到达（并行模式下
// 由完成顺序决定），重组顺序只取决于片段自身的标识。
func (r *Reassembler) Collect(result *BatchResult) {
	for _, res := range result.Results {
		id := res.Item.ParentOriginID
		r.byOrigin[id] = append(r.byOrigin[id], res)
	}
}

// Reassemble 按原始抽取顺序产出最终结果，样式标签原样恢复。
// 输出条目数恒等于输入 Segment 数：没有片段结果的 Segment
// （空白段落等未送翻的）保留原文。
func (r *Reassembler) Reassemble(segments []Segment) []TranslatedSegment {
	out := make([]TranslatedSegment, 0, len(segments))

	for _, seg := range segments {
		results, ok := r.byOrigin[seg.OriginID]
		if !ok {
			out = append(out, TranslatedSegment{
				OriginID: seg.OriginID,
				Text:     seg.Text,
				StyleTag: seg.StyleTag,
			})
			continue
		}

		sort.Slice(results, func(i, j int) bool {
			return results[i].Item.SequenceIndex < results[j].Item.SequenceIndex
		})

		var builder strings.Builder
		fallback := false
		for _, res := range results {
			builder.WriteString(res.Text)
			if res.Outcome == OutcomeFallbackOriginal {
				fallback = true
			}
		}

		out = append(out, TranslatedSegment{
			OriginID: seg.OriginID,
			Text:     builder.String(),
			StyleTag: seg.StyleTag,
			Fallback: fallback,
		})
	}

	return out
}

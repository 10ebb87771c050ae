package translation

import (
	"unicode/utf8"
)

// Batcher 按字符预算和条目上限把有序片段分组为批次。
// 分组是确定性的：相同输入必然产生相同的批次边界，不重排、不丢弃。
type Batcher struct {
	maxChars int
	maxItems int
}

// NewBatcher 创建批处理器。maxChars 为单批字符预算，maxItems 为单批条目上限。
func NewBatcher(maxChars, maxItems int) *Batcher {
	if maxChars <= 0 {
		maxChars = 20000
	}
	if maxItems <= 0 {
		maxItems = 50
	}
	return &Batcher{
		maxChars: maxChars,
		maxItems: maxItems,
	}
}

// BuildBatches 顺序扫描片段，能装入当前批（字符和条目都不超限）就追加，
// 否则封闭当前批并以该片段开启新批。
// 超过字符预算的片段应已由 Splitter 预先拆分；这里不再拆分，
// 单独超限的片段成为单元素批次，作为不可避免的溢出接受。
// 每个批次至少包含一个片段。
func (b *Batcher) BuildBatches(items []SubSegment) []Batch {
	var batches []Batch

	current := Batch{Index: 0}
	for _, item := range items {
		n := utf8.RuneCountInString(item.Text)

		if len(current.Items) > 0 &&
			(len(current.Items)+1 > b.maxItems || current.TotalChars+n > b.maxChars) {
			batches = append(batches, current)
			current = Batch{Index: len(batches)}
		}

		current.Items = append(current.Items, item)
		current.TotalChars += n
	}

	if len(current.Items) > 0 {
		batches = append(batches, current)
	}

	return batches
}

package translation

import (
	"unicode"
	"unicode/utf8"
)

// Splitter 把超长 Segment 拆成不超过字符上限的有序片段。
// 拆分点优先选在空白边界；产出的片段是原文的连续子串，
// 按 SequenceIndex 顺序直接拼接即可无损还原原文（连接符为空串）。
type Splitter struct {
	maxChars int
}

// NewSplitter 创建拆分器。maxChars 为单片段的 rune 数上限。
func NewSplitter(maxChars int) *Splitter {
	if maxChars <= 0 {
		maxChars = 1000
	}
	return &Splitter{maxChars: maxChars}
}

// MaxChars 返回单片段上限
func (s *Splitter) MaxChars() int {
	return s.maxChars
}

// Split 拆分单个 Segment。
// 文本不超限时返回单元素切片，文本原样保留。
// 超限时从左到右扫描，在不超过上限的最近空白边界处切开；
// 单个"词"本身超过上限且无空白可用时，在字符上限处强制切断。
func (s *Splitter) Split(seg Segment) []SubSegment {
	if utf8.RuneCountInString(seg.Text) <= s.maxChars {
		return []SubSegment{{
			ParentOriginID: seg.OriginID,
			SequenceIndex:  0,
			Text:           seg.Text,
		}}
	}

	pieces := splitRunes([]rune(seg.Text), s.maxChars)

	subs := make([]SubSegment, 0, len(pieces))
	for i, piece := range pieces {
		subs = append(subs, SubSegment{
			ParentOriginID: seg.OriginID,
			SequenceIndex:  i,
			Text:           piece,
		})
	}
	return subs
}

// splitRunes 把 rune 序列切成不超过 maxChars 的连续子串
func splitRunes(runes []rune, maxChars int) []string {
	var pieces []string

	for len(runes) > 0 {
		if len(runes) <= maxChars {
			pieces = append(pieces, string(runes))
			break
		}

		// 窗口内从右往左找最后一个空白，在其后切开，
		// 空白字符留在前一个片段里，保证拼接无损
		cut := -1
		for i := maxChars - 1; i >= 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i + 1
				break
			}
		}

		// 没有空白边界：强制在上限处切断（文档化的边界情况，不报错）
		if cut <= 0 {
			cut = maxChars
		}

		pieces = append(pieces, string(runes[:cut]))
		runes = runes[cut:]
	}

	return pieces
}

// Package progress 提供 CLI 的进度显示和运行摘要。
// 核心流水线只依赖 translation.ProgressObserver 接口，这里是它的终端实现。
package progress

import (
	"sync"

	"github.com/pterm/pterm"
	"github.com/nerdneilsfield/docx-translator/pkg/translation"
)

// Bar 基于 pterm 进度条的观察者。并行模式下批次从多个 goroutine
// 完成，更新需要加锁。
type Bar struct {
	mu        sync.Mutex
	bar       *pterm.ProgressbarPrinter
	fallbacks int
}

// NewBar 创建进度条观察者。itemsTotal 为待翻译的片段总数。
func NewBar(itemsTotal int) (*Bar, error) {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(itemsTotal).
		WithTitle("Translating").
		Start()
	if err != nil {
		return nil, err
	}

	return &Bar{bar: bar}, nil
}

// OnBatchDone 实现 translation.ProgressObserver
func (b *Bar) OnBatchDone(p translation.BatchProgress) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.fallbacks += p.Fallbacks
	b.bar.Add(p.ItemsCompleted - b.bar.Current)

	if p.Fallbacks > 0 {
		b.bar.UpdateTitle(pterm.Sprintf("Translating (%d fallbacks)", b.fallbacks))
	}
}

// Stop 结束进度条
func (b *Bar) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_, _ = b.bar.Stop()
	}
}

package progress

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nerdneilsfield/docx-translator/pkg/translation"
)

// PrintSummary 在运行结束后输出统计表格
func PrintSummary(w io.Writer, summary *translation.RunSummary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)

	tw.AppendRow(table.Row{"项", "值"})
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"段落总数", summary.Segments})
	tw.AppendRow(table.Row{"送翻段落", summary.TranslatableSegs})
	tw.AppendRow(table.Row{"拆分片段", summary.SubSegments})
	tw.AppendRow(table.Row{"批次数", summary.Batches})
	tw.AppendRow(table.Row{"字符总数", summary.TotalChars})
	tw.AppendRow(table.Row{"回退段落", summary.FallbackSegments})
	tw.AppendRow(table.Row{"总耗时", fmt.Sprintf("%.1fs", summary.Duration.Seconds())})

	tw.Render()
}

// Package progress は、エントリ処理の進捗を端末に表示します。
// 表示は参考情報であり、処理の流れには影響しません。
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var labelStyle = lipgloss.NewStyle().Bold(true)

// TerminalReporter は、プログレスバーを一行に上書き表示します。
type TerminalReporter struct {
	mu   sync.Mutex
	out  io.Writer
	bar  progress.Model
	last string
}

// NewTerminalReporter は、out に描画する TerminalReporter を返します。
func NewTerminalReporter(out io.Writer) *TerminalReporter {
	return &TerminalReporter{
		out: out,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Report は current/total の進捗を描画します。current == total で改行します。
func (r *TerminalReporter) Report(current, total int, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last != "" && r.last != label {
		fmt.Fprintln(r.out)
	}
	r.last = label

	percent := 1.0
	if total > 0 {
		percent = float64(current) / float64(total)
	}
	fmt.Fprintf(r.out, "\r%s %s %d/%d", labelStyle.Render(label), r.bar.ViewAs(percent), current, total)
	if current >= total {
		fmt.Fprintln(r.out)
		r.last = ""
	}
}

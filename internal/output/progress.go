package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// writerIsTTY reports whether w is a terminal. Writers without an Fd method,
// such as *bytes.Buffer, are not.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// ProgressBar reports how many items of a batch have been handled.
// Example: [=========>          ]  45% 4,500/10,000 records
//
// On a TTY the bar redraws in place. Elsewhere a single line is written when
// the batch completes so logs and pipes stay clean.
type ProgressBar struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	current int
	unit    string
	width   int
}

// NewProgress creates a progress bar over total items of the named unit.
func NewProgress(w io.Writer, total int, unit string) *ProgressBar {
	return &ProgressBar{w: w, total: total, unit: unit, width: 30}
}

// Add advances the bar by n items, capped at total.
func (p *ProgressBar) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current += n
	if p.current > p.total {
		p.current = p.total
	}
	p.render()
}

// Finish fills the bar and ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	alreadyDone := p.current == p.total
	p.current = p.total

	if writerIsTTY(p.w) {
		p.render()
		fmt.Fprintln(p.w)
		return
	}
	// Non-TTY output was already written when Add reached total.
	if !alreadyDone {
		p.render()
	}
}

// render must be called with mu held.
func (p *ProgressBar) render() {
	percentage, filled := 100, p.width
	if p.total > 0 {
		percentage = p.current * 100 / p.total
		filled = p.current * p.width / p.total
	}

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < p.width; i++ {
		switch {
		case i < filled-1:
			bar.WriteString("=")
		case i == filled-1:
			bar.WriteString(">")
		default:
			bar.WriteString(" ")
		}
	}
	bar.WriteString("]")

	line := fmt.Sprintf("%s %3d%% %s/%s %s", bar.String(), percentage,
		humanize.Comma(int64(p.current)), humanize.Comma(int64(p.total)), p.unit)

	if writerIsTTY(p.w) {
		fmt.Fprintf(p.w, "\r%s", line)
	} else if p.current == p.total {
		fmt.Fprintln(p.w, line)
	}
}

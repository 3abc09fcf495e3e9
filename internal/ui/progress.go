package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Progress displays a progress bar with percentage
type Progress struct {
	w       io.Writer
	total   int
	current int
	message string
	width   int
	mu      sync.Mutex
}

// NewProgress creates a progress bar that redraws itself on w
func NewProgress(w io.Writer, total int, message string) *Progress {
	return &Progress{
		w:       w,
		total:   total,
		message: message,
		width:   30,
	}
}

// Increment advances the progress by 1
func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current < p.total {
		p.current++
	}
	p.render()
}

// Done completes the progress bar
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.render()
	fmt.Fprintln(p.w)
}

// render overwrites the current line
func (p *Progress) render() {
	if p.total == 0 {
		return
	}

	percent := float64(p.current) / float64(p.total)
	filled := int(percent * float64(p.width))
	empty := p.width - filled

	bar := SuccessStyle.Render(strings.Repeat("=", filled)) +
		DimStyle.Render(strings.Repeat("-", empty))

	status := fmt.Sprintf("%d/%d", p.current, p.total)
	percentStr := fmt.Sprintf("%.0f%%", percent*100)

	fmt.Fprintf(p.w, "\r%s %s [%s] %s %s",
		PrefixInfo,
		DimStyle.Render(p.message),
		bar,
		ValueStyle.Render(status),
		DimStyle.Render(percentStr))
}

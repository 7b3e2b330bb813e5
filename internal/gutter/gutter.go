// Package gutter keeps a line-number gutter in step with a code text area.
//
// The gutter always shows max(1, lines(code)) numbers, and its vertical offset
// is pinned to the code area's scroll offset. Two independent observers drive
// it: one for content changes, one for scroll changes. Both are pure and
// idempotent.
package gutter

import (
	"strconv"
	"strings"
	"sync"
)

// Surface is the editable text area the gutter follows.
type Surface interface {
	Value() string
	ScrollOffset() int
}

// State is a snapshot of the gutter.
type State struct {
	Text   string // one right-aligned number per line, joined by "\n"
	Lines  int
	Offset int
}

// Synchronizer owns the gutter state.
type Synchronizer struct {
	mu     sync.Mutex
	lines  int
	offset int
	text   string
}

// New returns a gutter for empty content.
func New() *Synchronizer {
	g := &Synchronizer{}
	g.ContentChanged("")
	return g
}

// CountLines returns max(1, number of lines in text).
func CountLines(text string) int {
	return strings.Count(text, "\n") + 1
}

// ContentChanged recomputes the gutter for new content.
func (g *Synchronizer) ContentChanged(text string) {
	n := CountLines(text)

	g.mu.Lock()
	defer g.mu.Unlock()
	if n != g.lines || g.text == "" {
		g.lines = n
		g.text = render(n)
	}
	g.offset = clamp(g.offset, n)
}

// Scrolled pins the gutter to the code area's offset.
func (g *Synchronizer) Scrolled(offset int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.offset = clamp(offset, g.lines)
}

// Sync runs both observers against s.
func (g *Synchronizer) Sync(s Surface) State {
	g.ContentChanged(s.Value())
	g.Scrolled(s.ScrollOffset())
	return g.State()
}

// State returns the current gutter.
func (g *Synchronizer) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return State{Text: g.text, Lines: g.lines, Offset: g.offset}
}

// Window returns the height gutter rows visible from the pinned offset,
// padded with blank rows of the same width past the last line.
func (g *Synchronizer) Window(height int) []string {
	st := g.State()
	if height <= 0 {
		return nil
	}
	width := len(strconv.Itoa(st.Lines))
	all := strings.Split(st.Text, "\n")
	out := make([]string, 0, height)
	for i := st.Offset; i < st.Offset+height; i++ {
		if i < len(all) {
			out = append(out, all[i])
		} else {
			out = append(out, strings.Repeat(" ", width))
		}
	}
	return out
}

// Width returns the gutter column width in cells.
func (g *Synchronizer) Width() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(strconv.Itoa(g.lines))
}

func render(n int) string {
	width := len(strconv.Itoa(n))
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteByte('\n')
		}
		num := strconv.Itoa(i)
		b.WriteString(strings.Repeat(" ", width-len(num)))
		b.WriteString(num)
	}
	return b.String()
}

func clamp(offset, lines int) int {
	if offset < 0 {
		return 0
	}
	if offset > lines-1 {
		return lines - 1
	}
	return offset
}

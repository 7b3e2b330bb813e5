package gutter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type surface struct {
	text   string
	offset int
}

func (s surface) Value() string     { return s.text }
func (s surface) ScrollOffset() int { return s.offset }

func TestContentChanged_LineCountMatchesContent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty shows one line", "", 1},
		{"single line", "x := 1", 1},
		{"trailing newline adds a line", "a\n", 2},
		{"three lines", "a\nb\nc", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			g.ContentChanged(tt.text)
			st := g.State()
			assert.Equal(t, tt.want, st.Lines)
			assert.Len(t, strings.Split(st.Text, "\n"), tt.want)
		})
	}
}

func TestRender_RightAligns(t *testing.T) {
	g := New()
	g.ContentChanged(strings.Repeat("x\n", 10)) // 11 lines
	lines := strings.Split(g.State().Text, "\n")
	assert.Equal(t, " 1", lines[0])
	assert.Equal(t, "11", lines[10])
	assert.Equal(t, 2, g.Width())
}

func TestScrolled_PinsAndClamps(t *testing.T) {
	g := New()
	g.ContentChanged("a\nb\nc\nd")

	g.Scrolled(2)
	assert.Equal(t, 2, g.State().Offset)

	g.Scrolled(-4)
	assert.Equal(t, 0, g.State().Offset)

	g.Scrolled(100)
	assert.Equal(t, 3, g.State().Offset)

	g.ContentChanged("a")
	assert.Equal(t, 0, g.State().Offset, "shrinking content re-pins the offset")
}

func TestSync_IsIdempotent(t *testing.T) {
	g := New()
	s := surface{text: "a\nb\nc", offset: 1}
	first := g.Sync(s)
	second := g.Sync(s)
	assert.Equal(t, first, second)
	assert.Equal(t, State{Text: "1\n2\n3", Lines: 3, Offset: 1}, first)
}

func TestWindow_PadsPastEnd(t *testing.T) {
	g := New()
	g.Sync(surface{text: "a\nb\nc", offset: 2})
	assert.Equal(t, []string{"3", " ", " "}, g.Window(3))
}

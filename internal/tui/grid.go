package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/sakif/snippet-desk/internal/model"
)

// snippetItem is one row of the read-only grid.
type snippetItem struct {
	snippet model.Snippet
}

func (i snippetItem) Title() string {
	if t := strings.TrimSpace(i.snippet.Description); t != "" {
		return t
	}
	return "(untitled)"
}

func (i snippetItem) Description() string {
	var parts []string
	if line := firstLine(i.snippet.CodeContent); line != "" {
		parts = append(parts, line)
	}
	if n := len(i.snippet.MediaPaths); n > 0 {
		parts = append(parts, fmt.Sprintf("[%d media]", n))
	}
	if len(i.snippet.Categories) > 0 {
		parts = append(parts, "#"+strings.Join(i.snippet.Categories, " #"))
	}
	if !i.snippet.LastModificationDate.IsZero() {
		parts = append(parts, i.snippet.LastModificationDate.Local().Format("Jan 2 15:04"))
	}
	return strings.Join(parts, "  ")
}

func (i snippetItem) FilterValue() string {
	return i.snippet.Description + " " + i.snippet.FullDescription + " " + strings.Join(i.snippet.Categories, " ")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func newGrid() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Snippets"
	l.SetShowHelp(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("snippet", "snippets")
	// q and esc are handled by the app.
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	return l
}

// setSnippets replaces the grid rows, keeping the selection on the same id.
func setSnippets(l *list.Model, snippets []model.Snippet) {
	var cur model.ID
	if it, ok := l.SelectedItem().(snippetItem); ok {
		cur = it.snippet.ID
	}

	items := make([]list.Item, 0, len(snippets))
	sel := 0
	for i, s := range snippets {
		items = append(items, snippetItem{snippet: s})
		if s.ID == cur {
			sel = i
		}
	}
	l.SetItems(items)
	if len(items) > 0 {
		l.Select(sel)
	}
}

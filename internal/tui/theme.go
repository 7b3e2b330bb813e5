package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sakif/snippet-desk/internal/model"
)

const defaultAccent = "#7c3aed"

// theme is the host-controlled look: one accent color and light or dark.
type theme struct {
	accent lipgloss.Color
	dark   bool

	title    lipgloss.Style
	subtle   lipgloss.Style
	focused  lipgloss.Style
	blurred  lipgloss.Style
	gutter   lipgloss.Style
	errorMsg lipgloss.Style
	banner   lipgloss.Style
}

func newTheme(st model.HostStatus) theme {
	accent := strings.TrimSpace(st.AccentColor)
	if accent == "" {
		accent = defaultAccent
	}
	// Default to dark until the host says otherwise.
	dark := st.ThemeMode == "" || st.Dark()

	fg, muted := lipgloss.Color("#1f2937"), lipgloss.Color("#6b7280")
	if dark {
		fg, muted = lipgloss.Color("#e5e7eb"), lipgloss.Color("#9ca3af")
	}

	t := theme{accent: lipgloss.Color(accent), dark: dark}
	t.title = lipgloss.NewStyle().Bold(true).Foreground(t.accent)
	t.subtle = lipgloss.NewStyle().Foreground(muted)
	t.focused = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.accent).
		Foreground(fg)
	t.blurred = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Foreground(fg)
	t.gutter = lipgloss.NewStyle().Foreground(muted).PaddingRight(1)
	t.errorMsg = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	t.banner = lipgloss.NewStyle().
		Bold(true).
		Padding(1, 4).
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("#ef4444"))
	return t
}

func (t theme) box(focused bool) lipgloss.Style {
	if focused {
		return t.focused
	}
	return t.blurred
}

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sakif/snippet-desk/internal/editor"
	"github.com/sakif/snippet-desk/internal/model"
)

type field int

// codeLineLimit is the logical width of the code area. Lines are never
// soft-wrapped, so one gutter number always sits beside one visible row;
// the view clips what does not fit.
const codeLineLimit = 4096

const (
	fieldTitle field = iota
	fieldDescription
	fieldCode
	fieldCount
)

// editorView holds the input widgets of the detail view. The values are
// pushed to the controller on every change; the controller owns the record.
type editorView struct {
	title textinput.Model
	desc  textarea.Model
	code  textarea.Model
	focus field

	// codeOffset mirrors the code area's first visible line.
	codeOffset int
	codeWidth  int

	prompting bool
	prompt    textinput.Model

	snippet model.Snippet
}

func newEditorView() editorView {
	title := textinput.New()
	title.Placeholder = "Title"
	title.Prompt = ""
	title.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Description"
	desc.ShowLineNumbers = false
	desc.Prompt = ""
	desc.CharLimit = 0
	desc.SetHeight(3)

	code := textarea.New()
	code.Placeholder = "Code"
	code.ShowLineNumbers = false
	code.Prompt = ""
	code.CharLimit = 0
	code.MaxHeight = 0
	code.MaxWidth = codeLineLimit
	code.SetWidth(codeLineLimit)
	code.FocusedStyle.CursorLine = lipgloss.NewStyle()

	prompt := textinput.New()
	prompt.Placeholder = "path/to/file.png"
	prompt.Prompt = "attach: "

	return editorView{title: title, desc: desc, code: code, prompt: prompt}
}

// load resets the widgets to a freshly opened snippet.
func (e *editorView) load(s model.Snippet, f editor.Fields) {
	e.snippet = s
	e.title.SetValue(f.Title)
	e.desc.SetValue(f.Description)
	e.code.SetValue(f.Code)
	e.codeOffset = 0
	e.prompting = false
	e.prompt.SetValue("")
	e.setFocus(fieldTitle)
}

func (e *editorView) setFocus(f field) {
	e.focus = f
	e.title.Blur()
	e.desc.Blur()
	e.code.Blur()
	switch f {
	case fieldTitle:
		e.title.Focus()
	case fieldDescription:
		e.desc.Focus()
	case fieldCode:
		e.code.Focus()
	}
}

func (e *editorView) cycleFocus() { e.setFocus((e.focus + 1) % fieldCount) }

func (e *editorView) openPrompt() {
	e.prompting = true
	e.prompt.SetValue("")
	e.prompt.Focus()
}

func (e *editorView) closePrompt() {
	e.prompting = false
	e.prompt.Blur()
}

func (e *editorView) setSize(width, height int) {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}
	e.title.Width = inner
	e.desc.SetWidth(inner)

	codeHeight := height - 16
	if codeHeight < 3 {
		codeHeight = 3
	}
	e.codeWidth = inner - 6
	e.code.SetHeight(codeHeight)
	e.prompt.Width = inner
}

// trackScroll follows the textarea's own scrolling: the first visible line
// only moves when the cursor leaves the window.
func (e *editorView) trackScroll() int {
	line, h := e.code.Line(), e.code.Height()
	if line < e.codeOffset {
		e.codeOffset = line
	}
	if h > 0 && line >= e.codeOffset+h {
		e.codeOffset = line - h + 1
	}
	if e.codeOffset < 0 {
		e.codeOffset = 0
	}
	return e.codeOffset
}

// update feeds msg to the focused widget and pushes a changed value to ctrl.
// The returned error is the controller's refusal of the edit, if any.
func (e *editorView) update(msg tea.Msg, ctrl *editor.Controller) (tea.Cmd, error) {
	var (
		cmd tea.Cmd
		err error
	)
	switch e.focus {
	case fieldTitle:
		before := e.title.Value()
		e.title, cmd = e.title.Update(msg)
		if v := e.title.Value(); v != before {
			err = ctrl.SetTitle(v)
		}
	case fieldDescription:
		before := e.desc.Value()
		e.desc, cmd = e.desc.Update(msg)
		if v := e.desc.Value(); v != before {
			err = ctrl.SetDescription(v)
		}
	case fieldCode:
		before := e.code.Value()
		e.code, cmd = e.code.Update(msg)
		if v := e.code.Value(); v != before {
			err = ctrl.SetCode(v)
		}
		ctrl.ScrollCode(e.trackScroll())
	}
	return cmd, err
}

func (e *editorView) view(t theme, ctrl *editor.Controller) string {
	var b strings.Builder

	heading := "Snippet"
	if !e.snippet.ID.IsZero() {
		heading += " #" + e.snippet.ID.String()
	}
	b.WriteString(t.title.Render(heading))
	b.WriteString("\n")

	b.WriteString(t.box(e.focus == fieldTitle).Render(e.title.View()))
	b.WriteString("\n")
	b.WriteString(t.box(e.focus == fieldDescription).Render(e.desc.View()))
	b.WriteString("\n")

	g := ctrl.Gutter().Window(e.code.Height())
	gutter := t.gutter.Render(strings.Join(g, "\n"))
	visible := e.code.View()
	if e.codeWidth > 0 {
		visible = lipgloss.NewStyle().MaxWidth(e.codeWidth).Render(visible)
	}
	code := lipgloss.JoinHorizontal(lipgloss.Top, gutter, visible)
	b.WriteString(t.box(e.focus == fieldCode).Render(code))
	b.WriteString("\n")

	if len(e.snippet.MediaPaths) > 0 {
		b.WriteString(t.subtle.Render("media: " + strings.Join(e.snippet.MediaPaths, ", ")))
		b.WriteString("\n")
	}
	if e.prompting {
		b.WriteString(e.prompt.View())
		b.WriteString("\n")
	}
	return b.String()
}

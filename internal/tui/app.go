// Package tui is the terminal front end: a read-only grid of snippets, the
// detail editor with its line gutter, and the blocked screen.
//
// The TUI never mutates snippets itself. Navigation goes through the session's
// Location, and field edits go to the editor controller, which decides what
// reaches the host.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/editor"
	"github.com/sakif/snippet-desk/internal/media"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/router"
	"github.com/sakif/snippet-desk/internal/store"
)

// Session is what the TUI drives.
type Session interface {
	Store() *store.Store
	Editor() *editor.Controller
	Location() *router.Location
	Blocked() bool
	Status() model.HostStatus
}

type screen int

const (
	screenGrid screen = iota
	screenEditor
	screenBlocked
)

type (
	navDoneMsg     struct{ err error }
	refreshDoneMsg struct{ err error }
	mediaDoneMsg   struct{ err error }
)

// Model is the bubbletea model of the client.
type Model struct {
	ctx    context.Context
	sess   Session
	bridge *Bridge

	screen screen
	busy   bool
	theme  theme

	grid   list.Model
	editor editorView

	status    string
	statusErr bool

	width, height int
}

// New builds the model for a started session.
func New(ctx context.Context, sess Session, bridge *Bridge) Model {
	m := Model{
		ctx:    ctx,
		sess:   sess,
		bridge: bridge,
		theme:  newTheme(sess.Status()),
		grid:   newGrid(),
		editor: newEditorView(),
	}
	setSnippets(&m.grid, sess.Store().All())

	switch {
	case sess.Blocked():
		m.screen = screenBlocked
	case sess.Editor().State() == editor.Open:
		m.openEditor()
	default:
		m.screen = screenGrid
	}
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, sess Session, bridge *Bridge) error {
	p := tea.NewProgram(New(ctx, sess, bridge), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	return m.bridge.listen()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.grid.SetSize(msg.Width, max(msg.Height-3, 5))
		m.editor.setSize(msg.Width, msg.Height)
		return m, nil

	case notifyMsg:
		m.setError(msg.err)
		return m, m.relisten()

	case statusMsg:
		m.theme = newTheme(msg.status)
		return m, m.relisten()

	case deniedMsg:
		m.screen = screenBlocked
		return m, m.relisten()

	case eventMsg:
		m.handleEvent(msg.event)
		return m, m.relisten()

	case navDoneMsg:
		m.busy = false
		m.afterNavigation()
		return m, nil

	case refreshDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setInfo(fmt.Sprintf("%d snippets", m.sess.Store().Len()))
		}
		setSnippets(&m.grid, m.sess.Store().All())
		return m, nil

	case mediaDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setInfo("media attached")
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenBlocked:
			if msg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		case screenEditor:
			return m.updateEditor(msg)
		default:
			return m.updateGrid(msg)
		}
	}
	return m, nil
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.grid.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.grid, cmd = m.grid.Update(msg)
		return m, cmd
	}
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "n":
		return m.navigate(router.NewView.Fragment())
	case "r":
		m.busy = true
		return m, m.refresh()
	case "enter":
		if it, ok := m.grid.SelectedItem().(snippetItem); ok {
			return m.navigate(router.EditView(it.snippet.ID).Fragment())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.grid, cmd = m.grid.Update(msg)
	return m, cmd
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	ctrl := m.sess.Editor()

	if m.editor.prompting {
		switch msg.String() {
		case "esc":
			m.editor.closePrompt()
			return m, nil
		case "enter":
			path := m.editor.prompt.Value()
			m.editor.closePrompt()
			m.busy = true
			return m, m.attach(path)
		}
		var cmd tea.Cmd
		m.editor.prompt, cmd = m.editor.prompt.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc":
		m.busy = true
		loc := m.sess.Location()
		ctx := m.ctx
		return m, func() tea.Msg { return navDoneMsg{err: loc.Back(ctx)} }
	case "tab":
		m.editor.cycleFocus()
		return m, nil
	case "ctrl+o":
		m.editor.openPrompt()
		return m, nil
	}
	cmd, err := m.editor.update(msg, ctrl)
	m.setError(err)
	return m, cmd
}

func (m Model) navigate(fragment string) (tea.Model, tea.Cmd) {
	m.busy = true
	loc := m.sess.Location()
	ctx := m.ctx
	return m, func() tea.Msg { return navDoneMsg{err: loc.Navigate(ctx, fragment)} }
}

func (m Model) refresh() tea.Cmd {
	st := m.sess.Store()
	ctx := m.ctx
	return func() tea.Msg { return refreshDoneMsg{err: st.Refresh(ctx)} }
}

func (m Model) attach(path string) tea.Cmd {
	ctrl := m.sess.Editor()
	ctx := m.ctx
	return func() tea.Msg {
		f, closer, err := media.OpenFile(path)
		if err != nil {
			return mediaDoneMsg{err: err}
		}
		defer closer.Close()
		return mediaDoneMsg{err: ctrl.AttachMedia(ctx, f)}
	}
}

// afterNavigation syncs the screen with wherever the controller ended up.
func (m *Model) afterNavigation() {
	if m.sess.Blocked() {
		m.screen = screenBlocked
		return
	}
	if m.sess.Editor().State() == editor.Open {
		m.openEditor()
		return
	}
	m.screen = screenGrid
	setSnippets(&m.grid, m.sess.Store().All())
}

func (m *Model) openEditor() {
	snap, ok := m.sess.Editor().Snapshot()
	if !ok {
		m.screen = screenGrid
		return
	}
	m.editor.load(snap, m.sess.Editor().Fields())
	m.screen = screenEditor
}

func (m *Model) handleEvent(e editor.Event) {
	switch e.Kind {
	case editor.EventAutosaved:
		m.setInfo("saved " + e.Snippet.LastModificationDate.Local().Format(time.Kitchen))
	case editor.EventMediaChanged:
		m.editor.snippet = e.Snippet
	case editor.EventClosed:
		switch e.Outcome {
		case editor.Deleted:
			m.setInfo("empty snippet removed")
		case editor.Saved:
			m.setInfo("saved")
		case editor.Failed:
			m.setError(fmt.Errorf("last changes to snippet %s may not have been saved", e.Snippet.ID))
		}
		setSnippets(&m.grid, m.sess.Store().All())
	}
}

func (m *Model) setInfo(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(err error) {
	if err == nil {
		return
	}
	m.status, m.statusErr = apperror.UserMessage(err), true
}

func (m Model) relisten() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	return m.bridge.listen()
}

func (m Model) View() string {
	if m.screen == screenBlocked {
		return m.viewBlocked()
	}

	var body, help string
	switch m.screen {
	case screenEditor:
		body = m.editor.view(m.theme, m.sess.Editor())
		help = "tab: next field  ctrl+o: attach media  esc: back"
		if m.editor.prompting {
			help = "enter: upload  esc: cancel"
		}
	default:
		body = m.grid.View()
		help = "enter: open  n: new  r: refresh  /: filter  q: quit"
	}

	status := m.theme.subtle.Render(m.status)
	if m.statusErr {
		status = m.theme.errorMsg.Render(m.status)
	}
	if m.busy {
		status = m.theme.subtle.Render("working…")
	}
	return strings.Join([]string{body, status, m.theme.subtle.Render(help)}, "\n")
}

func (m Model) viewBlocked() string {
	msg := m.theme.banner.Render("Access to the host was revoked.\n\nPair this device again, then restart.")
	hint := m.theme.subtle.Render("q: quit")
	if m.width == 0 || m.height == 0 {
		return msg + "\n" + hint
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, msg+"\n\n"+hint)
}

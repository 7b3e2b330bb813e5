package tui

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-desk/internal/autosave"
	"github.com/sakif/snippet-desk/internal/editor"
	"github.com/sakif/snippet-desk/internal/hostapi"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/session"
)

type memHost struct {
	mu      sync.Mutex
	denied  bool
	records map[string]model.Snippet
	updates int
	deletes int
}

func (h *memHost) handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		if h.denied {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(model.HostStatus{IsServerRunning: true, AccentColor: "#10b981", ThemeMode: "dark"})
	})
	r.Get("/api/snippets", func(w http.ResponseWriter, _ *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		out := []model.Snippet{}
		for _, s := range h.records {
			out = append(out, s)
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	r.Post("/api/snippets/create", func(w http.ResponseWriter, req *http.Request) {
		var s model.Snippet
		_ = json.NewDecoder(req.Body).Decode(&s)
		h.mu.Lock()
		s.ID = model.ID(strconv.Itoa(len(h.records) + 100))
		h.records[s.ID.String()] = s
		h.mu.Unlock()
		_ = json.NewEncoder(w).Encode(s)
	})
	r.Post("/api/snippets/update", func(w http.ResponseWriter, req *http.Request) {
		var s model.Snippet
		_ = json.NewDecoder(req.Body).Decode(&s)
		h.mu.Lock()
		h.updates++
		h.records[s.ID.String()] = s
		h.mu.Unlock()
	})
	r.Post("/api/snippets/delete", func(w http.ResponseWriter, req *http.Request) {
		h.mu.Lock()
		h.deletes++
		delete(h.records, req.URL.Query().Get("id"))
		h.mu.Unlock()
	})
	return r
}

func newTestModel(t *testing.T, host *memHost) (Model, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(host.handler())
	t.Cleanup(srv.Close)

	sess, err := session.New(session.Config{
		Host:         hostapi.Config{BaseURL: srv.URL},
		PollInterval: time.Hour,
		Clock:        autosave.NewManualClock(time.Now()),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	_ = sess.Start(context.Background())
	t.Cleanup(func() { _ = sess.Shutdown(context.Background()) })

	m := New(context.Background(), sess, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), sess
}

// press sends a key and runs the resulting command, feeding our own
// messages back.
func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(Model)
	if cmd == nil {
		return m
	}

	// Widget commands (cursor blink) may wait on a timer; only ours matter.
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		switch msg.(type) {
		case navDoneMsg, refreshDoneMsg, mediaDoneMsg:
			next, _ = m.Update(msg)
			m = next.(Model)
		}
	case <-time.After(2 * time.Second):
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestModel_BlockedScreen(t *testing.T) {
	host := &memHost{denied: true, records: map[string]model.Snippet{}}
	m, _ := newTestModel(t, host)

	assert.Equal(t, screenBlocked, m.screen)
	assert.Contains(t, m.View(), "revoked")

	m = press(t, m, runes("n"))
	assert.Equal(t, screenBlocked, m.screen, "no navigation while blocked")
}

func TestModel_NewTypeAndBack(t *testing.T) {
	host := &memHost{records: map[string]model.Snippet{}}
	m, sess := newTestModel(t, host)
	require.Equal(t, screenGrid, m.screen)

	m = press(t, m, runes("n"))
	require.Equal(t, screenEditor, m.screen)
	assert.Equal(t, editor.Open, sess.Editor().State())

	for _, r := range "Hi" {
		m = press(t, m, runes(string(r)))
	}
	assert.Equal(t, "Hi", sess.Editor().Fields().Title)
	assert.True(t, sess.Editor().AutosavePending())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenGrid, m.screen)
	assert.Equal(t, editor.Closed, sess.Editor().State())

	host.mu.Lock()
	defer host.mu.Unlock()
	assert.Equal(t, 1, host.updates)
	assert.Zero(t, host.deletes)
}

func TestModel_CodeFieldDrivesGutter(t *testing.T) {
	host := &memHost{records: map[string]model.Snippet{}}
	m, sess := newTestModel(t, host)

	m = press(t, m, runes("n"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, fieldCode, m.editor.focus)

	m = press(t, m, runes("a"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, runes("b"))

	assert.Equal(t, "a\nb", sess.Editor().Fields().Code)
	assert.Equal(t, 2, sess.Editor().Gutter().State().Lines)
	assert.Contains(t, m.View(), "2")
}

func TestModel_LongCodeLineKeepsGutterAligned(t *testing.T) {
	host := &memHost{records: map[string]model.Snippet{}}
	m, sess := newTestModel(t, host)

	m = press(t, m, runes("n"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	long := strings.Repeat("x", 300)
	m = press(t, m, runes(long))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, runes("y"))

	assert.Equal(t, 1, m.editor.code.Line())
	assert.Equal(t, 0, sess.Editor().Gutter().State().Offset)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.editor.code.Line())
	assert.Equal(t, 1, m.editor.code.LineInfo().Height, "code lines are not soft-wrapped")
	assert.Equal(t, long+"\ny", sess.Editor().Fields().Code)
}

func TestModel_RefusedEditIsShown(t *testing.T) {
	host := &memHost{records: map[string]model.Snippet{}}
	m, sess := newTestModel(t, host)

	m = press(t, m, runes("n"))
	require.Equal(t, screenEditor, m.screen)
	require.NoError(t, sess.Editor().Close(context.Background()))

	m = press(t, m, runes("z"))
	assert.True(t, m.statusErr)
	assert.NotEmpty(t, m.status)
}

func TestBridge_DenialSurvivesFullBuffer(t *testing.T) {
	b := NewBridge()
	for i := 0; i < cap(b.ch)+10; i++ {
		b.Notify(assert.AnError)
	}
	b.OnDenied(assert.AnError)
	b.OnDenied(assert.AnError)

	msg := b.listen()()
	assert.IsType(t, deniedMsg{}, msg)
	assert.IsType(t, notifyMsg{}, b.listen()())
}

func TestModel_EscClosesPromptFirst(t *testing.T) {
	host := &memHost{records: map[string]model.Snippet{}}
	m, sess := newTestModel(t, host)

	m = press(t, m, runes("n"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.True(t, m.editor.prompting)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.editor.prompting)
	assert.Equal(t, screenEditor, m.screen)
	assert.Equal(t, editor.Open, sess.Editor().State())
}

func TestSnippetItem(t *testing.T) {
	it := snippetItem{snippet: model.Snippet{
		CodeContent: "\n  fmt.Println(1)\nreturn",
		MediaPaths:  []string{"media/a.png"},
		Categories:  []string{"go", "cli"},
	}}

	assert.Equal(t, "(untitled)", it.Title())
	desc := it.Description()
	assert.True(t, strings.HasPrefix(desc, "fmt.Println(1)"))
	assert.Contains(t, desc, "[1 media]")
	assert.Contains(t, desc, "#go #cli")
}

func TestNewTheme(t *testing.T) {
	th := newTheme(model.HostStatus{})
	assert.True(t, th.dark)
	assert.Equal(t, defaultAccent, string(th.accent))

	th = newTheme(model.HostStatus{AccentColor: "#ff0000", ThemeMode: "light"})
	assert.False(t, th.dark)
	assert.Equal(t, "#ff0000", string(th.accent))
}

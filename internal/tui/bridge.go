package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sakif/snippet-desk/internal/editor"
	"github.com/sakif/snippet-desk/internal/model"
)

type (
	notifyMsg struct{ err error }
	eventMsg  struct{ event editor.Event }
	statusMsg struct{ status model.HostStatus }
	deniedMsg struct{ err error }
)

// Bridge carries session callbacks, which run on arbitrary goroutines, into
// the bubbletea update loop. Hand its methods to session.Config.
//
// Denial has its own one-slot channel: the liveness latch fires once, and
// that message must reach the screen even when the event buffer is full.
type Bridge struct {
	ch     chan tea.Msg
	denied chan tea.Msg
}

// NewBridge creates a Bridge.
func NewBridge() *Bridge {
	return &Bridge{ch: make(chan tea.Msg, 64), denied: make(chan tea.Msg, 1)}
}

func (b *Bridge) Notify(err error) { b.send(notifyMsg{err: err}) }
func (b *Bridge) OnEvent(e editor.Event) { b.send(eventMsg{event: e}) }
func (b *Bridge) OnStatus(st model.HostStatus) { b.send(statusMsg{status: st}) }

// OnDenied never loses the message. A second denial while one is still
// queued changes nothing on screen, so it is dropped.
func (b *Bridge) OnDenied(err error) {
	select {
	case b.denied <- deniedMsg{err: err}:
	default:
	}
}

// send never blocks: once the program has quit nobody drains the channel.
func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
	}
}

// listen waits for the next message, denial first.
func (b *Bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.denied:
			return msg
		default:
		}
		select {
		case msg := <-b.denied:
			return msg
		case msg := <-b.ch:
			return msg
		}
	}
}

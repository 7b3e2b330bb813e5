package editor

import (
	"github.com/sakif/snippet-desk/internal/model"
)

// State is the lifecycle state of the editor.
type State int

const (
	Closed State = iota
	Creating
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Creating:
		return "creating"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "closed"
	}
}

// Fields are the live, user-editable values of the open snippet.
type Fields struct {
	Title       string
	Description string
	Code        string
}

// Outcome is what exit reconciliation decided.
type Outcome int

const (
	Discarded Outcome = iota // never created, nothing to do
	Deleted
	Saved
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case Saved:
		return "saved"
	case Failed:
		return "failed"
	default:
		return "discarded"
	}
}

// EventKind classifies controller events.
type EventKind int

const (
	EventOpened EventKind = iota
	EventClosed
	EventMediaChanged
	EventAutosaved
)

// Event is emitted to the presentation layer after a transition.
type Event struct {
	Kind    EventKind
	Snippet model.Snippet
	Outcome Outcome // set for EventClosed
}

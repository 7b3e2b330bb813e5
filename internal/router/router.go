// Package router maps the navigable location fragment to a logical view.
//
// FRAGMENTS:
//
//	""                → Grid
//	"snippet/<id>"    → Edit(id)
//	"snippet/new"     → Edit(new)
//
// A leading "#" is accepted and ignored. Anything unrecognised is the grid.
// The router itself is a pure classifier; Location carries the history and
// fires listeners on every navigation.
package router

import (
	"strings"

	"github.com/sakif/snippet-desk/internal/model"
)

// Kind is the logical view a fragment resolves to.
type Kind int

const (
	Grid Kind = iota
	EditExisting
	EditNew
)

func (k Kind) String() string {
	switch k {
	case EditExisting:
		return "edit"
	case EditNew:
		return "new"
	default:
		return "grid"
	}
}

const (
	snippetPrefix = "snippet/"
	newSegment    = "new"
)

// View is a view directive consumed by the editor controller and the grid.
type View struct {
	Kind Kind
	ID   model.ID // set only for EditExisting
}

// GridView is the directive for the snippet grid.
var GridView = View{Kind: Grid}

// NewView is the directive for creating a snippet.
var NewView = View{Kind: EditNew}

// EditView returns the directive for editing id.
func EditView(id model.ID) View { return View{Kind: EditExisting, ID: id} }

// Parse classifies a fragment.
func Parse(fragment string) View {
	f := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(fragment), "#"))
	if !strings.HasPrefix(f, snippetPrefix) {
		return GridView
	}
	rest := strings.Trim(strings.TrimPrefix(f, snippetPrefix), "/")
	switch {
	case rest == "":
		return GridView
	case rest == newSegment:
		return NewView
	default:
		return EditView(model.ID(rest))
	}
}

// Fragment is the inverse of Parse.
func (v View) Fragment() string {
	switch v.Kind {
	case EditNew:
		return snippetPrefix + newSegment
	case EditExisting:
		if v.ID.IsZero() {
			return ""
		}
		return snippetPrefix + v.ID.String()
	default:
		return ""
	}
}

// IsEdit reports whether the view opens the editor.
func (v View) IsEdit() bool { return v.Kind == EditExisting || v.Kind == EditNew }

func (v View) String() string {
	if v.Kind == EditExisting {
		return "edit:" + v.ID.String()
	}
	return v.Kind.String()
}

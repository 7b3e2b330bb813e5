package router

import (
	"context"
	"errors"
	"sync"
)

// Listener evaluates a view after the location changed. Navigation methods
// return only after every listener has returned, which is how the editor holds
// navigation until its exit reconciliation has finished.
type Listener func(ctx context.Context, v View) error

// Location is the navigable location with a browser-like history.
//
// Navigate, Back and Forward all fire listeners through the same path, so
// programmatic and user-driven navigation can never diverge. Replace rewrites
// the current entry in place and does not fire.
type Location struct {
	mu        sync.Mutex
	entries   []string
	idx       int
	listeners []Listener
}

// NewLocation starts a history at the given fragment.
func NewLocation(initial string) *Location {
	return &Location{entries: []string{normalize(initial)}}
}

// OnChange registers a listener.
func (l *Location) OnChange(fn Listener) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

// Current returns the current fragment.
func (l *Location) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[l.idx]
}

// View returns the view for the current fragment.
func (l *Location) View() View { return Parse(l.Current()) }

// Depth returns the number of history entries.
func (l *Location) Depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Navigate pushes fragment as a new history entry and evaluates it.
// Navigating to the current fragment is a no-op.
func (l *Location) Navigate(ctx context.Context, fragment string) error {
	fragment = normalize(fragment)

	l.mu.Lock()
	if l.entries[l.idx] == fragment {
		l.mu.Unlock()
		return nil
	}
	l.entries = append(l.entries[:l.idx+1], fragment)
	l.idx++
	l.mu.Unlock()

	return l.fire(ctx, Parse(fragment))
}

// Back moves one entry back and evaluates it. With no earlier entry it
// navigates to the grid instead, so "back" always leaves the editor.
func (l *Location) Back(ctx context.Context) error {
	l.mu.Lock()
	if l.idx == 0 {
		cur := l.entries[0]
		l.mu.Unlock()
		if cur == "" {
			return nil
		}
		return l.Navigate(ctx, "")
	}
	l.idx--
	fragment := l.entries[l.idx]
	l.mu.Unlock()

	return l.fire(ctx, Parse(fragment))
}

// Forward moves one entry forward, if any, and evaluates it.
func (l *Location) Forward(ctx context.Context) error {
	l.mu.Lock()
	if l.idx >= len(l.entries)-1 {
		l.mu.Unlock()
		return nil
	}
	l.idx++
	fragment := l.entries[l.idx]
	l.mu.Unlock()

	return l.fire(ctx, Parse(fragment))
}

// Replace rewrites the current entry without adding history and without
// evaluating it.
func (l *Location) Replace(fragment string) {
	l.mu.Lock()
	l.entries[l.idx] = normalize(fragment)
	l.mu.Unlock()
}

// ReplaceIf rewrites the current entry only while it still equals expected.
// It reports whether the rewrite happened.
func (l *Location) ReplaceIf(expected, fragment string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries[l.idx] != normalize(expected) {
		return false
	}
	l.entries[l.idx] = normalize(fragment)
	return true
}

// Reload evaluates the current entry again, e.g. on startup.
func (l *Location) Reload(ctx context.Context) error {
	return l.fire(ctx, l.View())
}

func (l *Location) fire(ctx context.Context, v View) error {
	l.mu.Lock()
	listeners := append([]Listener(nil), l.listeners...)
	l.mu.Unlock()

	var errs []error
	for _, fn := range listeners {
		if err := fn(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func normalize(fragment string) string {
	return Parse(fragment).Fragment()
}

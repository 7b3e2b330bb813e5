// Package store holds the most recently fetched snippet collection.
//
// The collection is replaced wholesale on Refresh; readers never observe a
// partially loaded collection. Find never touches the network: staleness is
// resolved by the caller running Refresh again.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/sakif/snippet-desk/internal/model"
)

// Lister fetches the full collection from the host.
type Lister interface {
	List(ctx context.Context) ([]model.Snippet, error)
}

type collection struct {
	items []model.Snippet
	byID  map[model.ID]int
}

// Store caches the snippet collection.
type Store struct {
	host   Lister
	logger *slog.Logger

	mu        sync.RWMutex
	cur       *collection
	listeners []func([]model.Snippet)
}

// New creates an empty Store backed by host.
func New(host Lister, logger *slog.Logger) *Store {
	return &Store{
		host:   host,
		logger: logger,
		cur:    &collection{byID: map[model.ID]int{}},
	}
}

// OnRefresh registers fn to be called with a copy of the collection after
// every successful Refresh.
func (s *Store) OnRefresh(fn func([]model.Snippet)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Refresh fetches the collection and swaps it in atomically. On failure the
// previous collection stays in place.
func (s *Store) Refresh(ctx context.Context) error {
	items, err := s.host.List(ctx)
	if err != nil {
		s.logger.Warn("snippet refresh failed", slog.String("error", err.Error()))
		return fmt.Errorf("store: refreshing: %w", err)
	}

	next := &collection{
		items: make([]model.Snippet, 0, len(items)),
		byID:  make(map[model.ID]int, len(items)),
	}
	for _, it := range items {
		next.items = append(next.items, it.Clone())
	}
	// Newest first.
	sort.SliceStable(next.items, func(i, j int) bool {
		return next.items[i].LastModificationDate.After(next.items[j].LastModificationDate)
	})
	for i, it := range next.items {
		if !it.ID.IsZero() {
			next.byID[it.ID] = i
		}
	}

	s.mu.Lock()
	s.cur = next
	listeners := append([]func([]model.Snippet){}, s.listeners...)
	s.mu.Unlock()

	s.logger.Debug("snippets refreshed", slog.Int("count", len(next.items)))
	for _, fn := range listeners {
		fn(s.All())
	}
	return nil
}

// Find returns the cached record for id.
func (s *Store) Find(id model.ID) (model.Snippet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.cur.byID[id]
	if !ok {
		return model.Snippet{}, false
	}
	return s.cur.items[i].Clone(), true
}

// All returns a copy of the collection, newest first.
func (s *Store) All() []model.Snippet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Snippet, len(s.cur.items))
	for i, it := range s.cur.items {
		out[i] = it.Clone()
	}
	return out
}

// Len returns the number of cached snippets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cur.items)
}

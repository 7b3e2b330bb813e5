// Package session wires the client together: one host client, one store,
// one location, one editor controller and the liveness poller.
//
// Startup order matters. The permission check runs before anything else, and
// a denial leaves the session blocked without a single data fetch.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/snippet-desk/internal/autosave"
	"github.com/sakif/snippet-desk/internal/editor"
	"github.com/sakif/snippet-desk/internal/hostapi"
	"github.com/sakif/snippet-desk/internal/liveness"
	"github.com/sakif/snippet-desk/internal/media"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/router"
	"github.com/sakif/snippet-desk/internal/store"
)

// Config holds everything a Session needs.
type Config struct {
	Host         hostapi.Config
	Debounce     time.Duration
	PollInterval time.Duration
	// Fragment is the location the session starts at; empty means the grid.
	Fragment string
	Clock    autosave.Clock

	Notify   func(error)
	OnEvent  func(editor.Event)
	OnStatus func(model.HostStatus)
	OnDenied func(error)
}

// Session is a running client.
type Session struct {
	client   *hostapi.Client
	store    *store.Store
	loc      *router.Location
	ctrl     *editor.Controller
	media    *media.Manager
	poller   *liveness.Poller
	logger   *slog.Logger
	onDenied func(error)

	mu     sync.Mutex
	status model.HostStatus
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Session. Nothing touches the network until Start.
func New(cfg Config, logger *slog.Logger) (*Session, error) {
	client, err := hostapi.New(cfg.Host, logger)
	if err != nil {
		return nil, err
	}

	s := &Session{
		client:   client,
		store:    store.New(client, logger),
		loc:      router.NewLocation(cfg.Fragment),
		media:    media.NewManager(client, logger),
		logger:   logger,
		onDenied: cfg.OnDenied,
	}
	if s.onDenied == nil {
		s.onDenied = func(error) {}
	}

	s.ctrl = editor.New(client, s.store, s.loc, s.media, logger, editor.Options{
		Debounce: cfg.Debounce,
		Clock:    cfg.Clock,
		Notify:   cfg.Notify,
		OnEvent:  cfg.OnEvent,
	})
	s.loc.OnChange(s.ctrl.Route)

	onStatus := cfg.OnStatus
	s.poller = liveness.New(client, logger, liveness.Options{
		Interval: cfg.PollInterval,
		OnStatus: func(st model.HostStatus) {
			s.mu.Lock()
			s.status = st
			s.mu.Unlock()
			if onStatus != nil {
				onStatus(st)
			}
		},
		OnDenied: s.onDenied,
	})
	return s, nil
}

// Start checks permission, loads the collection, evaluates the starting
// location and begins polling. A denial returns the permission error and
// leaves the session blocked.
func (s *Session) Start(ctx context.Context) error {
	if _, err := s.poller.Check(ctx); err != nil {
		return fmt.Errorf("session: checking host status: %w", err)
	}

	if err := s.store.Refresh(ctx); err != nil {
		return fmt.Errorf("session: loading snippets: %w", err)
	}
	s.logger.Info("session started", slog.Int("snippets", s.store.Len()))

	if err := s.loc.Reload(ctx); err != nil {
		// The controller has already notified and returned to the grid.
		s.logger.Warn("initial location failed", slog.String("error", err.Error()))
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()
	go func() {
		defer close(done)
		s.poller.Run(pollCtx)
	}()
	return nil
}

// Shutdown stops polling and reconciles an open editor.
func (s *Session) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if s.Blocked() {
		return nil
	}
	return s.ctrl.Close(ctx)
}

// Blocked reports whether the host has denied access.
func (s *Session) Blocked() bool { return s.client.Blocked() || s.poller.Denied() }

// Status returns the last good host status.
func (s *Session) Status() model.HostStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Client returns the host client.
func (s *Session) Client() *hostapi.Client { return s.client }

// Store returns the snippet store.
func (s *Session) Store() *store.Store { return s.store }

// Editor returns the detail editor controller.
func (s *Session) Editor() *editor.Controller { return s.ctrl }

// Location returns the navigable location.
func (s *Session) Location() *router.Location { return s.loc }

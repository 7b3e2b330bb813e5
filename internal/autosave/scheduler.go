// Package autosave coalesces bursts of edits into a single deferred write.
//
// It is a trailing-edge debounce: every Notify restarts the quiet window and
// only the last window of an idle period fires. The scheduler knows nothing
// about the payload; the fire callback materializes it from the live fields at
// fire time.
//
// A write that is already running is never cancelled. A newer edit starts its
// own window and will issue its own write, so two writes from different
// windows may overlap in flight with no ordering guarantee between them.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a pending write fires.
const DefaultDelay = 1500 * time.Millisecond

// DefaultWriteTimeout bounds a single fired write.
const DefaultWriteTimeout = 30 * time.Second

// Timer is the cancellable handle of a scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The zero Options use the wall clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Options configures a Scheduler.
type Options struct {
	Delay        time.Duration
	WriteTimeout time.Duration
	Clock        Clock
}

// Scheduler is a re-armable, cancellable debounce.
type Scheduler struct {
	delay        time.Duration
	writeTimeout time.Duration
	clock        Clock
	fire         func(ctx context.Context)
	logger       *slog.Logger

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// New creates a Scheduler that calls fire once per idle period.
func New(opts Options, fire func(ctx context.Context), logger *slog.Logger) *Scheduler {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Clock == nil {
		opts.Clock = wallClock{}
	}
	return &Scheduler{
		delay:        opts.Delay,
		writeTimeout: opts.WriteTimeout,
		clock:        opts.Clock,
		fire:         fire,
		logger:       logger,
	}
}

// Delay returns the configured quiet period.
func (s *Scheduler) Delay() time.Duration { return s.delay }

// Notify (re)starts the quiet window. Any pending write is cancelled first.
func (s *Scheduler) Notify() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delay, func() { s.run(gen) })
}

// Cancel drops a pending, not yet fired write. It reports whether one was pending.
func (s *Scheduler) Cancel() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	s.gen++
	return true
}

// Pending reports whether a write is scheduled but has not fired.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) run(gen uint64) {
	s.mu.Lock()
	// A Notify or Cancel raced with expiry; the newer state wins.
	if gen != s.gen || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	s.logger.Debug("autosave window expired", slog.Duration("delay", s.delay))
	s.fire(ctx)
}

package autosave

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestScheduler(t *testing.T, fire func(ctx context.Context)) (*Scheduler, *ManualClock) {
	t.Helper()
	clock := NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := New(Options{Clock: clock}, fire, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return s, clock
}

func TestNotify_BurstCollapsesToOneWrite(t *testing.T) {
	var value string
	var sent []string
	s, clock := newTestScheduler(t, func(context.Context) { sent = append(sent, value) })

	for _, v := range []string{"H", "He", "Hel", "Hell", "Hello"} {
		value = v
		s.Notify()
		clock.Advance(500 * time.Millisecond)
	}
	assert.Empty(t, sent, "window keeps restarting while typing")

	clock.Advance(DefaultDelay)
	assert.Equal(t, []string{"Hello"}, sent, "payload is read at fire time")
	assert.False(t, s.Pending())
}

func TestNotify_FiresExactlyAtDelay(t *testing.T) {
	var fired atomic.Int32
	s, clock := newTestScheduler(t, func(context.Context) { fired.Add(1) })

	s.Notify()
	clock.Advance(DefaultDelay - time.Millisecond)
	assert.Zero(t, fired.Load())
	clock.Advance(time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestNotify_SeparateWindowsWriteSeparately(t *testing.T) {
	var fired atomic.Int32
	s, clock := newTestScheduler(t, func(context.Context) { fired.Add(1) })

	s.Notify()
	clock.Advance(DefaultDelay)
	s.Notify()
	clock.Advance(DefaultDelay)
	assert.Equal(t, int32(2), fired.Load())
}

func TestCancel_DropsPendingWrite(t *testing.T) {
	var fired atomic.Int32
	s, clock := newTestScheduler(t, func(context.Context) { fired.Add(1) })

	s.Notify()
	assert.True(t, s.Pending())
	assert.True(t, s.Cancel())
	clock.Advance(time.Minute)

	assert.Zero(t, fired.Load())
	assert.False(t, s.Cancel(), "nothing left to cancel")
	assert.Zero(t, clock.Scheduled())
}

func TestFire_ContextHasDeadline(t *testing.T) {
	var hasDeadline bool
	s, clock := newTestScheduler(t, func(ctx context.Context) { _, hasDeadline = ctx.Deadline() })

	s.Notify()
	clock.Advance(DefaultDelay)
	assert.True(t, hasDeadline)
}

func TestWallClock_Fires(t *testing.T) {
	done := make(chan struct{})
	s := New(Options{Delay: 10 * time.Millisecond}, func(context.Context) { close(done) },
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Notify()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never fired")
	}
}

// Package liveness polls the host's /status endpoint while the client runs.
//
// The first failed poll latches the client into the denied state: the host
// client is blocked so nothing else reaches the network, OnDenied runs once,
// and polling stops for good.
package liveness

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/model"
)

// DefaultInterval is the time between two polls.
const DefaultInterval = 5 * time.Second

// Host is what the poller needs from the host client.
type Host interface {
	Status(ctx context.Context) (model.HostStatus, error)
	Block()
}

// Options configures a Poller.
type Options struct {
	Interval time.Duration
	OnStatus func(model.HostStatus)
	OnDenied func(error)
}

// Poller runs the periodic permission check.
type Poller struct {
	host     Host
	logger   *slog.Logger
	interval time.Duration
	onStatus func(model.HostStatus)
	onDenied func(error)

	mu     sync.Mutex
	denied bool
	last   model.HostStatus
}

// New creates a Poller.
func New(host Host, logger *slog.Logger, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	p := &Poller{
		host:     host,
		logger:   logger,
		interval: opts.Interval,
		onStatus: opts.OnStatus,
		onDenied: opts.OnDenied,
	}
	if p.onStatus == nil {
		p.onStatus = func(model.HostStatus) {}
	}
	if p.onDenied == nil {
		p.onDenied = func(error) {}
	}
	return p
}

// Check polls once. Any failure is reported as a permission denial and
// latches the poller.
func (p *Poller) Check(ctx context.Context) (model.HostStatus, error) {
	if p.Denied() {
		return model.HostStatus{}, apperror.PermissionDenied("access to the host was revoked", nil)
	}

	st, err := p.host.Status(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down, not a denial.
			return model.HostStatus{}, ctx.Err()
		}
		p.deny(err)
		return model.HostStatus{}, err
	}

	p.mu.Lock()
	p.last = st
	p.mu.Unlock()
	p.onStatus(st)
	return st, nil
}

// Run polls every interval until ctx is done or the host denies access.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Check(ctx); err != nil {
				if p.Denied() {
					return
				}
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// Denied reports whether access has been lost.
func (p *Poller) Denied() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.denied
}

// Last returns the most recent successful status.
func (p *Poller) Last() model.HostStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Poller) deny(err error) {
	p.mu.Lock()
	if p.denied {
		p.mu.Unlock()
		return
	}
	p.denied = true
	p.mu.Unlock()

	p.host.Block()
	p.logger.Warn("host denied access", slog.String("error", err.Error()))
	p.onDenied(err)
}

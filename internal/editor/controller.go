// Package editor owns the lifecycle of the one snippet currently being edited.
//
// STATE MACHINE:
//
//	CLOSED ──Edit(new)──▶ CREATING ──create ok──▶ OPEN
//	   ▲                     │ create failed          │ field edit → autosave (self loop)
//	   │                     ▼                        │ media upload → adopt record (self loop)
//	   └──────────────── CLOSED ◀── CLOSING ◀─────────┘ navigate away
//
// Edit(id) opens a cached record directly; an id the store does not know is
// treated as already gone and routes back to the grid.
//
// Leaving the editor runs exit reconciliation before the next view is shown:
// a created snippet with no title, description, code or media is deleted,
// anything else gets one final save with the live field values.
//
// The open snippet is owned here. Other components only ever receive copies.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/autosave"
	"github.com/sakif/snippet-desk/internal/gutter"
	"github.com/sakif/snippet-desk/internal/media"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/router"
)

// Host is the subset of the host API the controller writes through.
type Host interface {
	Create(ctx context.Context, s model.Snippet) (model.Snippet, error)
	Update(ctx context.Context, s model.Snippet) error
	Delete(ctx context.Context, id model.ID) error
}

// Store is the snippet cache.
type Store interface {
	Find(id model.ID) (model.Snippet, bool)
	Refresh(ctx context.Context) error
}

// Location is the navigable location; the controller only ever rewrites it
// in place.
type Location interface {
	ReplaceIf(expected, fragment string) bool
}

// Uploader attaches media to a saved snippet.
type Uploader interface {
	Upload(ctx context.Context, s model.Snippet, f media.File) (model.Snippet, error)
}

// Options configures a Controller.
type Options struct {
	Debounce time.Duration
	Clock    autosave.Clock
	Now      func() time.Time

	// Notify receives errors the user is blocked on (create, upload, usage).
	Notify func(err error)
	// OnEvent receives transitions for the presentation layer.
	OnEvent func(Event)
}

// Controller is the detail editor state machine.
type Controller struct {
	host   Host
	store  Store
	loc    Location
	media  Uploader
	logger *slog.Logger
	saver  *autosave.Scheduler
	gutter *gutter.Synchronizer

	now     func() time.Time
	notify  func(error)
	onEvent func(Event)

	mu     sync.Mutex
	idle   *sync.Cond
	state  State
	open   *model.Snippet
	fields Fields
	gen    uint64 // bumped on every open and close
	saving int    // autosave writes in flight

	busy       bool
	target     router.View
	next       *router.View
	ticket     uint64 // last ticket handed to a navigation
	nextTicket uint64 // ticket of next
	finished   uint64 // highest ticket whose transition has completed
}

// New creates a closed Controller.
func New(host Host, store Store, loc Location, up Uploader, logger *slog.Logger, opts Options) *Controller {
	c := &Controller{
		host:    host,
		store:   store,
		loc:     loc,
		media:   up,
		logger:  logger,
		gutter:  gutter.New(),
		now:     opts.Now,
		notify:  opts.Notify,
		onEvent: opts.OnEvent,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.notify == nil {
		c.notify = func(error) {}
	}
	if c.onEvent == nil {
		c.onEvent = func(Event) {}
	}
	c.idle = sync.NewCond(&c.mu)
	c.saver = autosave.New(autosave.Options{Delay: opts.Debounce, Clock: opts.Clock}, c.autosave, logger)
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the open snippet with the live fields applied.
func (c *Controller) Snapshot() (model.Snippet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open == nil {
		return model.Snippet{}, false
	}
	return c.materializeLocked(), true
}

// Fields returns the live field values.
func (c *Controller) Fields() Fields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields
}

// Gutter returns the line-number gutter of the code field.
func (c *Controller) Gutter() *gutter.Synchronizer { return c.gutter }

// AutosavePending reports whether a debounced write is waiting to fire.
func (c *Controller) AutosavePending() bool { return c.saver.Pending() }

// Route evaluates a view directive. It returns once the transition, including
// any exit reconciliation, has finished.
//
// While a transition is running, a directive for the same target (or another
// Edit(new) while creating) is dropped; any other directive is queued, latest
// wins, and applied when the running transition finishes. A queued directive
// returns once it has been applied or a newer one has replaced it and
// finished.
func (c *Controller) Route(ctx context.Context, v router.View) error {
	c.mu.Lock()
	if c.busy {
		if v == c.target || (v.Kind == router.EditNew && c.state == Creating) {
			c.mu.Unlock()
			c.logger.Debug("duplicate navigation dropped", slog.String("view", v.String()))
			return nil
		}
		c.ticket++
		ticket := c.ticket
		queued := v
		c.next = &queued
		c.nextTicket = ticket
		c.logger.Debug("navigation queued", slog.String("view", v.String()))
		for c.finished < ticket {
			c.idle.Wait()
		}
		c.mu.Unlock()
		return nil
	}
	c.ticket++
	running := c.ticket
	c.busy = true
	c.target = v
	c.mu.Unlock()

	var errs []error
	for {
		if err := c.apply(ctx, v); err != nil {
			errs = append(errs, err)
		}

		c.mu.Lock()
		c.finished = running
		if c.next == nil {
			c.busy = false
			c.target = router.View{}
			c.idle.Broadcast()
			c.mu.Unlock()
			return errors.Join(errs...)
		}
		c.idle.Broadcast()
		v = *c.next
		running = c.nextTicket
		c.next = nil
		c.target = v
		c.mu.Unlock()
	}
}

// Close leaves the editor, running reconciliation, and waits for every queued
// transition to finish. Used on shutdown.
func (c *Controller) Close(ctx context.Context) error {
	err := c.Route(ctx, router.GridView)
	c.mu.Lock()
	for c.busy {
		c.idle.Wait()
	}
	c.mu.Unlock()
	return err
}

func (c *Controller) apply(ctx context.Context, v router.View) error {
	c.mu.Lock()
	wasOpen := c.state == Open
	var openID model.ID
	if c.open != nil {
		openID = c.open.ID
	}
	c.mu.Unlock()

	if wasOpen {
		if v.Kind == router.EditExisting && v.ID == openID {
			return nil
		}
		c.closeEditor(ctx)
	}

	switch v.Kind {
	case router.EditNew:
		return c.create(ctx)
	case router.EditExisting:
		return c.openExisting(ctx, v.ID)
	default:
		if !wasOpen {
			c.refresh(ctx)
		}
		return nil
	}
}

func (c *Controller) create(ctx context.Context) error {
	c.mu.Lock()
	c.state = Creating
	c.mu.Unlock()

	created, err := c.host.Create(ctx, model.Blank(c.now()))
	if err != nil {
		c.mu.Lock()
		c.state = Closed
		c.mu.Unlock()

		c.logger.Error("failed to create snippet", slog.String("error", err.Error()))
		c.loc.ReplaceIf(router.NewView.Fragment(), router.GridView.Fragment())
		c.notify(err)
		c.refresh(ctx)
		return err
	}

	c.mu.Lock()
	c.openLocked(created)
	snap := c.materializeLocked()
	c.mu.Unlock()

	c.loc.ReplaceIf(router.NewView.Fragment(), router.EditView(created.ID).Fragment())
	c.logger.Info("snippet created", slog.String("id", created.ID.String()))
	c.refresh(ctx)
	c.onEvent(Event{Kind: EventOpened, Snippet: snap})
	return nil
}

func (c *Controller) openExisting(ctx context.Context, id model.ID) error {
	s, ok := c.store.Find(id)
	if !ok {
		// Deleted elsewhere or never existed: already gone, not an error.
		c.logger.Info("snippet not found, returning to grid", slog.String("id", id.String()))
		c.loc.ReplaceIf(router.EditView(id).Fragment(), router.GridView.Fragment())
		c.refresh(ctx)
		return nil
	}

	c.mu.Lock()
	c.openLocked(s)
	snap := c.materializeLocked()
	c.mu.Unlock()

	c.onEvent(Event{Kind: EventOpened, Snippet: snap})
	return nil
}

// openLocked makes s the open snippet. c.mu must be held.
func (c *Controller) openLocked(s model.Snippet) {
	s = s.Clone()
	c.open = &s
	c.fields = Fields{Title: s.Description, Description: s.FullDescription, Code: s.CodeContent}
	c.state = Open
	c.gen++
	c.gutter.ContentChanged(s.CodeContent)
	c.gutter.Scrolled(0)
}

// closeEditor runs OPEN → CLOSING → CLOSED.
func (c *Controller) closeEditor(ctx context.Context) Outcome {
	c.mu.Lock()
	c.state = Closing
	c.saver.Cancel()
	// An autosave already on the wire must land before the final save.
	for c.saving > 0 {
		c.idle.Wait()
	}
	snap := c.materializeLocked()
	c.gen++
	c.mu.Unlock()

	outcome := c.reconcile(ctx, snap)

	c.mu.Lock()
	c.open = nil
	c.fields = Fields{}
	c.state = Closed
	c.mu.Unlock()
	c.gutter.ContentChanged("")

	if !snap.ID.IsZero() {
		c.loc.ReplaceIf(router.EditView(snap.ID).Fragment(), router.GridView.Fragment())
	}
	c.refresh(ctx)
	c.onEvent(Event{Kind: EventClosed, Snippet: snap, Outcome: outcome})
	return outcome
}

// reconcile decides between delete and a final save, against the live values.
func (c *Controller) reconcile(ctx context.Context, s model.Snippet) Outcome {
	if s.ID.IsZero() {
		return Discarded
	}

	if s.IsBlank() {
		if err := c.host.Delete(ctx, s.ID); err != nil {
			c.logger.Error("failed to delete empty snippet",
				slog.String("id", s.ID.String()),
				slog.String("error", err.Error()),
			)
			return Failed
		}
		c.logger.Info("empty snippet deleted", slog.String("id", s.ID.String()))
		return Deleted
	}

	s.LastModificationDate = c.now().UTC()
	if err := c.host.Update(ctx, s); err != nil {
		c.logger.Error("failed to save snippet on close",
			slog.String("id", s.ID.String()),
			slog.String("error", err.Error()),
		)
		return Failed
	}
	c.logger.Info("snippet saved on close", slog.String("id", s.ID.String()))
	return Saved
}

// SetTitle updates the live title and arms autosave.
func (c *Controller) SetTitle(v string) error {
	return c.edit(func(f *Fields) { f.Title = v })
}

// SetDescription updates the live long description and arms autosave.
func (c *Controller) SetDescription(v string) error {
	return c.edit(func(f *Fields) { f.Description = v })
}

// SetCode updates the live code body, re-syncs the gutter and arms autosave.
func (c *Controller) SetCode(v string) error {
	if err := c.edit(func(f *Fields) { f.Code = v }); err != nil {
		return err
	}
	c.gutter.ContentChanged(v)
	return nil
}

// ScrollCode pins the gutter to the code area's scroll offset.
func (c *Controller) ScrollCode(offset int) { c.gutter.Scrolled(offset) }

func (c *Controller) edit(apply func(*Fields)) error {
	c.mu.Lock()
	if c.state != Open {
		c.mu.Unlock()
		return apperror.Usage("no snippet is open for editing")
	}
	apply(&c.fields)
	c.mu.Unlock()

	c.saver.Notify()
	return nil
}

// autosave is the scheduler's fire callback. The payload is read from the
// live fields now, not when the edit happened.
func (c *Controller) autosave(ctx context.Context) {
	c.mu.Lock()
	if c.state != Open || c.open == nil || c.open.ID.IsZero() {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	payload := c.materializeLocked()
	payload.LastModificationDate = c.now().UTC()
	c.saving++
	c.mu.Unlock()

	err := c.host.Update(ctx, payload)

	c.mu.Lock()
	c.saving--
	c.idle.Broadcast()
	c.mu.Unlock()

	if err != nil {
		// Not retried: the next window or the exit save covers it.
		c.logger.Warn("autosave failed",
			slog.String("id", payload.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	c.mu.Lock()
	if c.gen != gen || c.open == nil {
		c.mu.Unlock()
		return
	}
	c.open.Description = payload.Description
	c.open.FullDescription = payload.FullDescription
	c.open.CodeContent = payload.CodeContent
	c.open.LastModificationDate = payload.LastModificationDate
	snap := c.materializeLocked()
	c.mu.Unlock()

	c.logger.Debug("autosaved", slog.String("id", payload.ID.String()))
	c.onEvent(Event{Kind: EventAutosaved, Snippet: snap})
}

// AttachMedia uploads f to the open snippet and adopts the host's record.
// It does not arm autosave: the upload itself is durable.
func (c *Controller) AttachMedia(ctx context.Context, f media.File) error {
	c.mu.Lock()
	if c.state != Open || c.open == nil {
		c.mu.Unlock()
		err := apperror.Usage("open a snippet before attaching media")
		c.notify(err)
		return err
	}
	base := c.open.Clone()
	gen := c.gen
	c.mu.Unlock()

	updated, err := c.media.Upload(ctx, base, f)
	if err != nil {
		c.notify(err)
		return err
	}

	c.mu.Lock()
	if c.gen != gen || c.open == nil {
		c.mu.Unlock()
		c.logger.Info("media upload finished after the editor closed", slog.String("id", base.ID.String()))
		return nil
	}
	adopted := updated.Clone()
	c.open = &adopted
	snap := c.materializeLocked()
	c.mu.Unlock()

	c.onEvent(Event{Kind: EventMediaChanged, Snippet: snap})
	return nil
}

// materializeLocked overlays the live fields on the open snippet. c.mu must be held.
func (c *Controller) materializeLocked() model.Snippet {
	if c.open == nil {
		return model.Snippet{}
	}
	s := c.open.Clone()
	s.Description = c.fields.Title
	s.FullDescription = c.fields.Description
	s.CodeContent = c.fields.Code
	return s
}

func (c *Controller) refresh(ctx context.Context) {
	if err := c.store.Refresh(ctx); err != nil {
		c.logger.Warn("store refresh failed", slog.String("error", err.Error()))
	}
}

package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sadopc/tasklog/internal/model"
)

// DefaultInterval is how often a running timer asks for a display refresh.
const DefaultInterval = time.Second

var ErrSaveInProgress = errors.New("time entry save already in progress")

// Submitter appends a new time entry for a task.
type Submitter interface {
	CreateTimeEntry(ctx context.Context, taskID model.ID, e model.NewTimeEntry) (model.TimeEntry, error)
}

type Option func(*WorkTimer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *WorkTimer) { w.now = now }
}

func WithScheduler(s Scheduler) Option {
	return func(w *WorkTimer) { w.scheduler = s }
}

func WithInterval(d time.Duration) Option {
	return func(w *WorkTimer) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLocation sets the zone used to decide the work date of a saved session.
func WithLocation(loc *time.Location) Option {
	return func(w *WorkTimer) {
		if loc != nil {
			w.loc = loc
		}
	}
}

// WorkTimer measures one work session against a task and submits it as a
// time entry. The scheduled tick never touches the session; it only signals
// on Ticks so the owner can call Refresh.
type WorkTimer struct {
	taskID    model.ID
	submitter Submitter
	scheduler Scheduler
	interval  time.Duration
	now       func() time.Time
	loc       *time.Location

	mu         sync.Mutex
	session    Session
	cancelTick func()
	saving     bool
	ticks      chan struct{}
}

func New(taskID model.ID, sub Submitter, opts ...Option) *WorkTimer {
	w := &WorkTimer{
		taskID:    taskID,
		submitter: sub,
		scheduler: noopScheduler{},
		interval:  DefaultInterval,
		now:       time.Now,
		loc:       time.Local,
		ticks:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WorkTimer) TaskID() model.ID { return w.taskID }

// Ticks delivers a signal on every scheduled tick while running. Signals
// are coalesced; a slow reader sees at most one pending tick.
func (w *WorkTimer) Ticks() <-chan struct{} { return w.ticks }

func (w *WorkTimer) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.State
}

// Elapsed returns the last computed elapsed time without recomputing it.
func (w *WorkTimer) Elapsed() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.Elapsed
}

func (w *WorkTimer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, err := w.session.Start(w.now())
	if err != nil {
		return err
	}
	w.session = next
	w.cancelTick = w.scheduler.Every(w.interval, w.dispatchTick)
	return nil
}

func (w *WorkTimer) dispatchTick() {
	select {
	case w.ticks <- struct{}{}:
	default:
	}
}

// Refresh recomputes elapsed time as now minus the start instant.
func (w *WorkTimer) Refresh() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session = w.session.Tick(w.now())
	return w.session.Elapsed
}

// Stop freezes elapsed time and cancels the tick.
func (w *WorkTimer) Stop() (time.Duration, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, err := w.session.Stop(w.now())
	if err != nil {
		return 0, err
	}
	w.session = next
	w.stopTickLocked()
	return next.Elapsed, nil
}

// Pending describes the entry Save would submit.
func (w *WorkTimer) Pending(description string) (model.NewTimeEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session.State != Stopped {
		return model.NewTimeEntry{}, transitionError("save", w.session.State)
	}
	return w.pendingLocked(description), nil
}

func (w *WorkTimer) pendingLocked(description string) model.NewTimeEntry {
	return model.NewTimeEntry{
		HoursSpent:  HoursFromDuration(w.session.Elapsed),
		WorkDate:    model.DateIn(w.now(), w.loc),
		Description: description,
	}
}

// Save submits the stopped session and returns to Idle. On any error the
// timer stays Stopped so the caller can retry or discard.
func (w *WorkTimer) Save(ctx context.Context, description string) (model.TimeEntry, error) {
	w.mu.Lock()
	if w.session.State != Stopped {
		st := w.session.State
		w.mu.Unlock()
		return model.TimeEntry{}, transitionError("save", st)
	}
	if w.saving {
		w.mu.Unlock()
		return model.TimeEntry{}, ErrSaveInProgress
	}
	entry := w.pendingLocked(description)
	if err := entry.Validate(); err != nil {
		w.mu.Unlock()
		return model.TimeEntry{}, err
	}
	w.saving = true
	w.mu.Unlock()

	created, err := w.submitter.CreateTimeEntry(ctx, w.taskID, entry)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.saving = false
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("save time entry: %w", err)
	}
	w.session, _ = w.session.Reset()
	return created, nil
}

// Discard drops a stopped session without submitting anything.
func (w *WorkTimer) Discard() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.saving {
		return ErrSaveInProgress
	}
	next, err := w.session.Reset()
	if err != nil {
		return err
	}
	w.session = next
	return nil
}

// Close cancels a pending tick on teardown. The session is left as is.
func (w *WorkTimer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopTickLocked()
}

func (w *WorkTimer) stopTickLocked() {
	if w.cancelTick != nil {
		w.cancelTick()
		w.cancelTick = nil
	}
}

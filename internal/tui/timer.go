package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tasklog/internal/model"
	"github.com/sadopc/tasklog/internal/timer"
)

var errNoTimer = errors.New("no timer is running")

const saveTimeout = 30 * time.Second

// timerModel owns at most one WorkTimer. Ticks from the scheduler arrive
// as timerTickMsg through waitForTick; the model recomputes elapsed time
// on the Update loop, never in the scheduler callback.
type timerModel struct {
	sub       timer.Submitter
	scheduler timer.Scheduler
	interval  time.Duration
	loc       *time.Location
	clock     func() time.Time

	work      *timer.WorkTimer
	taskID    model.ID
	taskTitle string
	done      chan struct{}
}

func newTimerModel(sub timer.Submitter, sched timer.Scheduler, interval time.Duration, loc *time.Location) timerModel {
	return timerModel{
		sub:       sub,
		scheduler: sched,
		interval:  interval,
		loc:       loc,
	}
}

func (t timerModel) state() timer.State {
	if t.work == nil {
		return timer.Idle
	}
	return t.work.State()
}

func (t timerModel) running() bool { return t.state() == timer.Running }
func (t timerModel) stopped() bool { return t.state() == timer.Stopped }
func (t timerModel) active() bool  { return t.state() != timer.Idle }

func (t timerModel) elapsed() time.Duration {
	if t.work == nil {
		return 0
	}
	return t.work.Elapsed()
}

func (t *timerModel) start(task model.Task) (tea.Cmd, error) {
	if t.active() {
		return nil, fmt.Errorf("timer already %s on %q", t.state(), t.taskTitle)
	}
	opts := []timer.Option{timer.WithInterval(t.interval), timer.WithLocation(t.loc)}
	if t.scheduler != nil {
		opts = append(opts, timer.WithScheduler(t.scheduler))
	}
	if t.clock != nil {
		opts = append(opts, timer.WithClock(t.clock))
	}
	w := timer.New(task.ID, t.sub, opts...)
	if err := w.Start(); err != nil {
		return nil, err
	}
	t.work = w
	t.taskID = task.ID
	t.taskTitle = task.Title
	t.done = make(chan struct{})
	return t.waitForTick(), nil
}

func (t timerModel) waitForTick() tea.Cmd {
	w, done, id := t.work, t.done, t.taskID
	return func() tea.Msg {
		select {
		case <-w.Ticks():
			return timerTickMsg{taskID: id}
		case <-done:
			return nil
		}
	}
}

// tick refreshes the display and waits for the next signal.
func (t *timerModel) tick(msg timerTickMsg) tea.Cmd {
	if msg.taskID != t.taskID || !t.running() {
		return nil
	}
	t.work.Refresh()
	return t.waitForTick()
}

func (t *timerModel) stop() (time.Duration, error) {
	if t.work == nil {
		return 0, errNoTimer
	}
	d, err := t.work.Stop()
	if err != nil {
		return 0, err
	}
	t.release()
	return d, nil
}

func (t timerModel) pending() (model.NewTimeEntry, error) {
	if t.work == nil {
		return model.NewTimeEntry{}, errNoTimer
	}
	return t.work.Pending("")
}

func (t timerModel) saveCmd(description string) tea.Cmd {
	w := t.work
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		e, err := w.Save(ctx, description)
		if err != nil {
			return errorStatus("Save failed, session kept: %v", err)
		}
		return entrySavedMsg{entry: e}
	}
}

// settle forgets a timer that has returned to Idle after a save.
func (t *timerModel) settle() {
	if t.work != nil && t.work.State() == timer.Idle {
		t.work = nil
		t.taskID = ""
		t.taskTitle = ""
	}
}

func (t *timerModel) discard() error {
	if t.work == nil {
		return errNoTimer
	}
	if err := t.work.Discard(); err != nil {
		return err
	}
	t.work = nil
	t.taskID = ""
	t.taskTitle = ""
	return nil
}

// close cancels the tick on teardown.
func (t *timerModel) close() {
	if t.work != nil {
		t.work.Close()
	}
	t.release()
}

func (t *timerModel) release() {
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
}

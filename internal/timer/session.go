package timer

import (
	"errors"
	"fmt"
	"time"
)

// State is the position of a work session in its lifecycle.
type State int

const (
	Idle State = iota
	Running
	Stopped // frozen, waiting for save or discard
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid timer transition")

func transitionError(op string, from State) error {
	return fmt.Errorf("%s from %s: %w", op, from, ErrInvalidTransition)
}

// Session is the timer state as a plain value. Every transition returns a
// new Session and leaves the receiver untouched.
type Session struct {
	State   State
	Started time.Time
	Elapsed time.Duration
}

// Start is valid only from Idle.
func (s Session) Start(now time.Time) (Session, error) {
	if s.State != Idle {
		return s, transitionError("start", s.State)
	}
	return Session{State: Running, Started: now}, nil
}

// Tick recomputes elapsed time from the fixed start instant. It has no
// effect outside Running.
func (s Session) Tick(now time.Time) Session {
	if s.State != Running {
		return s
	}
	s.Elapsed = sinceStart(s.Started, now)
	return s
}

// Stop is valid only from Running and freezes the elapsed time.
func (s Session) Stop(now time.Time) (Session, error) {
	if s.State != Running {
		return s, transitionError("stop", s.State)
	}
	s.Elapsed = sinceStart(s.Started, now)
	s.State = Stopped
	return s, nil
}

// Reset returns a Stopped session to Idle, clearing elapsed time.
func (s Session) Reset() (Session, error) {
	if s.State != Stopped {
		return s, transitionError("reset", s.State)
	}
	return Session{State: Idle}, nil
}

func sinceStart(start, now time.Time) time.Duration {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

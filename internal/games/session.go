package games

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionActive  = errors.New("a session is already active")
	ErrNoSession      = errors.New("no active session")
	ErrSessionNotDone = errors.New("session still running")
	ErrUnknownGame    = errors.New("unknown game")
	ErrGameplayLocked = errors.New("gameplay is locked for this account")
)

// State of a single play-through. There is no explicit idle state: idle is
// simply the absence of a session. Transitions are one-way and a session is
// never reused after reaching a terminal state.
type State int

const (
	StateRunning State = iota
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Session is one simulated play-through. A cancellable timer drives it from
// running to completed; Abort cancels the timer instead.
type Session struct {
	ID        string
	UserID    string
	Game      Game
	StartedAt time.Time
	Planned   time.Duration

	mu    sync.Mutex
	state State
	timer *time.Timer
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress reports completion in [0, 1] based on elapsed wall time.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCompleted {
		return 1
	}
	if s.state == StateAborted || s.Planned <= 0 {
		return 0
	}
	p := float64(time.Since(s.StartedAt)) / float64(s.Planned)
	if p > 1 {
		p = 1
	}
	return p
}

// complete moves running → completed. Returns false when the session was
// already terminal (e.g. aborted while the timer callback was in flight).
func (s *Session) complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return false
	}
	s.state = StateCompleted
	return true
}

// abort moves running → aborted and cancels the timer. Returns false when
// the session already finished.
func (s *Session) abort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return false
	}
	s.state = StateAborted
	if s.timer != nil {
		s.timer.Stop()
	}
	return true
}

// durationPlayed is the wall time between start and now, capped at the
// planned duration, in whole seconds.
func (s *Session) durationPlayed() int {
	d := time.Since(s.StartedAt)
	if d > s.Planned {
		d = s.Planned
	}
	return int(d / time.Second)
}

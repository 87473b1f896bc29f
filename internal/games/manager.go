package games

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalim4k/luminagame/internal/stats"
)

// Journal is the durable stash for completed-but-unflushed rewards. A
// crash between completion and the flush landing must not lose the reward.
type Journal interface {
	Stash(ctx context.Context, p stats.EarningsPush) error
	Drop(ctx context.Context, sessionID string) error
	PendingAll(ctx context.Context) ([]stats.EarningsPush, error)
}

// Flusher hands a stashed reward to the background queue.
type Flusher interface {
	EnqueueRewardFlush(p stats.EarningsPush, deltaSeq uint64) error
}

// Manager owns at most one active session per user and runs the
// credit-then-persist sequence when a session completes.
type Manager struct {
	engine  *stats.Engine
	journal Journal
	flusher Flusher

	mu     sync.Mutex
	active map[string]*Session // keyed by user id

	durationFor func(Game) time.Duration // test hook
}

func NewManager(engine *stats.Engine, journal Journal, flusher Flusher) *Manager {
	return &Manager{
		engine:  engine,
		journal: journal,
		flusher: flusher,
		active:  make(map[string]*Session),
		durationFor: func(g Game) time.Duration {
			return time.Duration(g.DurationSec) * time.Second
		},
	}
}

// Start begins a play-through for the user. Only one session may exist at
// a time; a finished one must be collected or discarded first.
func (m *Manager) Start(userID string, game Game) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[userID]; ok {
		return nil, ErrSessionActive
	}

	s := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Game:      game,
		StartedAt: time.Now(),
		Planned:   m.durationFor(game),
		state:     StateRunning,
	}
	s.timer = time.AfterFunc(s.Planned, func() {
		if s.complete() {
			m.credit(s)
		}
	})
	m.active[userID] = s
	return s, nil
}

// Active returns the user's current session, if any.
func (m *Manager) Active(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[userID]
	return s, ok
}

// Abort clears the user's session. A running session is cancelled with no
// reward; a completed one is simply discarded, its credit already happened
// when the timer fired.
func (m *Manager) Abort(userID string) error {
	m.mu.Lock()
	s, ok := m.active[userID]
	m.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	s.abort()

	m.remove(userID, s)
	return nil
}

// Collect acknowledges a completed session and clears it, returning the
// reward that was credited. The credit itself already happened when the
// timer fired; collecting is how the session object gets destroyed.
func (m *Manager) Collect(userID string) (Game, int64, error) {
	m.mu.Lock()
	s, ok := m.active[userID]
	m.mu.Unlock()
	if !ok {
		return Game{}, 0, ErrNoSession
	}
	if s.State() != StateCompleted {
		return Game{}, 0, ErrSessionNotDone
	}

	m.remove(userID, s)
	return s.Game, s.Game.Reward, nil
}

// credit runs once per completed session: optimistic local credit, durable
// stash, then async flush. ApplyEarnings is called exactly once here, so a
// retried flush can never double-credit the in-memory store either.
func (m *Manager) credit(s *Session) {
	store := m.engine.ForUser(s.UserID)
	seq, err := store.ApplyEarnings(s.Game.Reward)
	if err != nil {
		log.Printf("[games] credit rejected session=%s: %v", s.ID, err)
		return
	}

	push := stats.EarningsPush{
		SessionID:      s.ID,
		UserID:         s.UserID,
		GameID:         s.Game.ID,
		GameTitle:      s.Game.Title,
		Amount:         s.Game.Reward,
		DurationPlayed: s.durationPlayed(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.journal.Stash(ctx, push); err != nil {
		// The flush task below still carries the payload; the journal is
		// only needed if the queue also loses it.
		log.Printf("[games] journal stash failed session=%s: %v", s.ID, err)
	}

	if err := m.flusher.EnqueueRewardFlush(push, seq); err != nil {
		log.Printf("[games] flush enqueue failed session=%s: %v", s.ID, err)
	}
}

// RecoverPending re-enqueues journaled rewards whose flush never landed,
// typically right after startup. The unique session id downstream keeps a
// recovered duplicate from crediting twice.
func (m *Manager) RecoverPending(ctx context.Context) error {
	pending, err := m.journal.PendingAll(ctx)
	if err != nil {
		return err
	}
	for _, p := range pending {
		if err := m.flusher.EnqueueRewardFlush(p, 0); err != nil {
			log.Printf("[games] recovery enqueue failed session=%s: %v", p.SessionID, err)
		}
	}
	if len(pending) > 0 {
		log.Printf("[games] recovered %d pending reward(s)", len(pending))
	}
	return nil
}

func (m *Manager) remove(userID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.active[userID]; ok && cur == s {
		delete(m.active, userID)
	}
}

package stats

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultPullInterval matches the 15s refresh cadence the dashboard used.
const DefaultPullInterval = 15 * time.Second

// Engine owns one Store per active user and keeps them reconciled against
// the database through a periodic pull. It is created once at startup and
// passed to whoever needs balances; there is no package-level instance.
type Engine struct {
	repo     Repo
	interval time.Duration

	mu    sync.Mutex
	users map[string]*Store
}

func NewEngine(repo Repo, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultPullInterval
	}
	return &Engine{
		repo:     repo,
		interval: interval,
		users:    make(map[string]*Store),
	}
}

// ForUser returns the user's store, creating an empty one on first touch.
// The first Refresh fills it with the authoritative row.
func (e *Engine) ForUser(userID string) *Store {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.users[userID]
	if !ok {
		s = NewStore()
		e.users[userID] = s
	}
	return s
}

// Refresh pulls the user's authoritative stats and reconciles them into
// the store. Used on login, on demand, and by the periodic loop.
func (e *Engine) Refresh(ctx context.Context, userID string) (Snapshot, error) {
	snap, takenAt, err := e.repo.PullStats(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	store := e.ForUser(userID)
	store.Reconcile(snap, takenAt)
	return store.Snapshot(), nil
}

// Forget drops a user's in-memory store (logout, eviction).
func (e *Engine) Forget(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.users, userID)
}

// Repo exposes the backing repository for callers that push directly.
func (e *Engine) Repo() Repo {
	return e.repo
}

// Run pulls every tracked user on the configured interval until ctx is
// cancelled. Pull errors are logged and retried on the next tick; a failed
// pull never rolls back local state.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range e.trackedUsers() {
				if _, err := e.Refresh(ctx, id); err != nil {
					log.Printf("[stats] pull failed for user=%s: %v", id, err)
				}
			}
		}
	}
}

func (e *Engine) trackedUsers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0, len(e.users))
	for id := range e.users {
		ids = append(ids, id)
	}
	return ids
}

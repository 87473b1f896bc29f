package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory Repo for engine tests.
type fakeRepo struct {
	mu       sync.Mutex
	rows     map[string]Snapshot
	pullErr  error
	pushErr  error
	sessions map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rows:     make(map[string]Snapshot),
		sessions: make(map[string]bool),
	}
}

func (r *fakeRepo) PullStats(_ context.Context, userID string) (Snapshot, time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pullErr != nil {
		return Snapshot{}, time.Time{}, r.pullErr
	}
	return r.rows[userID], time.Now(), nil
}

func (r *fakeRepo) PushEarnings(_ context.Context, p EarningsPush) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pushErr != nil {
		return false, r.pushErr
	}
	if r.sessions[p.SessionID] {
		return false, nil
	}
	r.sessions[p.SessionID] = true
	row := r.rows[p.UserID]
	row.EarningsToday += p.Amount
	row.TotalGamesPlayed++
	r.rows[p.UserID] = row
	return true, nil
}

func (r *fakeRepo) PushWithdrawal(_ context.Context, p WithdrawalPush) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pushErr != nil {
		return "", r.pushErr
	}
	row := r.rows[p.UserID]
	if row.AvailableBalance < p.Amount {
		return "", ErrInsufficientBalance
	}
	row.AvailableBalance -= p.Amount
	row.TotalWithdrawn += p.Amount
	r.rows[p.UserID] = row
	return "tx-1", nil
}

func (r *fakeRepo) RecalculateStats(_ context.Context, userID string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[userID], nil
}

func TestEngineRefreshAdoptsAuthoritativeRow(t *testing.T) {
	repo := newFakeRepo()
	repo.rows["u1"] = Snapshot{EarningsToday: 1200, AvailableBalance: 4500, TotalGamesPlayed: 7}
	engine := NewEngine(repo, time.Minute)

	snap, err := engine.Refresh(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, repo.rows["u1"], snap)
	assert.Equal(t, snap, engine.ForUser("u1").Snapshot())
}

func TestEngineRefreshFailureLeavesLocalStateAlone(t *testing.T) {
	repo := newFakeRepo()
	engine := NewEngine(repo, time.Minute)

	store := engine.ForUser("u1")
	_, err := store.ApplyEarnings(500)
	require.NoError(t, err)

	repo.pullErr = errors.New("connection refused")
	_, err = engine.Refresh(context.Background(), "u1")
	require.Error(t, err)

	assert.Equal(t, int64(500), store.Snapshot().EarningsToday)
	assert.Equal(t, 1, store.PendingCount())
}

func TestEngineForUserIsStable(t *testing.T) {
	engine := NewEngine(newFakeRepo(), time.Minute)

	a := engine.ForUser("u1")
	b := engine.ForUser("u1")
	assert.Same(t, a, b)

	engine.Forget("u1")
	c := engine.ForUser("u1")
	assert.NotSame(t, a, c)
}

func TestEngineRunPullsTrackedUsers(t *testing.T) {
	repo := newFakeRepo()
	repo.rows["u1"] = Snapshot{AvailableBalance: 3000}
	engine := NewEngine(repo, 10*time.Millisecond)
	engine.ForUser("u1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return engine.ForUser("u1").Snapshot().AvailableBalance == 3000
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

package stats

import (
	"context"
	"time"
)

// EarningsPush is one completed game session's reward on its way to the
// game_earnings log. SessionID keys the idempotency guarantee: pushing the
// same session twice persists it once.
type EarningsPush struct {
	SessionID      string
	UserID         string
	GameID         string
	GameTitle      string
	Amount         int64
	DurationPlayed int
}

// WithdrawalPush is a validated withdrawal on its way to settlement.
type WithdrawalPush struct {
	UserID   string
	Amount   int64
	Provider string
	Phone    string
}

// Repo bridges the in-memory stores to the authoritative user_stats rows.
type Repo interface {
	// PullStats reads the user's row and reports when the read happened.
	PullStats(ctx context.Context, userID string) (Snapshot, time.Time, error)

	// PushEarnings appends the reward and increments the stats counters in
	// one transaction. Returns false when the session was already recorded.
	PushEarnings(ctx context.Context, p EarningsPush) (bool, error)

	// PushWithdrawal appends a settled withdrawal transaction and debits
	// available_balance atomically. Fails with ErrInsufficientBalance when
	// the stored balance cannot cover the amount.
	PushWithdrawal(ctx context.Context, p WithdrawalPush) (string, error)

	// RecalculateStats recomputes today's earnings and games played from
	// the game_earnings log and writes the result back.
	RecalculateStats(ctx context.Context, userID string) (Snapshot, error)
}

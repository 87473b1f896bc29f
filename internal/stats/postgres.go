package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepo implements Repo against the user_stats, game_earnings and
// transactions tables.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

func (r *PostgresRepo) PullStats(ctx context.Context, userID string) (Snapshot, time.Time, error) {
	var snap Snapshot
	takenAt := time.Now()

	err := r.pool.QueryRow(ctx, `
        SELECT earnings_today, earnings_yesterday, available_balance, total_withdrawn, total_games_played
        FROM user_stats WHERE user_id = $1`,
		userID,
	).Scan(
		&snap.EarningsToday,
		&snap.EarningsYesterday,
		&snap.AvailableBalance,
		&snap.TotalWithdrawn,
		&snap.TotalGamesPlayed,
	)
	if err != nil {
		return Snapshot{}, time.Time{}, fmt.Errorf("pull stats: %w", err)
	}

	return snap, takenAt, nil
}

func (r *PostgresRepo) PushEarnings(ctx context.Context, p EarningsPush) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("push earnings: %w", err)
	}
	defer tx.Rollback(ctx)

	// ON CONFLICT DO NOTHING makes the retried flush a no-op
	tag, err := tx.Exec(ctx, `
        INSERT INTO game_earnings (id, session_id, user_id, game_id, game_title, amount, duration_played)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (session_id) DO NOTHING`,
		uuid.New().String(), p.SessionID, p.UserID, p.GameID, p.GameTitle, p.Amount, p.DurationPlayed,
	)
	if err != nil {
		return false, fmt.Errorf("insert game earning: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Session already recorded; counters were bumped on the first pass
		return false, nil
	}

	_, err = tx.Exec(ctx, `
        UPDATE user_stats
        SET earnings_today = earnings_today + $1,
            total_games_played = total_games_played + 1,
            updated_at = NOW()
        WHERE user_id = $2`,
		p.Amount, p.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("increment stats: %w", err)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO transactions (id, user_id, type, amount, status)
        VALUES ($1, $2, 'game_reward', $3, 'completed')`,
		uuid.New().String(), p.UserID, p.Amount,
	)
	if err != nil {
		return false, fmt.Errorf("record reward transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("push earnings: %w", err)
	}
	return true, nil
}

func (r *PostgresRepo) PushWithdrawal(ctx context.Context, p WithdrawalPush) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("push withdrawal: %w", err)
	}
	defer tx.Rollback(ctx)

	// The balance guard in the WHERE clause is the backstop against two
	// submissions validated off the same stale snapshot.
	tag, err := tx.Exec(ctx, `
        UPDATE user_stats
        SET available_balance = available_balance - $1,
            total_withdrawn = total_withdrawn + $1,
            updated_at = NOW()
        WHERE user_id = $2 AND available_balance >= $1`,
		p.Amount, p.UserID,
	)
	if err != nil {
		return "", fmt.Errorf("debit balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Log the refused attempt on the append-only ledger
		_, _ = r.pool.Exec(ctx, `
            INSERT INTO transactions (id, user_id, type, amount, status, provider, phone)
            VALUES ($1, $2, 'withdrawal', $3, 'failed', $4, $5)`,
			uuid.New().String(), p.UserID, p.Amount, p.Provider, p.Phone,
		)
		return "", ErrInsufficientBalance
	}

	txID := uuid.New().String()
	_, err = tx.Exec(ctx, `
        INSERT INTO transactions (id, user_id, type, amount, status, provider, phone)
        VALUES ($1, $2, 'withdrawal', $3, 'completed', $4, $5)`,
		txID, p.UserID, p.Amount, p.Provider, p.Phone,
	)
	if err != nil {
		return "", fmt.Errorf("record withdrawal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("push withdrawal: %w", err)
	}
	return txID, nil
}

func (r *PostgresRepo) RecalculateStats(ctx context.Context, userID string) (Snapshot, error) {
	_, err := r.pool.Exec(ctx, `
        UPDATE user_stats u
        SET earnings_today = COALESCE(src.total, 0),
            total_games_played = COALESCE(src.games, 0),
            updated_at = NOW()
        FROM (
            SELECT COALESCE(SUM(amount) FILTER (WHERE created_at >= date_trunc('day', NOW())), 0) AS total,
                   COUNT(*) AS games
            FROM game_earnings
            WHERE user_id = $1
        ) src
        WHERE u.user_id = $1`,
		userID,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("recalculate stats: %w", err)
	}

	snap, _, err := r.PullStats(ctx, userID)
	return snap, err
}

package games

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalim4k/luminagame/internal/stats"
)

// PgJournal persists unflushed rewards in the pending_rewards table.
type PgJournal struct {
	pool *pgxpool.Pool
}

func NewPgJournal(pool *pgxpool.Pool) *PgJournal {
	return &PgJournal{pool: pool}
}

func (j *PgJournal) Stash(ctx context.Context, p stats.EarningsPush) error {
	_, err := j.pool.Exec(ctx, `
        INSERT INTO pending_rewards (session_id, user_id, game_id, game_title, amount, duration_played)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (session_id) DO NOTHING`,
		p.SessionID, p.UserID, p.GameID, p.GameTitle, p.Amount, p.DurationPlayed,
	)
	if err != nil {
		return fmt.Errorf("stash reward: %w", err)
	}
	return nil
}

func (j *PgJournal) Drop(ctx context.Context, sessionID string) error {
	_, err := j.pool.Exec(ctx, `DELETE FROM pending_rewards WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("drop reward: %w", err)
	}
	return nil
}

func (j *PgJournal) PendingAll(ctx context.Context) ([]stats.EarningsPush, error) {
	rows, err := j.pool.Query(ctx, `
        SELECT session_id, user_id, game_id, game_title, amount, duration_played
        FROM pending_rewards ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list pending rewards: %w", err)
	}
	defer rows.Close()

	var out []stats.EarningsPush
	for rows.Next() {
		var p stats.EarningsPush
		if err := rows.Scan(&p.SessionID, &p.UserID, &p.GameID, &p.GameTitle, &p.Amount, &p.DurationPlayed); err != nil {
			return nil, fmt.Errorf("scan pending reward: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

package push

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionStore is the push subscriber registry. One row per device
// subscription; a device re-subscribing under a new user moves with it.
type SubscriptionStore interface {
	Save(ctx context.Context, userID, playerID string) error
	Remove(ctx context.Context, userID, playerID string) error
	PlayerIDsExcept(ctx context.Context, excludeUserID string) ([]string, error)
}

type PgSubscriptionStore struct {
	pool *pgxpool.Pool
}

func NewPgSubscriptionStore(pool *pgxpool.Pool) *PgSubscriptionStore {
	return &PgSubscriptionStore{pool: pool}
}

func (s *PgSubscriptionStore) Save(ctx context.Context, userID, playerID string) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO push_subscriptions (player_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (player_id) DO UPDATE SET user_id = EXCLUDED.user_id`,
		playerID, userID,
	)
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

func (s *PgSubscriptionStore) Remove(ctx context.Context, userID, playerID string) error {
	_, err := s.pool.Exec(ctx, `
        DELETE FROM push_subscriptions WHERE player_id = $1 AND user_id = $2`,
		playerID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}
	return nil
}

func (s *PgSubscriptionStore) PlayerIDsExcept(ctx context.Context, excludeUserID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT player_id FROM push_subscriptions WHERE user_id <> $1`,
		excludeUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

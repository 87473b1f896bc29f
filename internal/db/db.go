package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres
func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
	}

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	// Ensure core tables exist
	ensureUsersTable()
	ensureUserStatsTable()
	ensureGameEarningsTable()
	ensureTransactionsTable()
	ensurePendingRewardsTable()
	ensurePushSubscriptionsTable()
	ensureSocialMessagesTable()
}

// ensureUsersTable creates users (profile fields included) if missing
func ensureUsersTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            phone TEXT DEFAULT '',
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'player' CHECK (role IN ('player', 'admin')),
            avatar_url TEXT DEFAULT '',
            play_unlocked BOOLEAN DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		log.Printf("failed to create users table: %v", err)
	}
}

// ensureUserStatsTable creates the authoritative per-user stats row
func ensureUserStatsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS user_stats (
            user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
            earnings_today BIGINT NOT NULL DEFAULT 0 CHECK (earnings_today >= 0),
            earnings_yesterday BIGINT NOT NULL DEFAULT 0 CHECK (earnings_yesterday >= 0),
            available_balance BIGINT NOT NULL DEFAULT 0 CHECK (available_balance >= 0),
            total_withdrawn BIGINT NOT NULL DEFAULT 0 CHECK (total_withdrawn >= 0),
            total_games_played INTEGER NOT NULL DEFAULT 0,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		log.Printf("failed to create user_stats table: %v", err)
	}
}

// ensureGameEarningsTable creates the append-only reward log.
// session_id is unique so a retried flush can never credit twice.
func ensureGameEarningsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS game_earnings (
            id UUID PRIMARY KEY,
            session_id UUID NOT NULL UNIQUE,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            game_id TEXT NOT NULL,
            game_title TEXT NOT NULL,
            amount BIGINT NOT NULL CHECK (amount > 0),
            duration_played INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_game_earnings_user_created ON game_earnings(user_id, created_at);
    `)
	if err != nil {
		log.Printf("failed to create game_earnings table: %v", err)
	}
}

// ensureTransactionsTable creates the append-only withdrawal/earning log
func ensureTransactionsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS transactions (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            type TEXT NOT NULL CHECK (type IN ('withdrawal', 'game_reward', 'admin_credit')),
            amount BIGINT NOT NULL CHECK (amount > 0),
            status TEXT NOT NULL CHECK (status IN ('completed', 'pending', 'failed')),
            provider TEXT DEFAULT '',
            phone TEXT DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions(user_id, created_at);
    `)
	if err != nil {
		log.Printf("failed to create transactions table: %v", err)
	}
}

// ensurePendingRewardsTable creates the journal of completed-but-unflushed
// session rewards, drained on startup and by the flush worker
func ensurePendingRewardsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS pending_rewards (
            session_id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            game_id TEXT NOT NULL,
            game_title TEXT NOT NULL,
            amount BIGINT NOT NULL CHECK (amount > 0),
            duration_played INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		log.Printf("failed to create pending_rewards table: %v", err)
	}
}

// ensurePushSubscriptionsTable creates the push subscriber registry
func ensurePushSubscriptionsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS push_subscriptions (
            player_id TEXT PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_push_subscriptions_user ON push_subscriptions(user_id);
    `)
	if err != nil {
		log.Printf("failed to create push_subscriptions table: %v", err)
	}
}

// ensureSocialMessagesTable creates the chat feed table
func ensureSocialMessagesTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS social_messages (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            pseudo TEXT NOT NULL,
            message TEXT NOT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_social_messages_created ON social_messages(created_at);
    `)
	if err != nil {
		log.Printf("failed to create social_messages table: %v", err)
	}
}

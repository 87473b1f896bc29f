package gate

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrBadAccessCode = errors.New("invalid access code")

// Service verifies operator access codes and tracks which accounts have
// gameplay unlocked. The code lives server-side only; clients submit their
// attempt and get a yes/no. Built once at startup with an explicit
// initialized flag instead of package state.
type Service struct {
	pool        *pgxpool.Pool
	codeDigest  [32]byte
	initialized bool
}

// New builds the service. An empty access code leaves the gate closed for
// everyone, which is the safe default for a misconfigured deployment.
func New(pool *pgxpool.Pool, accessCode string) *Service {
	s := &Service{pool: pool}
	if accessCode != "" {
		s.codeDigest = sha256.Sum256([]byte(accessCode))
		s.initialized = true
	}
	return s
}

// verify compares the submitted code in constant time.
func (s *Service) verify(code string) bool {
	if !s.initialized {
		return false
	}
	digest := sha256.Sum256([]byte(code))
	return subtle.ConstantTimeCompare(digest[:], s.codeDigest[:]) == 1
}

// Unlock validates the access code and marks the user's account as
// play-enabled. Idempotent for already-unlocked accounts.
func (s *Service) Unlock(ctx context.Context, userID, code string) error {
	if !s.verify(code) {
		return ErrBadAccessCode
	}

	_, err := s.pool.Exec(ctx, `UPDATE users SET play_unlocked = TRUE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("unlock gameplay: %w", err)
	}
	return nil
}

// Unlocked reports whether the user may start game sessions.
func (s *Service) Unlocked(ctx context.Context, userID string) (bool, error) {
	var unlocked bool
	err := s.pool.QueryRow(ctx, `
        SELECT COALESCE(play_unlocked, FALSE) FROM users WHERE id = $1
    `, userID).Scan(&unlocked)
	if err != nil {
		return false, fmt.Errorf("check gate: %w", err)
	}
	return unlocked, nil
}

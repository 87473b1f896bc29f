package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kalim4k/luminagame/internal/stats"
)

// MinWithdrawal is the smallest amount a user may cash out, in FCFA.
const MinWithdrawal = 2000

// minPhoneDigits is the shortest phone number any supported operator issues.
const minPhoneDigits = 8

// Providers are the supported mobile money operators.
var Providers = []string{"Orange", "MTN", "Moov", "Wave"}

// ValidationError blocks a withdrawal before any remote call is made. The
// reason is safe to display to the user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Status of a withdrawal request. idle → submitted → settled | failed;
// terminal requests are never resurrected.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSubmitted Status = "submitted"
	StatusSettled   Status = "settled"
	StatusFailed    Status = "failed"
)

// Request is one user-submitted withdrawal.
type Request struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      int64     `json:"amount"`
	Provider    string    `json:"provider"`
	Phone       string    `json:"phone"`
	Status      Status    `json:"status"`
	TxID        string    `json:"transaction_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Pusher settles a validated withdrawal against the authoritative balance.
type Pusher interface {
	PushWithdrawal(ctx context.Context, p stats.WithdrawalPush) (string, error)
}

// Flow validates and settles withdrawals against the stats engine.
// Settlement is immediate: there is no payment-rail callback to wait for.
type Flow struct {
	engine *stats.Engine
	pusher Pusher
}

func NewFlow(engine *stats.Engine, pusher Pusher) *Flow {
	return &Flow{engine: engine, pusher: pusher}
}

// validate runs the local checks in display order. available is the
// freshest balance the caller knows; a stale value here is exactly the race
// documented in the scheduling model, and the SQL debit guard backstops it.
func validate(amount int64, provider, phone string, available int64) error {
	if amount < MinWithdrawal {
		return &ValidationError{Reason: fmt.Sprintf("minimum withdrawal is %d FCFA", MinWithdrawal)}
	}
	if amount > available {
		return stats.ErrInsufficientBalance
	}
	validProvider := false
	for _, p := range Providers {
		if p == provider {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return &ValidationError{Reason: "unsupported payment provider"}
	}
	if len(digitsOf(phone)) < minPhoneDigits {
		return &ValidationError{Reason: "phone number is too short"}
	}
	return nil
}

func digitsOf(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}

// Submit validates the request against the freshest known balance, pushes
// the debit, and on success applies it locally. On a remote failure the
// request ends failed and the local store is left untouched.
func (f *Flow) Submit(ctx context.Context, userID string, amount int64, provider, phone string) (*Request, error) {
	store := f.engine.ForUser(userID)

	if err := validate(amount, provider, phone, store.Snapshot().AvailableBalance); err != nil {
		return nil, err
	}

	req := &Request{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      amount,
		Provider:    provider,
		Phone:       phone,
		Status:      StatusSubmitted,
		SubmittedAt: time.Now(),
	}

	txID, err := f.pusher.PushWithdrawal(ctx, stats.WithdrawalPush{
		UserID:   userID,
		Amount:   amount,
		Provider: provider,
		Phone:    phone,
	})
	if err != nil {
		req.Status = StatusFailed
		if errors.Is(err, stats.ErrInsufficientBalance) {
			return req, err
		}
		return req, fmt.Errorf("withdrawal push: %w", err)
	}

	req.Status = StatusSettled
	req.TxID = txID

	// The remote debit is already durable; apply locally and acknowledge
	// right away so the next pull does not replay the delta.
	if seq, applyErr := store.ApplyWithdrawal(amount); applyErr == nil {
		store.Acknowledge(seq)
	}
	return req, nil
}

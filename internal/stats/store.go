package stats

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Snapshot is a read-only copy of one user's numeric stats. Amounts are
// whole FCFA.
type Snapshot struct {
	EarningsToday     int64 `json:"earnings_today"`
	EarningsYesterday int64 `json:"earnings_yesterday"`
	AvailableBalance  int64 `json:"available_balance"`
	TotalWithdrawn    int64 `json:"total_withdrawn"`
	TotalGamesPlayed  int   `json:"total_games_played"`
}

type deltaKind int

const (
	deltaEarnings deltaKind = iota
	deltaWithdrawal
)

// delta is a local optimistic mutation that has not yet been confirmed
// persisted server-side. AppliedAt orders it against pull snapshots.
type delta struct {
	seq       uint64
	kind      deltaKind
	amount    int64
	appliedAt time.Time
}

// Store holds the in-session stats for a single user. It is the only
// place local code mutates balances; the authoritative copy lives in
// user_stats and is folded back in through Reconcile.
type Store struct {
	mu      sync.Mutex
	snap    Snapshot
	nextSeq uint64
	pending []delta

	now func() time.Time // test hook
}

func NewStore() *Store {
	return &Store{nextSeq: 1, now: time.Now}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// ApplyEarnings credits a finished game's reward to today's earnings and
// bumps the games-played counter. Available balance is deliberately left
// alone: earnings only become withdrawable at the day rollover.
// The returned sequence identifies the pending delta for Acknowledge.
func (s *Store) ApplyEarnings(amount int64) (uint64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.EarningsToday += amount
	s.snap.TotalGamesPlayed++
	return s.record(deltaEarnings, amount), nil
}

// ApplyWithdrawal debits the available balance and bumps the lifetime
// withdrawn counter. The whole amount is debited or nothing is.
func (s *Store) ApplyWithdrawal(amount int64) (uint64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if amount > s.snap.AvailableBalance {
		return 0, ErrInsufficientBalance
	}
	s.snap.AvailableBalance -= amount
	s.snap.TotalWithdrawn += amount
	return s.record(deltaWithdrawal, amount), nil
}

// record appends a pending delta under s.mu and returns its sequence.
func (s *Store) record(kind deltaKind, amount int64) uint64 {
	seq := s.nextSeq
	s.nextSeq++
	s.pending = append(s.pending, delta{
		seq:       seq,
		kind:      kind,
		amount:    amount,
		appliedAt: s.now(),
	})
	return seq
}

// Acknowledge drops the pending delta once its push has been confirmed
// persisted. Unknown sequences are ignored (the process may have restarted
// since the delta was recorded).
func (s *Store) Acknowledge(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.pending {
		if d.seq == seq {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// PendingCount reports how many local deltas still await confirmation.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Reconcile adopts an authoritative snapshot pulled from the database.
// Pending deltas recorded after the snapshot was taken cannot be part of
// it yet, so they are replayed on top; older pending deltas are assumed
// included in the snapshot and dropped. With no pending deltas this is a
// plain last-pull-wins overwrite.
func (s *Store) Reconcile(snap Snapshot, takenAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = snap

	kept := s.pending[:0]
	for _, d := range s.pending {
		if !d.appliedAt.After(takenAt) {
			continue
		}
		kept = append(kept, d)
		switch d.kind {
		case deltaEarnings:
			s.snap.EarningsToday += d.amount
			s.snap.TotalGamesPlayed++
		case deltaWithdrawal:
			if d.amount <= s.snap.AvailableBalance {
				s.snap.AvailableBalance -= d.amount
				s.snap.TotalWithdrawn += d.amount
			}
		}
	}
	s.pending = kept
}

package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeAt(t0 time.Time) *Store {
	s := NewStore()
	s.now = func() time.Time { return t0 }
	return s
}

func TestApplyEarnings(t *testing.T) {
	s := NewStore()

	seq, err := s.ApplyEarnings(500)
	require.NoError(t, err)
	assert.NotZero(t, seq)

	_, err = s.ApplyEarnings(750)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, int64(1250), snap.EarningsToday)
	assert.Equal(t, 2, snap.TotalGamesPlayed)
	assert.Equal(t, int64(0), snap.AvailableBalance, "rewards must not be withdrawable before rollover")
	assert.Equal(t, 2, s.PendingCount())
}

func TestApplyEarningsRejectsNonPositive(t *testing.T) {
	s := NewStore()

	for _, amount := range []int64{0, -1, -500} {
		_, err := s.ApplyEarnings(amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Equal(t, Snapshot{}, s.Snapshot())
	assert.Equal(t, 0, s.PendingCount())
}

func TestApplyWithdrawal(t *testing.T) {
	tests := []struct {
		name          string
		available     int64
		amount        int64
		wantErr       error
		wantAvailable int64
		wantWithdrawn int64
	}{
		{name: "full balance", available: 2000, amount: 2000, wantAvailable: 0, wantWithdrawn: 2000},
		{name: "partial", available: 5000, amount: 2000, wantAvailable: 3000, wantWithdrawn: 2000},
		{name: "insufficient", available: 1999, amount: 2000, wantErr: ErrInsufficientBalance, wantAvailable: 1999},
		{name: "zero balance", available: 0, amount: 2000, wantErr: ErrInsufficientBalance, wantAvailable: 0},
		{name: "non-positive amount", available: 5000, amount: 0, wantErr: ErrInvalidAmount, wantAvailable: 5000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore()
			s.Reconcile(Snapshot{AvailableBalance: tc.available}, time.Now())

			_, err := s.ApplyWithdrawal(tc.amount)
			snap := s.Snapshot()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, tc.available, snap.AvailableBalance, "failed debit must leave balance untouched")
				assert.Equal(t, 0, s.PendingCount())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantAvailable, snap.AvailableBalance)
			assert.Equal(t, tc.wantWithdrawn, snap.TotalWithdrawn)
			assert.GreaterOrEqual(t, snap.AvailableBalance, int64(0))
		})
	}
}

func TestAcknowledge(t *testing.T) {
	s := NewStore()

	seq1, err := s.ApplyEarnings(500)
	require.NoError(t, err)
	seq2, err := s.ApplyEarnings(700)
	require.NoError(t, err)

	s.Acknowledge(seq1)
	assert.Equal(t, 1, s.PendingCount())

	// Unknown sequences are ignored
	s.Acknowledge(9999)
	assert.Equal(t, 1, s.PendingCount())

	s.Acknowledge(seq2)
	assert.Equal(t, 0, s.PendingCount())
}

func TestReconcileReplaysNewerDeltas(t *testing.T) {
	pullAt := time.Now()
	s := storeAt(pullAt.Add(2 * time.Second))

	// Reward lands locally after the snapshot was taken server-side.
	_, err := s.ApplyEarnings(500)
	require.NoError(t, err)

	s.Reconcile(Snapshot{EarningsToday: 1000, TotalGamesPlayed: 3, AvailableBalance: 4000}, pullAt)

	snap := s.Snapshot()
	assert.Equal(t, int64(1500), snap.EarningsToday, "unconfirmed reward must survive the pull")
	assert.Equal(t, 4, snap.TotalGamesPlayed)
	assert.Equal(t, int64(4000), snap.AvailableBalance)
	assert.Equal(t, 1, s.PendingCount())
}

func TestReconcileDropsOlderDeltas(t *testing.T) {
	s := storeAt(time.Now())

	_, err := s.ApplyEarnings(500)
	require.NoError(t, err)

	// The snapshot postdates the delta, so the reward is already in it.
	pullAt := time.Now().Add(5 * time.Second)
	s.Reconcile(Snapshot{EarningsToday: 500, TotalGamesPlayed: 1}, pullAt)

	snap := s.Snapshot()
	assert.Equal(t, int64(500), snap.EarningsToday, "confirmed reward must not be double counted")
	assert.Equal(t, 1, snap.TotalGamesPlayed)
	assert.Equal(t, 0, s.PendingCount())
}

func TestReconcileWithoutPendingIsLastPullWins(t *testing.T) {
	s := NewStore()

	seq, err := s.ApplyEarnings(500)
	require.NoError(t, err)
	s.Acknowledge(seq)

	// A pull carrying a pre-write snapshot overwrites acknowledged local
	// state; the remote row is authoritative once nothing is pending.
	s.Reconcile(Snapshot{EarningsToday: 0}, time.Now())
	assert.Equal(t, int64(0), s.Snapshot().EarningsToday)

	// Next pull carries the written value back.
	s.Reconcile(Snapshot{EarningsToday: 500, TotalGamesPlayed: 1}, time.Now())
	assert.Equal(t, int64(500), s.Snapshot().EarningsToday)
}

func TestReconcileSkipsUnpayableWithdrawal(t *testing.T) {
	pullAt := time.Now()
	s := storeAt(pullAt.Add(time.Second))
	s.Reconcile(Snapshot{AvailableBalance: 5000}, pullAt)

	_, err := s.ApplyWithdrawal(3000)
	require.NoError(t, err)

	// Authoritative balance dropped below the pending debit (another
	// device withdrew in between). Replaying would go negative, so the
	// delta is kept pending but not applied.
	s.Reconcile(Snapshot{AvailableBalance: 1000}, pullAt.Add(500*time.Millisecond))

	snap := s.Snapshot()
	assert.Equal(t, int64(1000), snap.AvailableBalance)
	assert.GreaterOrEqual(t, snap.AvailableBalance, int64(0))
}

package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalim4k/luminagame/internal/stats"
)

// fakePusher settles withdrawals against an in-memory balance.
type fakePusher struct {
	balance int64
	err     error
	pushes  []stats.WithdrawalPush
}

func (p *fakePusher) PushWithdrawal(_ context.Context, w stats.WithdrawalPush) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if p.balance < w.Amount {
		return "", stats.ErrInsufficientBalance
	}
	p.balance -= w.Amount
	p.pushes = append(p.pushes, w)
	return "tx-" + w.UserID, nil
}

type pullRepo struct {
	fakePusher
}

func (r *pullRepo) PullStats(context.Context, string) (stats.Snapshot, time.Time, error) {
	return stats.Snapshot{AvailableBalance: r.balance}, time.Now(), nil
}
func (r *pullRepo) PushEarnings(context.Context, stats.EarningsPush) (bool, error) {
	return true, nil
}
func (r *pullRepo) RecalculateStats(context.Context, string) (stats.Snapshot, error) {
	return stats.Snapshot{}, nil
}

func testFlow(t *testing.T, balance int64) (*Flow, *stats.Engine, *pullRepo) {
	t.Helper()
	repo := &pullRepo{fakePusher: fakePusher{balance: balance}}
	engine := stats.NewEngine(repo, time.Minute)
	_, err := engine.Refresh(context.Background(), "u1")
	require.NoError(t, err)
	return NewFlow(engine, repo), engine, repo
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name     string
		balance  int64
		amount   int64
		provider string
		phone    string
		wantMsg  string
		wantErr  error
	}{
		{name: "below minimum", balance: 10000, amount: 1999, provider: "Orange", phone: "07 01 02 03", wantMsg: "minimum withdrawal is 2000 FCFA"},
		{name: "exceeds balance", balance: 1000, amount: 2000, provider: "Orange", phone: "07 01 02 03", wantErr: stats.ErrInsufficientBalance},
		{name: "unknown provider", balance: 10000, amount: 2000, provider: "PayPal", phone: "07 01 02 03", wantMsg: "unsupported payment provider"},
		{name: "short phone", balance: 10000, amount: 2000, provider: "MTN", phone: "0701", wantMsg: "phone number is too short"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flow, engine, repo := testFlow(t, tc.balance)

			_, err := flow.Submit(context.Background(), "u1", tc.amount, tc.provider, tc.phone)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tc.wantMsg, verr.Reason)
			}

			// A rejected request must not touch any balance.
			assert.Equal(t, tc.balance, repo.balance)
			assert.Equal(t, tc.balance, engine.ForUser("u1").Snapshot().AvailableBalance)
		})
	}
}

func TestSubmitExactBalance(t *testing.T) {
	flow, engine, repo := testFlow(t, 2000)

	req, err := flow.Submit(context.Background(), "u1", 2000, "Wave", "+225 07 01 02 03 04")
	require.NoError(t, err)

	assert.Equal(t, StatusSettled, req.Status)
	assert.NotEmpty(t, req.TxID)
	assert.Equal(t, int64(0), repo.balance)
	assert.Equal(t, int64(0), engine.ForUser("u1").Snapshot().AvailableBalance)
	assert.Equal(t, int64(2000), engine.ForUser("u1").Snapshot().TotalWithdrawn)
}

func TestSubmitRemoteFailureLeavesStoreUntouched(t *testing.T) {
	flow, engine, repo := testFlow(t, 10000)
	repo.err = errors.New("network down")

	req, err := flow.Submit(context.Background(), "u1", 3000, "Moov", "07 01 02 03")
	require.Error(t, err)
	require.NotNil(t, req)
	assert.Equal(t, StatusFailed, req.Status)

	snap := engine.ForUser("u1").Snapshot()
	assert.Equal(t, int64(10000), snap.AvailableBalance)
	assert.Equal(t, int64(0), snap.TotalWithdrawn)
	assert.Equal(t, 0, engine.ForUser("u1").PendingCount())
}

func TestSubmitStaleBalanceRejectedRemotely(t *testing.T) {
	// The local snapshot still shows 5000 but the authoritative balance
	// was drained by a concurrent withdrawal elsewhere. The remote guard
	// catches what local validation cannot.
	flow, engine, repo := testFlow(t, 5000)
	repo.balance = 1000

	req, err := flow.Submit(context.Background(), "u1", 3000, "Orange", "07 01 02 03")
	assert.ErrorIs(t, err, stats.ErrInsufficientBalance)
	assert.Equal(t, StatusFailed, req.Status)

	// Local state was optimistic, not debited; the next pull corrects it.
	assert.Equal(t, int64(5000), engine.ForUser("u1").Snapshot().AvailableBalance)
	_, err = engine.Refresh(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), engine.ForUser("u1").Snapshot().AvailableBalance)
}

func TestDigitsOf(t *testing.T) {
	assert.Equal(t, "2250701020304", digitsOf("+225 07-01-02-03-04"))
	assert.Equal(t, "", digitsOf("no digits"))
}

package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inferpay/escrow/internal/escrow"
	"github.com/inferpay/escrow/internal/platform/ledger"
	"github.com/inferpay/escrow/pkg/config"
)

const (
	testOwner    = escrow.PartyID("owner-pkh")
	testProvider = escrow.PartyID("provider-pkh")
)

func newTestManager() (*Manager, *ledger.MemStore) {
	store := ledger.NewMemStore(zap.NewNop().Sugar())
	cfg := &config.Config{Ledger: config.LedgerConfig{TxTTLSeconds: 600}}
	return NewManager(cfg, store, zap.NewNop().Sugar()), store
}

func create(t *testing.T, mgr *Manager, deposit int64) ledger.RecordID {
	t.Helper()
	id, err := mgr.CreateSubscription(context.Background(), &CreateRequest{
		Owner:    testOwner,
		Provider: testProvider,
		Interval: time.Hour,
		Amount:   10,
		Asset:    "lovelace",
		Deposit:  deposit,
	})
	require.NoError(t, err)
	return id
}

func TestCreateSubscription(t *testing.T) {
	mgr, store := newTestManager()
	before := time.Now().UTC()
	id := create(t, mgr, 100)

	rec, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, testOwner, rec.State.Owner)
	assert.Equal(t, testProvider, rec.State.Provider)
	assert.Equal(t, int64(100), rec.Balance)
	assert.Equal(t, uint64(1), rec.Generation)
	// First payment falls due one interval out.
	assert.False(t, rec.State.NextPaymentDue.Before(before.Add(time.Hour)))
}

func TestCreateSubscription_DepositBelowOnePayment(t *testing.T) {
	mgr, _ := newTestManager()
	_, err := mgr.CreateSubscription(context.Background(), &CreateRequest{
		Owner:    testOwner,
		Provider: testProvider,
		Interval: time.Hour,
		Amount:   10,
		Asset:    "lovelace",
		Deposit:  5,
	})
	require.Error(t, err)
	var rejected *ledger.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, escrow.CodeInsufficientBalance, escrow.CodeOf(rejected.Reason))
}

func TestUpdateSubscription(t *testing.T) {
	mgr, store := newTestManager()
	id := create(t, mgr, 100)

	require.NoError(t, mgr.UpdateSubscription(context.Background(), id, 2*time.Hour, 20))

	rec, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, rec.State.Interval)
	assert.Equal(t, int64(20), rec.State.PaymentAmount)
	assert.Equal(t, int64(100), rec.Balance, "update must not move funds")
	assert.Equal(t, uint64(2), rec.Generation)
}

func TestCancelSubscription(t *testing.T) {
	mgr, store := newTestManager()
	id := create(t, mgr, 100)

	require.NoError(t, mgr.CancelSubscription(context.Background(), id))

	_, err := store.Get(id)
	assert.ErrorIs(t, err, ledger.ErrRecordNotFound)
}

func TestPauseAndResume(t *testing.T) {
	mgr, store := newTestManager()
	id := create(t, mgr, 100)
	rec, err := store.Get(id)
	require.NoError(t, err)
	dueBefore := rec.State.NextPaymentDue

	require.NoError(t, mgr.PauseSubscription(context.Background(), id))
	rec, err = store.Get(id)
	require.NoError(t, err)
	assert.True(t, rec.State.Paused)
	assert.False(t, rec.State.PauseStartedAt.IsZero())

	require.NoError(t, mgr.ResumeSubscription(context.Background(), id))
	rec, err = store.Get(id)
	require.NoError(t, err)
	assert.False(t, rec.State.Paused)
	assert.True(t, rec.State.PauseStartedAt.IsZero())
	// The due date moved forward by the paused duration, never backward.
	assert.False(t, rec.State.NextPaymentDue.Before(dueBefore))
}

func TestRedeemPayment_NotDueYet(t *testing.T) {
	mgr, _ := newTestManager()
	id := create(t, mgr, 100)

	err := mgr.RedeemPayment(context.Background(), id)
	require.Error(t, err)
	var rejected *ledger.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, escrow.CodePaymentNotDue, escrow.CodeOf(rejected.Reason))
}

func TestRedeemBatch_EmptyIsNoOp(t *testing.T) {
	mgr, _ := newTestManager()
	assert.NoError(t, mgr.RedeemBatch(context.Background(), nil, time.Now().UTC()))
}

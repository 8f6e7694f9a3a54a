package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inferpay/escrow/internal/app/service/transaction"
	"github.com/inferpay/escrow/internal/escrow"
	"github.com/inferpay/escrow/internal/platform/ledger"
	"github.com/inferpay/escrow/pkg/config"
)

const (
	testOwner    = escrow.PartyID("owner-pkh")
	testProvider = escrow.PartyID("provider-pkh")
)

func testConfig() *config.Config {
	return &config.Config{
		Ledger: config.LedgerConfig{
			BaseFee:       170_000,
			PerInputFee:   50_000,
			AssetDecimals: 6,
			TxTTLSeconds:  600,
		},
		Settlement: config.SettlementConfig{BatchLimit: 5},
	}
}

func newTestService(store ledger.Store) *Service {
	cfg := testConfig()
	log := zap.NewNop().Sugar()
	return NewService(cfg, store, transaction.NewManager(cfg, store, log), log)
}

func seed(t *testing.T, store ledger.Store, id ledger.RecordID, balance int64, due time.Time) ledger.Record {
	t.Helper()
	lo := due.Add(-time.Hour)
	err := store.Commit(&ledger.Tx{
		ID:        "seed-" + string(id),
		Signers:   map[escrow.PartyID]struct{}{testOwner: {}},
		ValidFrom: lo,
		ValidTo:   lo.Add(time.Minute),
		Creates: []ledger.NewRecord{{
			ID: id,
			Successor: escrow.Successor{
				State: escrow.SubscriptionState{
					Owner:          testOwner,
					Provider:       testProvider,
					NextPaymentDue: due,
					Interval:       time.Hour,
					PaymentAmount:  10,
					Asset:          "lovelace",
				},
				Balance: balance,
			},
		}},
	})
	require.NoError(t, err)
	rec, err := store.Get(id)
	require.NoError(t, err)
	return rec
}

func pause(t *testing.T, store ledger.Store, rec ledger.Record, at time.Time) {
	t.Helper()
	next := rec.State
	next.Paused = true
	next.PauseStartedAt = at
	err := store.Commit(&ledger.Tx{
		ID:        "pause-" + string(rec.ID),
		Signers:   map[escrow.PartyID]struct{}{testProvider: {}},
		ValidFrom: at,
		ValidTo:   at.Add(time.Minute),
		Inputs: []ledger.Input{{
			ID:         rec.ID,
			Generation: rec.Generation,
			Action:     escrow.Pause{},
			Successor:  &escrow.Successor{State: next, Balance: rec.Balance},
		}},
	})
	require.NoError(t, err)
}

func spend(t *testing.T, store ledger.Store, rec ledger.Record, at time.Time) {
	t.Helper()
	next := rec.State
	next.NextPaymentDue = rec.State.NextPaymentDue.Add(rec.State.Interval)
	err := store.Commit(&ledger.Tx{
		ID:        "spend-" + string(rec.ID),
		Signers:   map[escrow.PartyID]struct{}{testProvider: {}},
		ValidFrom: at,
		ValidTo:   at.Add(time.Minute),
		Inputs: []ledger.Input{{
			ID:         rec.ID,
			Generation: rec.Generation,
			Action:     escrow.Redeem{},
			Successor:  &escrow.Successor{State: next, Balance: rec.Balance - rec.State.PaymentAmount},
			NetFlow:    map[escrow.PartyID]int64{testProvider: rec.State.PaymentAmount},
		}},
	})
	require.NoError(t, err)
}

func TestPlan_OrdersMostOverdueFirstAndSkipsIneligible(t *testing.T) {
	store := ledger.NewMemStore(zap.NewNop().Sugar())
	now := time.Now().UTC()

	seed(t, store, "sub-mild", 100, now.Add(-time.Hour))
	seed(t, store, "sub-worst", 100, now.Add(-5*time.Hour))
	seed(t, store, "sub-mid", 100, now.Add(-3*time.Hour))
	seed(t, store, "sub-future", 100, now.Add(time.Hour))
	paused := seed(t, store, "sub-paused", 100, now.Add(-2*time.Hour))
	pause(t, store, paused, now.Add(-90*time.Minute))

	svc := newTestService(store)
	plan := svc.Plan(context.Background(), testProvider, 0, now)

	require.Len(t, plan.Candidates, 3)
	assert.Equal(t, ledger.RecordID("sub-worst"), plan.Candidates[0].Record.ID)
	assert.Equal(t, ledger.RecordID("sub-mid"), plan.Candidates[1].Record.ID)
	assert.Equal(t, ledger.RecordID("sub-mild"), plan.Candidates[2].Record.ID)
	assert.Equal(t, 2, plan.Skipped)
	assert.Equal(t, int64(30), plan.TotalRevenue)
}

func TestPlan_CapsAtBatchLimit(t *testing.T) {
	store := ledger.NewMemStore(zap.NewNop().Sugar())
	now := time.Now().UTC()
	for _, id := range []ledger.RecordID{"s1", "s2", "s3", "s4", "s5", "s6", "s7"} {
		seed(t, store, id, 100, now.Add(-time.Hour))
	}

	svc := newTestService(store)
	assert.Len(t, svc.Plan(context.Background(), testProvider, 0, now).Candidates, 5)
	assert.Len(t, svc.Plan(context.Background(), testProvider, 2, now).Candidates, 2)
	assert.Len(t, svc.Plan(context.Background(), testProvider, 99, now).Candidates, 5)
}

// raceStore hands the planner a snapshot and then immediately spends one of
// the listed records, so the planned batch carries a stale generation by the
// time it is submitted.
type raceStore struct {
	ledger.Store
	t     *testing.T
	prey  ledger.RecordID
	fired bool
}

func (r *raceStore) ListByProvider(p escrow.PartyID) []ledger.Record {
	records := r.Store.ListByProvider(p)
	if !r.fired {
		r.fired = true
		for _, rec := range records {
			if rec.ID == r.prey {
				spend(r.t, r.Store, rec, time.Now().UTC())
			}
		}
	}
	return records
}

func TestSettle_DropsStaleRecordAndRetriesRest(t *testing.T) {
	inner := ledger.NewMemStore(zap.NewNop().Sugar())
	now := time.Now().UTC()
	for _, id := range []ledger.RecordID{"s1", "s2", "s3", "s4", "s5"} {
		seed(t, inner, id, 100, now.Add(-time.Hour))
	}

	store := &raceStore{Store: inner, t: t, prey: "s3"}
	svc := newTestService(store)

	result, err := svc.Settle(context.Background(), testProvider, 5)
	require.NoError(t, err)

	assert.Len(t, result.Settled, 4)
	assert.NotContains(t, result.Settled, ledger.RecordID("s3"))
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, ledger.RecordID("s3"), result.Dropped[0].RecordID)
	assert.Contains(t, result.Dropped[0].Reason, "stale")
	assert.Equal(t, int64(40), result.Revenue)

	// Every surviving record paid exactly once; the raced one was paid by the
	// competing transaction, not by the batch.
	for _, id := range []ledger.RecordID{"s1", "s2", "s3", "s4", "s5"} {
		rec, err := inner.Get(id)
		require.NoError(t, err)
		assert.Equal(t, int64(90), rec.Balance, "record %s", id)
		assert.Equal(t, uint64(2), rec.Generation, "record %s", id)
	}
}

func TestSettle_NothingDueIsANoOp(t *testing.T) {
	store := ledger.NewMemStore(zap.NewNop().Sugar())
	now := time.Now().UTC()
	seed(t, store, "sub-future", 100, now.Add(time.Hour))

	svc := newTestService(store)
	result, err := svc.Settle(context.Background(), testProvider, 5)
	require.NoError(t, err)
	assert.Empty(t, result.Settled)
	assert.Empty(t, result.Dropped)
	assert.Zero(t, result.Revenue)
}

func TestSimulate_FeeSavings(t *testing.T) {
	store := ledger.NewMemStore(zap.NewNop().Sugar())
	now := time.Now().UTC()
	for _, id := range []ledger.RecordID{"s1", "s2", "s3", "s4"} {
		seed(t, store, id, 100, now.Add(-time.Hour))
	}

	svc := newTestService(store)
	sim := svc.Simulate(svc.Plan(context.Background(), testProvider, 0, now))

	assert.Equal(t, 4, sim.Eligible)
	// 4 × (0.17 + 0.05) individually vs 0.17 + 4 × 0.05 in bulk.
	assert.True(t, sim.IndividualFees.Equal(decimal.RequireFromString("0.88")), sim.IndividualFees.String())
	assert.True(t, sim.BulkFee.Equal(decimal.RequireFromString("0.37")), sim.BulkFee.String())
	assert.True(t, sim.Savings.Equal(decimal.RequireFromString("0.51")), sim.Savings.String())
	assert.Equal(t, "58.0", sim.SavingsPercent.StringFixed(1))
	assert.Equal(t, "4,0.000040,0.510000,58.0", sim.CSV())
}

func TestSimulate_EmptyPlan(t *testing.T) {
	svc := newTestService(ledger.NewMemStore(zap.NewNop().Sugar()))
	sim := svc.Simulate(&Plan{})
	assert.Zero(t, sim.Eligible)
	assert.True(t, sim.Savings.IsZero())
	assert.True(t, sim.SavingsPercent.IsZero())
}

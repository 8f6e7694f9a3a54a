package gate

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

func newTestGate(store ledger.Store) *Gate {
	cfg := &config.Config{Gate: config.GateConfig{JWTSecret: "test-secret", TokenTTLMinutes: 15}}
	return New(cfg, store, zap.NewNop().Sugar())
}

func seed(t *testing.T, store ledger.Store, id ledger.RecordID, balance int64, due time.Time, paused bool) {
	t.Helper()
	state := escrow.SubscriptionState{
		Owner:          testOwner,
		Provider:       testProvider,
		NextPaymentDue: due,
		Interval:       time.Hour,
		PaymentAmount:  10,
		Asset:          "lovelace",
	}
	lo := due.Add(-time.Hour)
	err := store.Commit(&ledger.Tx{
		ID:        "seed-" + string(id),
		Signers:   map[escrow.PartyID]struct{}{testOwner: {}},
		ValidFrom: lo,
		ValidTo:   lo.Add(time.Minute),
		Creates:   []ledger.NewRecord{{ID: id, Successor: escrow.Successor{State: state, Balance: balance}}},
	})
	require.NoError(t, err)

	if paused {
		next := state
		next.Paused = true
		next.PauseStartedAt = lo.Add(time.Minute)
		err := store.Commit(&ledger.Tx{
			ID:        "pause-" + string(id),
			Signers:   map[escrow.PartyID]struct{}{testProvider: {}},
			ValidFrom: lo.Add(time.Minute),
			ValidTo:   lo.Add(2 * time.Minute),
			Inputs: []ledger.Input{{
				ID:         id,
				Generation: 1,
				Action:     escrow.Pause{},
				Successor:  &escrow.Successor{State: next, Balance: balance},
			}},
		})
		require.NoError(t, err)
	}
}

func TestCheck_Statuses(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)
	past := time.Now().UTC().Add(-time.Hour)

	cases := []struct {
		name        string
		balance     int64
		due         time.Time
		paused      bool
		want        Status
		serviceable bool
	}{
		{"funded and current", 100, future, false, StatusActive, true},
		{"payment claimable", 100, past, false, StatusOverdue, true},
		{"paused", 100, future, true, StatusPaused, false},
		{"balance below one payment", 5, future, false, StatusExhausted, false},
		// Paused wins over exhausted: the pause hides the balance question.
		{"paused and underfunded", 5, future, true, StatusPaused, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := ledger.NewMemStore(zap.NewNop().Sugar())
			seed(t, store, "sub-1", tc.balance, tc.due, tc.paused)

			decision, err := newTestGate(store).Check(context.Background(), testOwner, testProvider)
			require.NoError(t, err)
			assert.Equal(t, tc.want, decision.Status)
			assert.Equal(t, tc.serviceable, decision.Serviceable())
			assert.Equal(t, ledger.RecordID("sub-1"), decision.RecordID)
			if tc.serviceable {
				assert.NotEmpty(t, decision.Token)
			} else {
				assert.Empty(t, decision.Token)
			}
		})
	}
}

func TestCheck_NotFound(t *testing.T) {
	store := ledger.NewMemStore(zap.NewNop().Sugar())
	seed(t, store, "sub-1", 100, time.Now().UTC().Add(time.Hour), false)

	decision, err := newTestGate(store).Check(context.Background(), testOwner, "someone-else")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, decision.Status)
	assert.False(t, decision.Serviceable())
	assert.Empty(t, decision.RecordID)
}

func TestCheck_TokenRoundTrip(t *testing.T) {
	store := ledger.NewMemStore(zap.NewNop().Sugar())
	seed(t, store, "sub-1", 100, time.Now().UTC().Add(time.Hour), false)
	g := newTestGate(store)

	decision, err := g.Check(context.Background(), testOwner, testProvider)
	require.NoError(t, err)
	require.NotEmpty(t, decision.Token)

	claims, err := g.VerifyToken(decision.Token)
	require.NoError(t, err)
	assert.Equal(t, string(testOwner), claims.Owner)
	assert.Equal(t, string(testProvider), claims.Provider)
	assert.Equal(t, "sub-1", claims.RecordID)
	assert.Equal(t, string(StatusActive), claims.Status)
	assert.Greater(t, claims.ExpiresAt, time.Now().Unix())
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	store := ledger.NewMemStore(zap.NewNop().Sugar())
	seed(t, store, "sub-1", 100, time.Now().UTC().Add(time.Hour), false)

	decision, err := newTestGate(store).Check(context.Background(), testOwner, testProvider)
	require.NoError(t, err)

	other := New(&config.Config{Gate: config.GateConfig{JWTSecret: "other-secret"}}, store, zap.NewNop().Sugar())
	_, err = other.VerifyToken(decision.Token)
	assert.Error(t, err)
}

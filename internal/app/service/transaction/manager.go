// Package transaction assembles and submits ledger transactions. The
// assembler's job is to build successor records and asset flows the escrow
// validator will accept; the store re-checks every rule at commit regardless.
package transaction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/inferpay/escrow/internal/escrow"
	"github.com/inferpay/escrow/internal/platform/keyring"
	"github.com/inferpay/escrow/internal/platform/ledger"
	"github.com/inferpay/escrow/pkg/config"
	"github.com/inferpay/escrow/pkg/logctx"
	"github.com/inferpay/escrow/pkg/tool"
)

type Manager struct {
	cfg   *config.Config
	store ledger.Store
	log   *zap.SugaredLogger
}

func NewManager(cfg *config.Config, store ledger.Store, log *zap.SugaredLogger) *Manager {
	return &Manager{cfg: cfg, store: store, log: log}
}

func (m *Manager) window(now time.Time) (time.Time, time.Time) {
	ttl := time.Duration(m.cfg.Ledger.TxTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return now, now.Add(ttl)
}

// CreateRequest describes a new subscription lock-up.
type CreateRequest struct {
	Owner    escrow.PartyID
	Provider escrow.PartyID
	Interval time.Duration
	Amount   int64
	Asset    escrow.AssetID
	Deposit  int64
}

// CreateSubscription locks the deposit into a fresh record. The first
// payment falls due one interval from now.
func (m *Manager) CreateSubscription(ctx context.Context, req *CreateRequest) (ledger.RecordID, error) {
	lo, hi := m.window(time.Now().UTC())
	id := ledger.RecordID(tool.GenerateUUIDV7())
	tx := &ledger.Tx{
		ID:        tool.GenerateUUIDV7(),
		Signers:   keyring.SignerSet(req.Owner),
		ValidFrom: lo,
		ValidTo:   hi,
		Creates: []ledger.NewRecord{{
			ID: id,
			Successor: escrow.Successor{
				State: escrow.SubscriptionState{
					Owner:          req.Owner,
					Provider:       req.Provider,
					NextPaymentDue: lo.Add(req.Interval),
					Interval:       req.Interval,
					PaymentAmount:  req.Amount,
					Asset:          req.Asset,
				},
				Balance: req.Deposit,
			},
		}},
		Memo: "create subscription",
	}
	if err := m.store.Commit(tx); err != nil {
		return "", fmt.Errorf("failed to create subscription: %w", err)
	}
	logctx.FromCtx(ctx, m.log).Infow("subscription created",
		"record_id", id, "owner", req.Owner, "provider", req.Provider, "deposit", req.Deposit)
	return id, nil
}

// UpdateSubscription replaces the billing interval and payment amount,
// leaving the balance untouched.
func (m *Manager) UpdateSubscription(ctx context.Context, id ledger.RecordID, newInterval time.Duration, newAmount int64) error {
	rec, err := m.store.Get(id)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}
	next := rec.State
	next.Interval = newInterval
	next.PaymentAmount = newAmount
	lo, hi := m.window(time.Now().UTC())
	tx := &ledger.Tx{
		ID:        tool.GenerateUUIDV7(),
		Signers:   keyring.SignerSet(rec.State.Owner),
		ValidFrom: lo,
		ValidTo:   hi,
		Inputs: []ledger.Input{{
			ID:         rec.ID,
			Generation: rec.Generation,
			Action:     escrow.Update{NewInterval: newInterval, NewAmount: newAmount},
			Successor:  &escrow.Successor{State: next, Balance: rec.Balance},
		}},
		Memo: "update subscription",
	}
	if err := m.store.Commit(tx); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	logctx.FromCtx(ctx, m.log).Infow("subscription updated",
		"record_id", id, "interval", newInterval, "amount", newAmount)
	return nil
}

// CancelSubscription destroys the record and returns the full balance to
// the owner.
func (m *Manager) CancelSubscription(ctx context.Context, id ledger.RecordID) error {
	rec, err := m.store.Get(id)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}
	lo, hi := m.window(time.Now().UTC())
	tx := &ledger.Tx{
		ID:        tool.GenerateUUIDV7(),
		Signers:   keyring.SignerSet(rec.State.Owner),
		ValidFrom: lo,
		ValidTo:   hi,
		Inputs: []ledger.Input{{
			ID:         rec.ID,
			Generation: rec.Generation,
			Action:     escrow.Cancel{},
			NetFlow:    map[escrow.PartyID]int64{rec.State.Owner: rec.Balance},
		}},
		Memo: "cancel subscription",
	}
	if err := m.store.Commit(tx); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	logctx.FromCtx(ctx, m.log).Infow("subscription cancelled", "record_id", id, "refund", rec.Balance)
	return nil
}

// PauseSubscription suspends redemption on behalf of the provider.
func (m *Manager) PauseSubscription(ctx context.Context, id ledger.RecordID) error {
	rec, err := m.store.Get(id)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}
	lo, hi := m.window(time.Now().UTC())
	next := rec.State
	next.Paused = true
	next.PauseStartedAt = lo
	tx := &ledger.Tx{
		ID:        tool.GenerateUUIDV7(),
		Signers:   keyring.SignerSet(rec.State.Provider),
		ValidFrom: lo,
		ValidTo:   hi,
		Inputs: []ledger.Input{{
			ID:         rec.ID,
			Generation: rec.Generation,
			Action:     escrow.Pause{},
			Successor:  &escrow.Successor{State: next, Balance: rec.Balance},
		}},
		Memo: "pause subscription",
	}
	if err := m.store.Commit(tx); err != nil {
		return fmt.Errorf("failed to pause subscription: %w", err)
	}
	logctx.FromCtx(ctx, m.log).Infow("subscription paused", "record_id", id)
	return nil
}

// ResumeSubscription lifts a pause; the due date moves forward by the pause
// duration so the owner is not billed for the gap.
func (m *Manager) ResumeSubscription(ctx context.Context, id ledger.RecordID) error {
	rec, err := m.store.Get(id)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}
	lo, hi := m.window(time.Now().UTC())
	due, err := escrow.ExtendOnResume(rec.State.NextPaymentDue, rec.State.PauseStartedAt, lo)
	if err != nil {
		return err
	}
	next := rec.State
	next.Paused = false
	next.PauseStartedAt = time.Time{}
	next.NextPaymentDue = due
	tx := &ledger.Tx{
		ID:        tool.GenerateUUIDV7(),
		Signers:   keyring.SignerSet(rec.State.Provider),
		ValidFrom: lo,
		ValidTo:   hi,
		Inputs: []ledger.Input{{
			ID:         rec.ID,
			Generation: rec.Generation,
			Action:     escrow.Resume{},
			Successor:  &escrow.Successor{State: next, Balance: rec.Balance},
		}},
		Memo: "resume subscription",
	}
	if err := m.store.Commit(tx); err != nil {
		return fmt.Errorf("failed to resume subscription: %w", err)
	}
	logctx.FromCtx(ctx, m.log).Infow("subscription resumed", "record_id", id, "next_due", due)
	return nil
}

// RedeemPayment withdraws one payment amount from a single record.
func (m *Manager) RedeemPayment(ctx context.Context, id ledger.RecordID) error {
	rec, err := m.store.Get(id)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}
	lo, _ := m.window(time.Now().UTC())
	return m.RedeemBatch(ctx, []ledger.Record{rec}, lo)
}

// RedeemBatch settles one payment from each record in a single atomic
// transaction under a shared validity window. Either every record
// transitions or none do; a *ledger.ConflictError names the input that lost
// a spend race.
func (m *Manager) RedeemBatch(ctx context.Context, records []ledger.Record, validFrom time.Time) error {
	if len(records) == 0 {
		return nil
	}
	provider := records[0].State.Provider
	_, hi := m.window(validFrom)
	inputs := make([]ledger.Input, 0, len(records))
	for _, rec := range records {
		next := rec.State
		next.NextPaymentDue = escrow.AdvanceOnPayment(rec.State.NextPaymentDue, rec.State.Interval)
		inputs = append(inputs, ledger.Input{
			ID:         rec.ID,
			Generation: rec.Generation,
			Action:     escrow.Redeem{},
			Successor:  &escrow.Successor{State: next, Balance: rec.Balance - rec.State.PaymentAmount},
			NetFlow:    map[escrow.PartyID]int64{rec.State.Provider: rec.State.PaymentAmount},
		})
	}
	tx := &ledger.Tx{
		ID:        tool.GenerateUUIDV7(),
		Signers:   keyring.SignerSet(provider),
		ValidFrom: validFrom,
		ValidTo:   hi,
		Inputs:    inputs,
		Memo:      fmt.Sprintf("bulk payment redemption - %d subscriptions", len(records)),
	}
	if err := m.store.Commit(tx); err != nil {
		return err
	}
	logctx.FromCtx(ctx, m.log).Infow("payments redeemed", "provider", provider, "count", len(records))
	return nil
}

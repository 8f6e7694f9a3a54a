// Package settlement selects due subscription payments for a provider and
// settles them as one atomic multi-record transaction. Selection is advisory:
// the escrow validator re-checks every record at commit, so the worst the
// planner can produce is an inefficient or empty batch, never an invalid one.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/inferpay/escrow/internal/app/service/transaction"
	"github.com/inferpay/escrow/internal/escrow"
	"github.com/inferpay/escrow/internal/platform/ledger"
	"github.com/inferpay/escrow/pkg/config"
	"github.com/inferpay/escrow/pkg/logctx"
	"github.com/inferpay/escrow/pkg/metrics"
)

type Service struct {
	cfg   *config.Config
	store ledger.Store
	txMgr *transaction.Manager
	log   *zap.SugaredLogger
}

func NewService(cfg *config.Config, store ledger.Store, txMgr *transaction.Manager, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, store: store, txMgr: txMgr, log: log}
}

// Candidate is one record eligible for redemption in the planned batch.
type Candidate struct {
	Record  ledger.Record `json:"record"`
	Overdue time.Duration `json:"overdue"`
	Amount  int64         `json:"amount"`
}

// Plan is an ordered batch of eligible records sharing one validity window.
type Plan struct {
	Provider     escrow.PartyID `json:"provider"`
	ValidFrom    time.Time      `json:"valid_from"`
	Candidates   []Candidate    `json:"candidates"`
	TotalRevenue int64          `json:"total_revenue"`
	// Skipped counts records that failed the redeem check during selection
	// (paused, not due, underfunded). Zero eligible candidates is a normal
	// outcome, not an error.
	Skipped int `json:"skipped"`
}

// Drop records why one selected candidate was removed before settlement.
type Drop struct {
	RecordID ledger.RecordID `json:"record_id"`
	Reason   string          `json:"reason"`
}

// Result reports a completed settlement run: what settled, what was dropped
// per record, and the revenue actually redeemed.
type Result struct {
	Provider escrow.PartyID    `json:"provider"`
	Settled  []ledger.RecordID `json:"settled"`
	Dropped  []Drop            `json:"dropped"`
	Revenue  int64             `json:"revenue"`
}

// Plan selects up to limit records whose Redeem the validator would accept
// under the shared window starting at now, ordered most-overdue first.
func (s *Service) Plan(ctx context.Context, provider escrow.PartyID, limit int, now time.Time) *Plan {
	if limit <= 0 || limit > s.cfg.Settlement.BatchLimit {
		limit = s.cfg.Settlement.BatchLimit
	}

	plan := &Plan{Provider: provider, ValidFrom: now}
	for _, rec := range s.store.ListByProvider(provider) {
		if err := s.dryRunRedeem(rec, now); err != nil {
			plan.Skipped++
			continue
		}
		plan.Candidates = append(plan.Candidates, Candidate{
			Record:  rec,
			Overdue: now.Sub(rec.State.NextPaymentDue),
			Amount:  rec.State.PaymentAmount,
		})
	}

	sort.Slice(plan.Candidates, func(i, j int) bool {
		if plan.Candidates[i].Overdue != plan.Candidates[j].Overdue {
			return plan.Candidates[i].Overdue > plan.Candidates[j].Overdue
		}
		return plan.Candidates[i].Record.ID < plan.Candidates[j].Record.ID
	})
	if len(plan.Candidates) > limit {
		plan.Candidates = plan.Candidates[:limit]
	}
	plan.TotalRevenue = lo.SumBy(plan.Candidates, func(c Candidate) int64 { return c.Amount })

	logctx.FromCtx(ctx, s.log).Infow("settlement planned",
		"provider", provider, "eligible", len(plan.Candidates), "skipped", plan.Skipped)
	return plan
}

// dryRunRedeem runs the real validator against the successor a redeem would
// produce, so planner eligibility and commit-time rules cannot drift apart.
func (s *Service) dryRunRedeem(rec ledger.Record, now time.Time) error {
	next := rec.State
	next.NextPaymentDue = escrow.AdvanceOnPayment(rec.State.NextPaymentDue, rec.State.Interval)
	return escrow.Validate(rec.State, escrow.Redeem{}, escrow.TxContext{
		Signers:      map[escrow.PartyID]struct{}{rec.State.Provider: {}},
		ValidFrom:    now,
		ValidTo:      now.Add(time.Duration(s.cfg.Ledger.TxTTLSeconds) * time.Second),
		PriorBalance: rec.Balance,
		Successor:    &escrow.Successor{State: next, Balance: rec.Balance - rec.State.PaymentAmount},
		NetFlow:      map[escrow.PartyID]int64{rec.State.Provider: rec.State.PaymentAmount},
	})
}

// Simulation compares the fees of settling each record individually against
// one bulk transaction, without submitting anything.
type Simulation struct {
	Eligible       int             `json:"eligible"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	IndividualFees decimal.Decimal `json:"individual_fees"`
	BulkFee        decimal.Decimal `json:"bulk_fee"`
	Savings        decimal.Decimal `json:"savings"`
	SavingsPercent decimal.Decimal `json:"savings_percent"`
}

// CSV renders the simulation as one comma-separated line for scripting.
func (s *Simulation) CSV() string {
	return fmt.Sprintf("%d,%s,%s,%s",
		s.Eligible, s.TotalRevenue.StringFixed(6), s.Savings.StringFixed(6), s.SavingsPercent.StringFixed(1))
}

// Simulate estimates the fee savings of settling the planned batch in bulk.
func (s *Service) Simulate(plan *Plan) *Simulation {
	n := int64(len(plan.Candidates))
	scale := decimal.New(1, s.cfg.Ledger.AssetDecimals)
	base := decimal.NewFromInt(s.cfg.Ledger.BaseFee).Div(scale)
	perInput := decimal.NewFromInt(s.cfg.Ledger.PerInputFee).Div(scale)

	individual := base.Add(perInput).Mul(decimal.NewFromInt(n))
	bulk := base.Add(perInput.Mul(decimal.NewFromInt(n)))
	if n == 0 {
		bulk = decimal.Zero
	}
	savings := individual.Sub(bulk)
	percent := decimal.Zero
	if individual.IsPositive() {
		percent = savings.Div(individual).Mul(decimal.NewFromInt(100))
	}
	return &Simulation{
		Eligible:       int(n),
		TotalRevenue:   decimal.NewFromInt(plan.TotalRevenue).Div(scale),
		IndividualFees: individual,
		BulkFee:        bulk,
		Savings:        savings,
		SavingsPercent: percent,
	}
}

// Settle plans and submits a bulk redemption. A record consumed elsewhere
// between selection and submission is dropped with a per-record stale note
// and the remaining batch is resubmitted; one lost race never aborts the
// whole run.
func (s *Service) Settle(ctx context.Context, provider escrow.PartyID, limit int) (*Result, error) {
	now := time.Now().UTC()
	plan := s.Plan(ctx, provider, limit, now)
	result := &Result{Provider: provider}

	batch := lo.Map(plan.Candidates, func(c Candidate, _ int) ledger.Record { return c.Record })
	for len(batch) > 0 {
		err := s.txMgr.RedeemBatch(ctx, batch, plan.ValidFrom)
		if err == nil {
			for _, rec := range batch {
				result.Settled = append(result.Settled, rec.ID)
				result.Revenue += rec.State.PaymentAmount
			}
			break
		}

		var conflict *ledger.ConflictError
		if errors.As(err, &conflict) {
			logctx.FromCtx(ctx, s.log).Warnw("batch candidate went stale, dropping",
				"record_id", conflict.RecordID, "provider", provider)
			result.Dropped = append(result.Dropped, Drop{RecordID: conflict.RecordID, Reason: "stale: consumed by another transaction"})
			metrics.SettlementStaleDrops.Inc()
			batch = lo.Filter(batch, func(r ledger.Record, _ int) bool { return r.ID != conflict.RecordID })
			continue
		}

		var rejected *ledger.RejectedError
		if errors.As(err, &rejected) {
			result.Dropped = append(result.Dropped, Drop{RecordID: rejected.RecordID, Reason: rejected.Reason.Error()})
			batch = lo.Filter(batch, func(r ledger.Record, _ int) bool { return r.ID != rejected.RecordID })
			continue
		}

		return nil, fmt.Errorf("failed to settle batch: %w", err)
	}

	metrics.SettlementBatchSize.Observe(float64(len(result.Settled)))
	logctx.FromCtx(ctx, s.log).Infow("settlement finished",
		"provider", provider, "settled", len(result.Settled), "dropped", len(result.Dropped), "revenue", result.Revenue)
	return result, nil
}

package history

import (
	"time"

	"github.com/inferpay/escrow/internal/platform/ledger"
)

// Analysis is a point-in-time reading of one subscription record.
type Analysis struct {
	RecordID ledger.RecordID `json:"record_id"`
	Balance  int64           `json:"balance"`
	// PaymentsRemaining is how many full payments the balance still covers.
	PaymentsRemaining int64 `json:"payments_remaining"`
	Paused            bool  `json:"paused"`
	Overdue           bool  `json:"overdue"`
	// OverdueBy is how far past due the next payment is; zero when current.
	OverdueBy time.Duration `json:"overdue_by"`
	// EstimatedEndAt is when the last covered payment falls due, assuming the
	// provider redeems on schedule. Nil while paused (the clock is stopped)
	// or when the balance covers no further payment.
	EstimatedEndAt *time.Time `json:"estimated_end_at,omitempty"`
}

// Analyze reads a record against now. Pure, so reports stay reproducible.
func Analyze(rec ledger.Record, now time.Time) Analysis {
	a := Analysis{
		RecordID: rec.ID,
		Balance:  rec.Balance,
		Paused:   rec.State.Paused,
	}
	if rec.State.PaymentAmount > 0 {
		a.PaymentsRemaining = rec.Balance / rec.State.PaymentAmount
	}
	if !rec.State.Paused && now.After(rec.State.NextPaymentDue) {
		a.Overdue = true
		a.OverdueBy = now.Sub(rec.State.NextPaymentDue)
	}
	if !rec.State.Paused && a.PaymentsRemaining > 0 {
		end := rec.State.NextPaymentDue.Add(time.Duration(a.PaymentsRemaining-1) * rec.State.Interval)
		a.EstimatedEndAt = &end
	}
	return a
}

package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferpay/escrow/internal/escrow"
	"github.com/inferpay/escrow/internal/models"
	"github.com/inferpay/escrow/internal/platform/ledger"
)

func analysisRecord(balance int64, due time.Time, paused bool) ledger.Record {
	return ledger.Record{
		ID: "sub-1",
		State: escrow.SubscriptionState{
			Owner:          "owner-pkh",
			Provider:       "provider-pkh",
			NextPaymentDue: due,
			Interval:       24 * time.Hour,
			PaymentAmount:  10,
			Asset:          "lovelace",
			Paused:         paused,
		},
		Balance:    balance,
		Generation: 1,
	}
}

func TestAnalyze(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()

	t.Run("current and funded", func(t *testing.T) {
		due := now.Add(12 * time.Hour)
		a := Analyze(analysisRecord(35, due, false), now)
		assert.False(t, a.Overdue)
		assert.Zero(t, a.OverdueBy)
		assert.Equal(t, int64(3), a.PaymentsRemaining)
		require.NotNil(t, a.EstimatedEndAt)
		// Payments at due, due+1d, due+2d.
		assert.True(t, a.EstimatedEndAt.Equal(due.Add(48*time.Hour)))
	})

	t.Run("overdue", func(t *testing.T) {
		a := Analyze(analysisRecord(35, now.Add(-36*time.Hour), false), now)
		assert.True(t, a.Overdue)
		assert.Equal(t, 36*time.Hour, a.OverdueBy)
	})

	t.Run("paused stops the clock", func(t *testing.T) {
		a := Analyze(analysisRecord(35, now.Add(-36*time.Hour), true), now)
		assert.True(t, a.Paused)
		assert.False(t, a.Overdue)
		assert.Nil(t, a.EstimatedEndAt)
	})

	t.Run("balance covers nothing further", func(t *testing.T) {
		a := Analyze(analysisRecord(5, now.Add(time.Hour), false), now)
		assert.Zero(t, a.PaymentsRemaining)
		assert.Nil(t, a.EstimatedEndAt)
	})
}

func TestSnapshotDate(t *testing.T) {
	// 2023-11-14 22:13:20 UTC
	assert.Equal(t, "2023-11-14", SnapshotDate(time.Unix(1_700_000_000, 0)))
	// Local times bucket by their UTC day.
	loc := time.FixedZone("UTC+9", 9*3600)
	assert.Equal(t, "2023-11-14", SnapshotDate(time.Date(2023, 11, 15, 7, 0, 0, 0, loc)))
}

func TestSummarizeRevenue(t *testing.T) {
	from := time.Date(2023, 11, 13, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)
	days := []*models.RevenueDailySnapshot{
		{Provider: "provider-pkh", SnapshotDate: "2023-11-13", PaymentsCount: 2, Revenue: 20_000_000},
		{Provider: "provider-pkh", SnapshotDate: "2023-11-14", PaymentsCount: 5, Revenue: 50_000_000},
	}

	report := SummarizeRevenue("provider-pkh", from, to, days, 6)
	assert.Equal(t, int64(7), report.PaymentsCount)
	assert.Equal(t, int64(70_000_000), report.Revenue)
	assert.Equal(t, "70", report.RevenueDisp.String())
	assert.Equal(t, "2023-11-13", report.From)
	assert.Equal(t, "2023-11-15", report.To)
}

func TestSummarizeRevenue_Empty(t *testing.T) {
	now := time.Now().UTC()
	report := SummarizeRevenue("provider-pkh", now, now, nil, 6)
	assert.Zero(t, report.PaymentsCount)
	assert.Zero(t, report.Revenue)
	assert.True(t, report.RevenueDisp.IsZero())
}

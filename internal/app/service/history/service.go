// Package history tails the ledger feed and persists transition logs and
// daily revenue snapshots for reporting. It is strictly downstream of the
// ledger: losing a log line never blocks or reorders a commit.
package history

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inferpay/escrow/internal/escrow"
	"github.com/inferpay/escrow/internal/models"
	"github.com/inferpay/escrow/internal/platform/ledger"
	"github.com/inferpay/escrow/pkg/config"
	"github.com/inferpay/escrow/pkg/logctx"
	"github.com/inferpay/escrow/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	cfg *config.Config
	log *zap.SugaredLogger
}

func New(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{db: db, cfg: cfg, log: log}
}

// Subscribe attaches the service to the ledger feed.
func Subscribe(s *Service, store ledger.Store) {
	store.Subscribe(s.Record)
}

// Record persists one feed event. Writes are async so a slow database never
// backpressures the committing goroutine.
func (s *Service) Record(ev ledger.Event) {
	go func() {
		entry := &models.TransitionLog{
			ID:         tool.GenerateUUIDV7(),
			RecordID:   string(ev.RecordID),
			TxID:       ev.TxID,
			Kind:       string(ev.Kind),
			Before:     datatypes.NewJSONType(ev.Before),
			After:      datatypes.NewJSONType(ev.After),
			OccurredAt: ev.OccurredAt,
		}
		if err := s.db.Save(entry).Error; err != nil {
			s.log.Errorf("failed to save transition log: %v", err)
		}
		if ev.Kind == ledger.EventRedeemed && ev.Before != nil {
			s.bumpRevenue(ev)
		}
	}()
}

func (s *Service) bumpRevenue(ev ledger.Event) {
	amount := ev.Before.State.PaymentAmount
	snapshot := &models.RevenueDailySnapshot{
		ID:            tool.GenerateUUIDV7(),
		Provider:      string(ev.Before.State.Provider),
		SnapshotDate:  SnapshotDate(ev.OccurredAt),
		PaymentsCount: 1,
		Revenue:       amount,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "snapshot_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"payments_count": gorm.Expr("revenue_daily_snapshot.payments_count + 1"),
			"revenue":        gorm.Expr("revenue_daily_snapshot.revenue + ?", amount),
			"updated_at":     time.Now().UTC(),
		}),
	}).Create(snapshot).Error
	if err != nil {
		s.log.Errorf("failed to bump revenue snapshot: %v", err)
	}
}

// SnapshotDate buckets a timestamp into its UTC day.
func SnapshotDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Transitions returns the persisted transition trail of one record, oldest
// first.
func (s *Service) Transitions(ctx context.Context, recordID ledger.RecordID) ([]*models.TransitionLog, error) {
	var logs []*models.TransitionLog
	err := s.db.WithContext(ctx).
		Where("record_id = ?", string(recordID)).
		Order("occurred_at asc, id asc").
		Find(&logs).Error
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("failed to load transitions: %v", err)
		return nil, err
	}
	return logs, nil
}

// RevenueReport summarizes a provider's redeemed revenue over a date range
// (inclusive, UTC days).
type RevenueReport struct {
	Provider      escrow.PartyID                 `json:"provider"`
	From          string                         `json:"from"`
	To            string                         `json:"to"`
	PaymentsCount int64                          `json:"payments_count"`
	Revenue       int64                          `json:"revenue"`
	RevenueDisp   decimal.Decimal                `json:"revenue_display"`
	Days          []*models.RevenueDailySnapshot `json:"days"`
}

func (s *Service) Revenue(ctx context.Context, provider escrow.PartyID, from, to time.Time) (*RevenueReport, error) {
	var days []*models.RevenueDailySnapshot
	err := s.db.WithContext(ctx).
		Where("provider = ? AND snapshot_date BETWEEN ? AND ?",
			string(provider), SnapshotDate(from), SnapshotDate(to)).
		Order("snapshot_date asc").
		Find(&days).Error
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("failed to load revenue snapshots: %v", err)
		return nil, err
	}
	return SummarizeRevenue(provider, from, to, days, s.cfg.Ledger.AssetDecimals), nil
}

// SummarizeRevenue folds daily snapshots into a report.
func SummarizeRevenue(provider escrow.PartyID, from, to time.Time, days []*models.RevenueDailySnapshot, decimals int32) *RevenueReport {
	revenue := lo.SumBy(days, func(d *models.RevenueDailySnapshot) int64 { return d.Revenue })
	return &RevenueReport{
		Provider:      provider,
		From:          SnapshotDate(from),
		To:            SnapshotDate(to),
		PaymentsCount: lo.SumBy(days, func(d *models.RevenueDailySnapshot) int64 { return d.PaymentsCount }),
		Revenue:       revenue,
		RevenueDisp:   decimal.NewFromInt(revenue).Div(decimal.New(1, decimals)),
		Days:          days,
	}
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(Subscribe),
)

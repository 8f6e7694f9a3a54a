package models

import "time"

// RevenueDailySnapshot aggregates redeemed payments per provider per day for
// analytics.
type RevenueDailySnapshot struct {
	ID       string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Provider string `gorm:"column:provider;type:varchar(64);not null;uniqueIndex:idx_provider_snapshot_date,priority:1" json:"provider"`
	// SnapshotDate is the UTC day in YYYY-MM-DD form.
	SnapshotDate string `gorm:"column:snapshot_date;uniqueIndex:idx_provider_snapshot_date,priority:2" json:"snapshot_date"`
	// PaymentsCount is how many payments were redeemed that day.
	PaymentsCount int64 `gorm:"column:payments_count;not null;default:0" json:"payments_count"`
	// Revenue is the sum redeemed that day, in base units of the asset.
	Revenue   int64     `gorm:"column:revenue;not null;default:0" json:"revenue"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RevenueDailySnapshot) TableName() string {
	return "revenue_daily_snapshot"
}

package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/inferpay/escrow/internal/escrow"
)

// TransitionLog records every state transition a ledger record went through.
// Use case: troubleshooting and audit.
type TransitionLog struct {
	ID       string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	RecordID string `gorm:"column:record_id;type:varchar(64);index:idx_record_id_id,priority:1;not null" json:"record_id"`
	TxID     string `gorm:"column:tx_id;type:varchar(64);not null" json:"tx_id"`
	// Kind is the transition kind (created, redeemed, paused, ...).
	Kind string `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	// Before stores the record before the transition in JSON format. Nil for
	// created records.
	Before datatypes.JSONType[*escrow.Successor] `gorm:"column:before;type:jsonb;default:'null'" json:"before"`
	// After stores the record after the transition in JSON format. Nil for
	// cancelled records.
	After datatypes.JSONType[*escrow.Successor] `gorm:"column:after;type:jsonb;default:'null'" json:"after"`
	// OccurredAt is the start of the validity window of the transaction that
	// applied the transition.
	OccurredAt time.Time `gorm:"column:occurred_at;not null" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (TransitionLog) TableName() string {
	return "transition_log"
}

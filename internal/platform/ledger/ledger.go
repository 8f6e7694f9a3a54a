// Package ledger models the host ledger's record store: one immutable record
// per active subscription, consumed atomically by at most one transaction.
// Concurrency is optimistic; conflicts surface at commit as ErrRecordSpent
// and are a normal outcome for callers, not an exception.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/inferpay/escrow/internal/escrow"
)

// RecordID names a subscription record for its whole lifetime. Successors
// keep the ID; the generation token changes on every transition.
type RecordID string

// Record is a snapshot of a live subscription record.
type Record struct {
	ID         RecordID                 `json:"id"`
	State      escrow.SubscriptionState `json:"state"`
	Balance    int64                    `json:"balance"`
	Generation uint64                   `json:"generation"`
}

// Input is one record a transaction proposes to consume, together with the
// action, the successor it produces (nil for cancel) and the net flow of the
// record's asset per party.
type Input struct {
	ID         RecordID
	Generation uint64
	Action     escrow.Action
	Successor  *escrow.Successor
	NetFlow    map[escrow.PartyID]int64
}

// NewRecord is a record a transaction creates from scratch.
type NewRecord struct {
	ID        RecordID
	Successor escrow.Successor
}

// Tx is a complete proposed transaction: signer set, validity window, the
// records it consumes and the records it creates. Commit applies it all or
// not at all.
type Tx struct {
	ID        string
	Signers   map[escrow.PartyID]struct{}
	ValidFrom time.Time
	ValidTo   time.Time
	Inputs    []Input
	Creates   []NewRecord
	Memo      string
}

// EventKind tags a settled transition on the read-only feed.
type EventKind string

const (
	EventCreated   EventKind = "created"
	EventUpdated   EventKind = "updated"
	EventRedeemed  EventKind = "redeemed"
	EventPaused    EventKind = "paused"
	EventResumed   EventKind = "resumed"
	EventCancelled EventKind = "cancelled"
)

// Event describes one settled transition. Before is nil for creations and
// After is nil for cancellations.
type Event struct {
	TxID       string
	Kind       EventKind
	RecordID   RecordID
	Before     *escrow.Successor
	After      *escrow.Successor
	OccurredAt time.Time
}

// ErrRecordSpent marks a commit conflict: an input record no longer exists
// or was transitioned by another transaction first.
var ErrRecordSpent = errors.New("record already spent")

// ErrRecordNotFound marks a read miss. Callers must treat it as a valid
// state (cancelled or never created), not a failure.
var ErrRecordNotFound = errors.New("record not found")

// ConflictError identifies which input lost the race so batch callers can
// drop just that record and retry with the rest.
type ConflictError struct {
	RecordID RecordID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("record %s: %v", e.RecordID, ErrRecordSpent)
}

func (e *ConflictError) Unwrap() error { return ErrRecordSpent }

// MalformedTxError marks a transaction that is structurally invalid
// regardless of ledger state: an input listed twice, or a create reusing a
// live record ID. Unlike a ConflictError it is not retryable.
type MalformedTxError struct {
	RecordID RecordID
	Reason   string
}

func (e *MalformedTxError) Error() string {
	return fmt.Sprintf("malformed tx: record %s: %s", e.RecordID, e.Reason)
}

// RejectedError wraps a validator rejection for one input of a transaction.
type RejectedError struct {
	RecordID RecordID
	Reason   error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("record %s rejected: %v", e.RecordID, e.Reason)
}

func (e *RejectedError) Unwrap() error { return e.Reason }

// Store is the record store surface the rest of the system depends on.
// Reads return copies; Commit is the only way to change anything.
type Store interface {
	Get(id RecordID) (Record, error)
	List() []Record
	ListByProvider(p escrow.PartyID) []Record
	ListByOwner(o escrow.PartyID) []Record
	Commit(tx *Tx) error
	Subscribe(fn func(Event))
}

func eventKind(a escrow.Action) EventKind {
	switch a.(type) {
	case escrow.Create:
		return EventCreated
	case escrow.Update:
		return EventUpdated
	case escrow.Cancel:
		return EventCancelled
	case escrow.Pause:
		return EventPaused
	case escrow.Resume:
		return EventResumed
	default:
		return EventRedeemed
	}
}

package escrow

import "time"

// Action is the closed set of operations a transaction may propose on a
// subscription record. Adding a variant is a compile-time change: Validate
// switches exhaustively over these types.
type Action interface {
	// Name returns the stable action name used in logs and metrics labels.
	Name() string
	isAction()
}

// Create locks an initial deposit into a brand-new subscription record.
// Signed by the owner.
type Create struct{}

// Update replaces the billing interval and payment amount. Signed by the
// owner; the record's balance must not change.
type Update struct {
	NewInterval time.Duration
	NewAmount   int64
}

// Cancel destroys the record and returns the full remaining balance to the
// owner. Signed by the owner; no successor record is produced.
type Cancel struct{}

// Pause suspends redemption. Signed by the provider.
type Pause struct{}

// Resume lifts a pause and pushes the payment schedule forward by the pause
// duration. Signed by the provider.
type Resume struct{}

// Redeem withdraws exactly one payment amount to the provider once the due
// date has passed. Signed by the provider.
type Redeem struct{}

func (Create) Name() string { return "create" }
func (Update) Name() string { return "update" }
func (Cancel) Name() string { return "cancel" }
func (Pause) Name() string  { return "pause" }
func (Resume) Name() string { return "resume" }
func (Redeem) Name() string { return "redeem" }

func (Create) isAction() {}
func (Update) isAction() {}
func (Cancel) isAction() {}
func (Pause) isAction()  {}
func (Resume) isAction() {}
func (Redeem) isAction() {}

// Package escrow holds the pure state-transition rules for subscription
// records. Validate decides, from the prior record, a proposed action and the
// externally verified transaction context alone, whether consuming the record
// is legal. It performs no I/O, holds no state between calls and may be
// evaluated concurrently by any number of independent checkers.
package escrow

// Validate returns nil when the proposed transition is legal and a
// *Rejection otherwise. Checks run in a fixed order (signature, action
// shape, time, balance, produced record) so that re-validating an identical
// (state, action, context) triple always yields the same reason.
//
// For Create there is no prior record; pass the zero SubscriptionState.
func Validate(prior SubscriptionState, action Action, ctx TxContext) error {
	switch a := action.(type) {
	case Create:
		return validateCreate(ctx)
	case Update:
		return validateUpdate(prior, a, ctx)
	case Cancel:
		return validateCancel(prior, ctx)
	case Pause:
		return validatePause(prior, ctx)
	case Resume:
		return validateResume(prior, ctx)
	case Redeem:
		return validateRedeem(prior, ctx)
	default:
		return reject(CodeMalformedAction, "unknown action")
	}
}

func validateCreate(ctx TxContext) error {
	next := ctx.Successor
	if next == nil {
		return reject(CodeInvalidTransition, "create must produce a record")
	}
	if !ctx.SignedBy(next.State.Owner) {
		return missingSignature(next.State.Owner, "owner")
	}
	if next.State.Interval <= 0 || next.State.PaymentAmount <= 0 {
		return reject(CodeInvalidTransition, "interval and payment amount must be positive")
	}
	if next.State.Paused || !next.State.PauseStartedAt.IsZero() {
		return reject(CodeInvalidTransition, "new subscription must start unpaused")
	}
	if !next.State.NextPaymentDue.Equal(ctx.ValidFrom.Add(next.State.Interval)) {
		return reject(CodeInvalidTransition, "first due date must be one interval from now")
	}
	if next.Balance <= 0 {
		return reject(CodeInvalidTransition, "locked amount must be positive")
	}
	if next.Balance < next.State.PaymentAmount {
		return reject(CodeInsufficientBalance, "initial deposit below payment amount")
	}
	return nil
}

func validateUpdate(prior SubscriptionState, a Update, ctx TxContext) error {
	if !ctx.SignedBy(prior.Owner) {
		return missingSignature(prior.Owner, "owner")
	}
	if a.NewInterval <= 0 || a.NewAmount <= 0 {
		return reject(CodeMalformedAction, "updated interval and amount must be positive")
	}
	next := ctx.Successor
	if next == nil {
		return reject(CodeInvalidTransition, "update must produce a record")
	}
	if next.Balance != ctx.PriorBalance {
		return reject(CodeInvalidTransition, "update must not move funds")
	}
	if next.Balance < a.NewAmount {
		return reject(CodeInsufficientBalance, "balance below updated payment amount")
	}
	want := prior
	want.Interval = a.NewInterval
	want.PaymentAmount = a.NewAmount
	if !next.State.Equal(want) {
		return reject(CodeInvalidTransition, "update may only change interval and amount")
	}
	return nil
}

func validateCancel(prior SubscriptionState, ctx TxContext) error {
	if !ctx.SignedBy(prior.Owner) {
		return missingSignature(prior.Owner, "owner")
	}
	if ctx.Successor != nil {
		return reject(CodeInvalidTransition, "cancel must not produce a record")
	}
	if ctx.PaidTo(prior.Owner) != ctx.PriorBalance {
		return reject(CodeInvalidTransition, "cancel must return the full balance to the owner")
	}
	return nil
}

func validatePause(prior SubscriptionState, ctx TxContext) error {
	if !ctx.SignedBy(prior.Provider) {
		return missingSignature(prior.Provider, "provider")
	}
	if prior.Paused {
		return reject(CodeMalformedAction, "subscription already paused")
	}
	next := ctx.Successor
	if next == nil {
		return reject(CodeInvalidTransition, "pause must produce a record")
	}
	if next.Balance != ctx.PriorBalance {
		return reject(CodeInvalidTransition, "pause must not move funds")
	}
	want := prior
	want.Paused = true
	want.PauseStartedAt = ctx.ValidFrom
	if !next.State.Equal(want) {
		return reject(CodeInvalidTransition, "pause may only set the pause flag and start time")
	}
	return nil
}

func validateResume(prior SubscriptionState, ctx TxContext) error {
	if !ctx.SignedBy(prior.Provider) {
		return missingSignature(prior.Provider, "provider")
	}
	if !prior.Paused {
		return reject(CodeMalformedAction, "subscription is not paused")
	}
	due, err := ExtendOnResume(prior.NextPaymentDue, prior.PauseStartedAt, ctx.ValidFrom)
	if err != nil {
		return err
	}
	next := ctx.Successor
	if next == nil {
		return reject(CodeInvalidTransition, "resume must produce a record")
	}
	if next.Balance != ctx.PriorBalance {
		return reject(CodeInvalidTransition, "resume must not move funds")
	}
	want := prior
	want.Paused = false
	want.PauseStartedAt = zeroTime
	want.NextPaymentDue = due
	if !next.State.Equal(want) {
		return reject(CodeInvalidTransition, "resume must extend the due date by the pause duration")
	}
	return nil
}

func validateRedeem(prior SubscriptionState, ctx TxContext) error {
	if !ctx.SignedBy(prior.Provider) {
		return missingSignature(prior.Provider, "provider")
	}
	if prior.Paused {
		return reject(CodeSubscriptionPaused, "cannot redeem while paused")
	}
	if !ctx.ValidFrom.After(prior.NextPaymentDue) {
		return reject(CodePaymentNotDue, "payment not yet due")
	}
	if ctx.PriorBalance < prior.PaymentAmount {
		return reject(CodeInsufficientBalance, "balance below payment amount")
	}
	next := ctx.Successor
	if next == nil {
		return reject(CodeInvalidTransition, "redeem must produce a record")
	}
	if next.Balance != ctx.PriorBalance-prior.PaymentAmount {
		return reject(CodeInvalidTransition, "redeem must leave prior balance minus one payment")
	}
	if ctx.PaidTo(prior.Provider) != prior.PaymentAmount {
		return reject(CodeInvalidTransition, "exactly one payment amount must flow to the provider")
	}
	want := prior
	want.NextPaymentDue = AdvanceOnPayment(prior.NextPaymentDue, prior.Interval)
	if !next.State.Equal(want) {
		return reject(CodeInvalidTransition, "redeem may only advance the due date")
	}
	return nil
}

package escrow

import (
	"errors"
	"fmt"
)

// RejectCode is the machine-readable reason a proposed transition was
// refused. Every failed condition maps to a distinct code so callers can
// react specifically: "not yet due" and "insufficient balance" need
// different remedies.
type RejectCode string

const (
	// CodeMissingSignature means a required signer is absent.
	CodeMissingSignature RejectCode = "MISSING_SIGNATURE"
	// CodePaymentNotDue means a redeem was attempted at or before the due date.
	CodePaymentNotDue RejectCode = "PAYMENT_NOT_DUE"
	// CodeSubscriptionPaused means a redeem was attempted while paused.
	CodeSubscriptionPaused RejectCode = "SUBSCRIPTION_PAUSED"
	// CodeInsufficientBalance means the transition would leave the balance
	// negative or below the committed payment amount.
	CodeInsufficientBalance RejectCode = "INSUFFICIENT_BALANCE"
	// CodeInvalidTransition means the produced record or asset flow violates
	// the transition table for the chosen action.
	CodeInvalidTransition RejectCode = "INVALID_TRANSITION"
	// CodeNonMonotonicSchedule means a resume would move the due date backward.
	CodeNonMonotonicSchedule RejectCode = "NON_MONOTONIC_SCHEDULE"
	// CodeMalformedAction means the action is inconsistent with the prior
	// state, e.g. Resume on a record that is not paused.
	CodeMalformedAction RejectCode = "MALFORMED_ACTION"
)

// Rejection is the validator's negative outcome. It is a value, not an
// exception: validation always terminates with a definite accept or a
// Rejection, and re-validating the same triple yields the same Rejection.
type Rejection struct {
	Code RejectCode
	// Party is set for CodeMissingSignature: the signer that was required.
	Party  PartyID
	Detail string
}

func (r *Rejection) Error() string {
	if r.Party != "" {
		return fmt.Sprintf("%s: %s (party %s)", r.Code, r.Detail, r.Party)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Detail)
}

func missingSignature(p PartyID, role string) *Rejection {
	return &Rejection{Code: CodeMissingSignature, Party: p, Detail: "required " + role + " signature missing"}
}

func reject(code RejectCode, detail string) *Rejection {
	return &Rejection{Code: code, Detail: detail}
}

// CodeOf extracts the rejection code from an error, or "" when the error is
// not a Rejection.
func CodeOf(err error) RejectCode {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Code
	}
	return ""
}

// IsRejection reports whether err is a Rejection with the given code.
func IsRejection(err error, code RejectCode) bool {
	return CodeOf(err) == code
}

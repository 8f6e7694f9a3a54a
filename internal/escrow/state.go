package escrow

import "time"

// PartyID identifies a paying owner or a service provider. It is the
// hex-encoded hash of the party's public key; the surrounding ledger proves
// signature presence before the validator ever runs.
type PartyID string

// AssetID identifies the fungible asset a subscription pays with. Immutable
// after creation.
type AssetID string

var zeroTime time.Time

// SubscriptionState is the payload carried by a subscription record. The
// record's balance lives at the ledger level and is passed in through
// TxContext, not stored here.
type SubscriptionState struct {
	Owner          PartyID       `json:"owner"`
	Provider       PartyID       `json:"provider"`
	NextPaymentDue time.Time     `json:"next_payment_due"`
	Interval       time.Duration `json:"interval"`
	PaymentAmount  int64         `json:"payment_amount"`
	Asset          AssetID       `json:"asset"`
	Paused         bool          `json:"paused"`
	// PauseStartedAt is meaningful only while Paused is true; it is the zero
	// time otherwise.
	PauseStartedAt time.Time `json:"pause_started_at,omitempty"`
}

// Equal reports whether two states are field-for-field identical. Timestamps
// compare with time.Time.Equal so location differences do not matter.
func (s SubscriptionState) Equal(o SubscriptionState) bool {
	return s.Owner == o.Owner &&
		s.Provider == o.Provider &&
		s.NextPaymentDue.Equal(o.NextPaymentDue) &&
		s.Interval == o.Interval &&
		s.PaymentAmount == o.PaymentAmount &&
		s.Asset == o.Asset &&
		s.Paused == o.Paused &&
		s.PauseStartedAt.Equal(o.PauseStartedAt)
}

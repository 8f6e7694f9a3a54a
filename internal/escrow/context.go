package escrow

import "time"

// Successor is the record a transaction proposes to produce in place of the
// one it consumes: the new payload plus the balance left locked with it.
type Successor struct {
	State   SubscriptionState `json:"state"`
	Balance int64             `json:"balance"`
}

// TxContext exposes the externally verified facts the validator is allowed to
// reason about: which signatures are present, the transaction's declared
// validity window, the proposed successor (if any), the balance held by the
// consumed record, and the net flow of the record's asset to each party.
//
// ValidFrom is the authoritative "now". The validator never reads a clock.
type TxContext struct {
	Signers      map[PartyID]struct{}
	ValidFrom    time.Time
	ValidTo      time.Time
	PriorBalance int64
	Successor    *Successor
	// NetFlow maps a party to the amount of the record's asset the
	// transaction pays out to them.
	NetFlow map[PartyID]int64
}

// SignedBy reports whether the given party's signature is present on the
// transaction.
func (c TxContext) SignedBy(p PartyID) bool {
	_, ok := c.Signers[p]
	return ok
}

// PaidTo returns the net outflow of the record's asset to the given party.
func (c TxContext) PaidTo(p PartyID) int64 {
	return c.NetFlow[p]
}

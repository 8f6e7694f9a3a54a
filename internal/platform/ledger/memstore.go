package ledger

import (
	"sync"

	"go.uber.org/zap"

	"github.com/inferpay/escrow/internal/escrow"
	"github.com/inferpay/escrow/pkg/metrics"
)

// MemStore is the in-process record store. A mutex serializes commits; every
// commit re-runs the escrow validator for each consumed and created record,
// so nothing the assembler builds can bypass the transition rules.
type MemStore struct {
	mu      sync.RWMutex
	records map[RecordID]*Record
	subs    []func(Event)
	log     *zap.SugaredLogger
}

func NewMemStore(log *zap.SugaredLogger) *MemStore {
	return &MemStore{
		records: make(map[RecordID]*Record),
		log:     log,
	}
}

func (s *MemStore) Get(id RecordID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return *r, nil
}

func (s *MemStore) List() []Record {
	return s.filter(func(Record) bool { return true })
}

func (s *MemStore) ListByProvider(p escrow.PartyID) []Record {
	return s.filter(func(r Record) bool { return r.State.Provider == p })
}

func (s *MemStore) ListByOwner(o escrow.PartyID) []Record {
	return s.filter(func(r Record) bool { return r.State.Owner == o })
}

func (s *MemStore) filter(keep func(Record) bool) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if keep(*r) {
			out = append(out, *r)
		}
	}
	return out
}

// Subscribe registers a feed consumer. Events for a committed transaction
// are delivered after the commit, in input order, on the committing
// goroutine.
func (s *MemStore) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Commit validates and applies tx atomically. On a lost race it returns a
// *ConflictError naming the spent input; on a validator rejection it returns
// a *RejectedError. In both cases nothing is applied.
func (s *MemStore) Commit(tx *Tx) error {
	s.mu.Lock()

	// Structural checks first: each record may be consumed at most once per
	// transaction, and a create must not reuse an ID that is live or already
	// claimed within the same transaction.
	ids := make(map[RecordID]struct{}, len(tx.Inputs)+len(tx.Creates))
	for _, in := range tx.Inputs {
		if _, dup := ids[in.ID]; dup {
			s.mu.Unlock()
			return &MalformedTxError{RecordID: in.ID, Reason: "record consumed more than once"}
		}
		ids[in.ID] = struct{}{}
	}
	for _, c := range tx.Creates {
		if _, taken := ids[c.ID]; taken {
			s.mu.Unlock()
			return &MalformedTxError{RecordID: c.ID, Reason: "created record ID already used in this transaction"}
		}
		if _, live := s.records[c.ID]; live {
			s.mu.Unlock()
			return &MalformedTxError{RecordID: c.ID, Reason: "created record ID collides with a live record"}
		}
		ids[c.ID] = struct{}{}
	}

	// Check-before-apply: every input must still exist at its expected
	// generation, and every transition must validate, before anything moves.
	priors := make([]*Record, len(tx.Inputs))
	for i, in := range tx.Inputs {
		rec, ok := s.records[in.ID]
		if !ok || rec.Generation != in.Generation {
			s.mu.Unlock()
			s.observe(in.Action, "conflict")
			return &ConflictError{RecordID: in.ID}
		}
		priors[i] = rec
	}

	for i, in := range tx.Inputs {
		ctx := escrow.TxContext{
			Signers:      tx.Signers,
			ValidFrom:    tx.ValidFrom,
			ValidTo:      tx.ValidTo,
			PriorBalance: priors[i].Balance,
			Successor:    in.Successor,
			NetFlow:      in.NetFlow,
		}
		if err := escrow.Validate(priors[i].State, in.Action, ctx); err != nil {
			s.mu.Unlock()
			s.observe(in.Action, string(escrow.CodeOf(err)))
			return &RejectedError{RecordID: in.ID, Reason: err}
		}
	}

	for _, c := range tx.Creates {
		ctx := escrow.TxContext{
			Signers:   tx.Signers,
			ValidFrom: tx.ValidFrom,
			ValidTo:   tx.ValidTo,
			Successor: &escrow.Successor{State: c.Successor.State, Balance: c.Successor.Balance},
		}
		if err := escrow.Validate(escrow.SubscriptionState{}, escrow.Create{}, ctx); err != nil {
			s.mu.Unlock()
			s.observe(escrow.Create{}, string(escrow.CodeOf(err)))
			return &RejectedError{RecordID: c.ID, Reason: err}
		}
	}

	events := make([]Event, 0, len(tx.Inputs)+len(tx.Creates))
	for i, in := range tx.Inputs {
		before := &escrow.Successor{State: priors[i].State, Balance: priors[i].Balance}
		if in.Successor == nil {
			delete(s.records, in.ID)
		} else {
			s.records[in.ID] = &Record{
				ID:         in.ID,
				State:      in.Successor.State,
				Balance:    in.Successor.Balance,
				Generation: priors[i].Generation + 1,
			}
		}
		events = append(events, Event{
			TxID:       tx.ID,
			Kind:       eventKind(in.Action),
			RecordID:   in.ID,
			Before:     before,
			After:      in.Successor,
			OccurredAt: tx.ValidFrom,
		})
		s.observe(in.Action, "accepted")
	}
	for _, c := range tx.Creates {
		created := c.Successor
		s.records[c.ID] = &Record{ID: c.ID, State: created.State, Balance: created.Balance, Generation: 1}
		events = append(events, Event{
			TxID:       tx.ID,
			Kind:       EventCreated,
			RecordID:   c.ID,
			After:      &created,
			OccurredAt: tx.ValidFrom,
		})
		s.observe(escrow.Create{}, "accepted")
	}

	subs := make([]func(Event), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infow("tx committed", "tx_id", tx.ID, "inputs", len(tx.Inputs), "creates", len(tx.Creates), "memo", tx.Memo)
	}
	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
	return nil
}

func (s *MemStore) observe(action escrow.Action, outcome string) {
	metrics.ValidatorDecisions.WithLabelValues(action.Name(), outcome).Inc()
}

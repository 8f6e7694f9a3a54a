// Package keyring maps wallet names to party identities. Real key custody
// and signature verification belong to the surrounding ledger; the escrow
// validator only ever sees the set of identities whose signatures the host
// already proved present.
package keyring

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/inferpay/escrow/internal/escrow"
)

// Keyring registers named wallets and derives a stable PartyID for each:
// the hex-encoded SHA-256 of a freshly generated ed25519 public key,
// shortened to the 28-byte length of a payment key hash.
type Keyring struct {
	mu      sync.RWMutex
	parties map[string]escrow.PartyID
	log     *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Keyring {
	return &Keyring{parties: make(map[string]escrow.PartyID), log: log}
}

// Register creates a wallet under name and returns its identity. Registering
// an existing name returns the existing identity.
func (k *Keyring) Register(name string) (escrow.PartyID, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if p, ok := k.parties[name]; ok {
		return p, nil
	}
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate key for %s: %w", name, err)
	}
	sum := sha256.Sum256(pub)
	p := escrow.PartyID(hex.EncodeToString(sum[:28]))
	k.parties[name] = p
	k.log.Infow("wallet registered", "name", name, "party", p)
	return p, nil
}

// Lookup resolves a wallet name to its identity.
func (k *Keyring) Lookup(name string) (escrow.PartyID, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	p, ok := k.parties[name]
	return p, ok
}

// Resolve accepts either a registered wallet name or a raw party identity.
// Unknown names fall through as identities so callers can pass hashes
// directly.
func (k *Keyring) Resolve(nameOrID string) escrow.PartyID {
	if p, ok := k.Lookup(nameOrID); ok {
		return p
	}
	return escrow.PartyID(nameOrID)
}

// SignerSet marks the given parties' signatures present on a transaction.
func SignerSet(parties ...escrow.PartyID) map[escrow.PartyID]struct{} {
	m := make(map[escrow.PartyID]struct{}, len(parties))
	for _, p := range parties {
		m[p] = struct{}{}
	}
	return m
}

var Module = fx.Options(
	fx.Provide(New),
)

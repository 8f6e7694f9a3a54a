// Package gate answers the question a provider asks before serving a
// request: does this owner have a live, funded subscription with me? An
// affirmative answer comes with a short-lived access token the provider's
// edge can verify without touching the ledger again.
package gate

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/inferpay/escrow/internal/escrow"
	"github.com/inferpay/escrow/internal/platform/ledger"
	"github.com/inferpay/escrow/pkg/config"
	"github.com/inferpay/escrow/pkg/logctx"
	"github.com/inferpay/escrow/pkg/metrics"
)

type Status string

const (
	// StatusActive means the subscription is funded and unpaused; serve the
	// request.
	StatusActive Status = "active"
	// StatusPaused means redemption is suspended; the balance is intact but
	// service should be withheld until resume.
	StatusPaused Status = "paused"
	// StatusOverdue means a payment is claimable right now. Service policy:
	// still active, but flagged so the provider can trigger settlement.
	StatusOverdue Status = "overdue"
	// StatusExhausted means the remaining balance no longer covers one
	// payment.
	StatusExhausted Status = "exhausted"
	// StatusNotFound means no subscription links this owner to this provider.
	StatusNotFound Status = "not_found"
)

// Decision is the gate's verdict for one owner/provider pair.
type Decision struct {
	Status         Status          `json:"status"`
	RecordID       ledger.RecordID `json:"record_id,omitempty"`
	Balance        int64           `json:"balance,omitempty"`
	NextPaymentDue *time.Time      `json:"next_payment_due,omitempty"`
	// Token is a signed access credential, present only when the status
	// permits service.
	Token string `json:"token,omitempty"`
}

// Serviceable reports whether the provider should serve requests under this
// decision.
func (d *Decision) Serviceable() bool {
	return d.Status == StatusActive || d.Status == StatusOverdue
}

type Claims struct {
	jwt.StandardClaims
	Owner    string `json:"owner"`
	Provider string `json:"provider"`
	RecordID string `json:"record_id"`
	Status   string `json:"status"`
}

type Gate struct {
	cfg   *config.Config
	store ledger.Store
	log   *zap.SugaredLogger
}

func New(cfg *config.Config, store ledger.Store, log *zap.SugaredLogger) *Gate {
	return &Gate{cfg: cfg, store: store, log: log}
}

// Check resolves the subscription linking owner to provider and classifies
// it. Serviceable decisions carry a signed token.
func (g *Gate) Check(ctx context.Context, owner, provider escrow.PartyID) (*Decision, error) {
	rec, ok := g.find(owner, provider)
	if !ok {
		metrics.GateChecks.WithLabelValues(string(StatusNotFound)).Inc()
		return &Decision{Status: StatusNotFound}, nil
	}

	now := time.Now().UTC()
	decision := &Decision{
		RecordID:       rec.ID,
		Balance:        rec.Balance,
		NextPaymentDue: &rec.State.NextPaymentDue,
		Status:         g.classify(rec, now),
	}
	if decision.Serviceable() {
		token, err := g.issueToken(rec, decision.Status, now)
		if err != nil {
			return nil, err
		}
		decision.Token = token
	}

	metrics.GateChecks.WithLabelValues(string(decision.Status)).Inc()
	logctx.FromCtx(ctx, g.log).Debugw("gate check",
		"owner", owner, "provider", provider, "status", decision.Status)
	return decision, nil
}

// find returns the record for the pair. At most one live subscription links
// an owner to a provider; if several exist the earliest due one governs.
func (g *Gate) find(owner, provider escrow.PartyID) (ledger.Record, bool) {
	var best ledger.Record
	found := false
	for _, rec := range g.store.ListByOwner(owner) {
		if rec.State.Provider != provider {
			continue
		}
		if !found || rec.State.NextPaymentDue.Before(best.State.NextPaymentDue) {
			best = rec
			found = true
		}
	}
	return best, found
}

func (g *Gate) classify(rec ledger.Record, now time.Time) Status {
	switch {
	case rec.State.Paused:
		return StatusPaused
	case rec.Balance < rec.State.PaymentAmount:
		return StatusExhausted
	case now.After(rec.State.NextPaymentDue):
		return StatusOverdue
	default:
		return StatusActive
	}
}

func (g *Gate) issueToken(rec ledger.Record, status Status, now time.Time) (string, error) {
	ttl := time.Duration(g.cfg.Gate.TokenTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
			Subject:   string(rec.State.Owner),
		},
		Owner:    string(rec.State.Owner),
		Provider: string(rec.State.Provider),
		RecordID: string(rec.ID),
		Status:   string(status),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(g.cfg.Gate.JWTSecret))
}

// VerifyToken parses and validates an access token previously issued by
// Check.
func (g *Gate) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.NewValidationError("unexpected signing method", jwt.ValidationErrorSignatureInvalid)
		}
		return []byte(g.cfg.Gate.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

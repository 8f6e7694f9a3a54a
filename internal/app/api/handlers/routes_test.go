package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	gatesvc "github.com/inferpay/escrow/internal/app/service/gate"
	"github.com/inferpay/escrow/internal/app/service/settlement"
	"github.com/inferpay/escrow/internal/app/service/transaction"
	"github.com/inferpay/escrow/internal/platform/keyring"
	"github.com/inferpay/escrow/internal/platform/ledger"
	"github.com/inferpay/escrow/pkg/config"
	"github.com/inferpay/escrow/pkg/response"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	cfg := &config.Config{
		Ledger:     config.LedgerConfig{BaseFee: 170_000, PerInputFee: 50_000, AssetDecimals: 6, TxTTLSeconds: 600},
		Settlement: config.SettlementConfig{BatchLimit: 5},
		Gate:       config.GateConfig{JWTSecret: "test-secret", TokenTTLMinutes: 15},
	}
	store := ledger.NewMemStore(log)
	kr := keyring.New(log)
	mgr := transaction.NewManager(cfg, store, log)
	settle := settlement.NewService(cfg, store, mgr, log)
	gate := gatesvc.New(cfg, store, log)

	r := gin.New()
	api := r.Group("/api/v1")
	RegisterWalletRoutes(api, kr)
	RegisterSubscriptionRoutes(api, mgr, store, kr)
	RegisterSettlementRoutes(api, settle, kr)
	RegisterGateRoutes(api, gate, kr)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *response.APIResponse[json.RawMessage] {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp response.APIResponse[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp
}

func TestSubscriptionLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	// Register both wallets.
	owner := doJSON(t, r, http.MethodPost, "/api/v1/wallets", `{"name":"alice"}`)
	require.Equal(t, response.APIResponseCodeOK, owner.Code)
	provider := doJSON(t, r, http.MethodPost, "/api/v1/wallets", `{"name":"gpt-host"}`)
	require.Equal(t, response.APIResponseCodeOK, provider.Code)

	// Open a subscription by wallet name.
	created := doJSON(t, r, http.MethodPost, "/api/v1/subscriptions",
		`{"owner":"alice","provider":"gpt-host","interval_seconds":3600,"amount":10,"asset":"lovelace","deposit":100}`)
	require.Equal(t, response.APIResponseCodeOK, created.Code)
	var ids map[string]string
	require.NoError(t, json.Unmarshal(created.Data, &ids))
	recordID := ids["record_id"]
	require.NotEmpty(t, recordID)

	// The record is visible and funded.
	got := doJSON(t, r, http.MethodGet, "/api/v1/subscriptions/"+recordID, "")
	require.Equal(t, response.APIResponseCodeOK, got.Code)
	var view SubscriptionView
	require.NoError(t, json.Unmarshal(got.Data, &view))
	assert.Equal(t, int64(100), view.Balance)
	assert.Equal(t, int64(3600), view.IntervalSecs)

	// Gate admits the pair while funded and current.
	check := doJSON(t, r, http.MethodGet, "/api/v1/gate/check?owner=alice&provider=gpt-host", "")
	require.Equal(t, response.APIResponseCodeOK, check.Code)
	var decision gatesvc.Decision
	require.NoError(t, json.Unmarshal(check.Data, &decision))
	assert.Equal(t, gatesvc.StatusActive, decision.Status)
	assert.NotEmpty(t, decision.Token)

	// Redeeming before the due date is refused with a rejection message.
	redeemed := doJSON(t, r, http.MethodPost, "/api/v1/subscriptions/"+recordID+"/redeem", "")
	assert.Equal(t, response.APIResponseCodeBadRequest, redeemed.Code)

	// Nothing is due yet, so the settlement plan is empty.
	plan := doJSON(t, r, http.MethodGet, "/api/v1/settlement/plan?provider=gpt-host", "")
	require.Equal(t, response.APIResponseCodeOK, plan.Code)
	var planned settlement.Plan
	require.NoError(t, json.Unmarshal(plan.Data, &planned))
	assert.Empty(t, planned.Candidates)

	// Cancel refunds and removes the record.
	cancelled := doJSON(t, r, http.MethodDelete, "/api/v1/subscriptions/"+recordID, "")
	require.Equal(t, response.APIResponseCodeOK, cancelled.Code)
	gone := doJSON(t, r, http.MethodGet, "/api/v1/subscriptions/"+recordID, "")
	assert.Equal(t, response.APIResponseCodeNotFound, gone.Code)
}

func TestCreateSubscription_BadRequest(t *testing.T) {
	r := newTestRouter(t)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/subscriptions", `{"owner":"alice"}`)
	assert.Equal(t, response.APIResponseCodeBadRequest, resp.Code)
}

func TestGateCheck_MissingParams(t *testing.T) {
	r := newTestRouter(t)

	resp := doJSON(t, r, http.MethodGet, "/api/v1/gate/check?owner=alice", "")
	assert.Equal(t, response.APIResponseCodeBadRequest, resp.Code)
}

func TestRegisterRoutes_Endpoints(t *testing.T) {
	r := newTestRouter(t)

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("POST /api/v1/subscriptions"))
	require.True(t, contains("POST /api/v1/subscriptions/:id/redeem"))
	require.True(t, contains("POST /api/v1/settlement/run"))
	require.True(t, contains("GET /api/v1/gate/check"))
	require.True(t, contains("GET /api/v1/wallets/:name"))
}

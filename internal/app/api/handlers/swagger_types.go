package handlers

import (
	"github.com/inferpay/escrow/internal/app/service/gate"
	"github.com/inferpay/escrow/internal/app/service/history"
	"github.com/inferpay/escrow/internal/app/service/settlement"
	"github.com/inferpay/escrow/internal/models"
	"github.com/inferpay/escrow/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespWallet wraps a wallet name/party pair in the standard envelope.
type RespWallet struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    map[string]string        `json:"data"`
}

// RespSubscription wraps one subscription view in the standard envelope.
type RespSubscription struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    SubscriptionView         `json:"data"`
}

// RespSubscriptionList wraps a list of subscription views in the standard envelope.
type RespSubscriptionList struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []SubscriptionView       `json:"data"`
}

// RespAnalysis wraps a subscription analysis in the standard envelope.
type RespAnalysis struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    history.Analysis         `json:"data"`
}

// RespSettlementPlan wraps a settlement plan in the standard envelope.
type RespSettlementPlan struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    settlement.Plan          `json:"data"`
}

// RespSettlementSimulation wraps a fee-savings simulation in the standard envelope.
type RespSettlementSimulation struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    settlement.Simulation    `json:"data"`
}

// RespSettlementResult wraps a settlement result in the standard envelope.
type RespSettlementResult struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    settlement.Result        `json:"data"`
}

// RespGateDecision wraps a gate decision in the standard envelope.
type RespGateDecision struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    gate.Decision            `json:"data"`
}

// RespGateClaims wraps verified token claims in the standard envelope.
type RespGateClaims struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    gate.Claims              `json:"data"`
}

// RespTransitions wraps a record's transition trail in the standard envelope.
type RespTransitions struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.TransitionLog   `json:"data"`
}

// RespRevenueReport wraps a revenue report in the standard envelope.
type RespRevenueReport struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    history.RevenueReport    `json:"data"`
}

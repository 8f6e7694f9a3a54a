package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inferpay/escrow/internal/app/service/history"
	"github.com/inferpay/escrow/internal/app/service/transaction"
	"github.com/inferpay/escrow/internal/escrow"
	"github.com/inferpay/escrow/internal/platform/keyring"
	"github.com/inferpay/escrow/internal/platform/ledger"
	"github.com/inferpay/escrow/pkg/response"
)

// CreateSubscriptionRequest opens a new subscription escrow.
type CreateSubscriptionRequest struct {
	// Owner and Provider accept a registered wallet name or a raw party hash.
	Owner           string `json:"owner" binding:"required"`
	Provider        string `json:"provider" binding:"required"`
	IntervalSeconds int64  `json:"interval_seconds" binding:"required,gt=0"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	Asset           string `json:"asset" binding:"required"`
	Deposit         int64  `json:"deposit" binding:"required,gt=0"`
}

// UpdateSubscriptionRequest replaces the billing terms of a subscription.
type UpdateSubscriptionRequest struct {
	IntervalSeconds int64 `json:"interval_seconds" binding:"required,gt=0"`
	Amount          int64 `json:"amount" binding:"required,gt=0"`
}

// SubscriptionView is the API shape of one escrow record.
type SubscriptionView struct {
	RecordID       string    `json:"record_id"`
	Owner          string    `json:"owner"`
	Provider       string    `json:"provider"`
	NextPaymentDue time.Time `json:"next_payment_due"`
	IntervalSecs   int64     `json:"interval_seconds"`
	Amount         int64     `json:"amount"`
	Asset          string    `json:"asset"`
	Balance        int64     `json:"balance"`
	Paused         bool      `json:"paused"`
}

func viewOf(rec ledger.Record) SubscriptionView {
	return SubscriptionView{
		RecordID:       string(rec.ID),
		Owner:          string(rec.State.Owner),
		Provider:       string(rec.State.Provider),
		NextPaymentDue: rec.State.NextPaymentDue,
		IntervalSecs:   int64(rec.State.Interval / time.Second),
		Amount:         rec.State.PaymentAmount,
		Asset:          string(rec.State.Asset),
		Balance:        rec.Balance,
		Paused:         rec.State.Paused,
	}
}

// writeLedgerError maps ledger failures onto the response envelope. Every
// outcome is HTTP 200 with a machine-readable code, matching the rest of the
// API.
func writeLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrRecordNotFound):
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
	case errors.Is(err, ledger.ErrRecordSpent):
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
	default:
		var rejected *ledger.RejectedError
		if errors.As(err, &rejected) {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, rejected.Error()))
			return
		}
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
	}
}

// @Summary      Create subscription
// @Description  Locks a deposit into escrow; the first payment falls due one interval from now
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request  body      CreateSubscriptionRequest  true  "subscription terms"
// @Success      200      {object}  RespSubscription
// @Router       /api/v1/subscriptions [post]
func ApiCreateSubscription(mgr *transaction.Manager, kr *keyring.Keyring) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		id, err := mgr.CreateSubscription(c.Request.Context(), &transaction.CreateRequest{
			Owner:    kr.Resolve(req.Owner),
			Provider: kr.Resolve(req.Provider),
			Interval: time.Duration(req.IntervalSeconds) * time.Second,
			Amount:   req.Amount,
			Asset:    escrow.AssetID(req.Asset),
			Deposit:  req.Deposit,
		})
		if err != nil {
			writeLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"record_id": string(id)}))
	}
}

// @Summary      Get subscription
// @Tags         Subscription
// @Produce      json
// @Param        id   path      string  true  "record id"
// @Success      200  {object}  RespSubscription
// @Router       /api/v1/subscriptions/{id} [get]
func ApiGetSubscription(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := store.Get(ledger.RecordID(c.Param("id")))
		if err != nil {
			writeLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(viewOf(rec)))
	}
}

// @Summary      Subscription status analysis
// @Description  Payments remaining, overdue state, and estimated end date
// @Tags         Subscription
// @Produce      json
// @Param        id   path      string  true  "record id"
// @Success      200  {object}  RespAnalysis
// @Router       /api/v1/subscriptions/{id}/analysis [get]
func ApiAnalyzeSubscription(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := store.Get(ledger.RecordID(c.Param("id")))
		if err != nil {
			writeLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(history.Analyze(rec, time.Now().UTC())))
	}
}

// @Summary      Update subscription terms
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "record id"
// @Param        request  body      UpdateSubscriptionRequest  true  "new terms"
// @Success      200      {object}  RespOK
// @Router       /api/v1/subscriptions/{id} [put]
func ApiUpdateSubscription(mgr *transaction.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		err := mgr.UpdateSubscription(c.Request.Context(), ledger.RecordID(c.Param("id")),
			time.Duration(req.IntervalSeconds)*time.Second, req.Amount)
		if err != nil {
			writeLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Cancel subscription
// @Description  Destroys the escrow and refunds the full remaining balance to the owner
// @Tags         Subscription
// @Produce      json
// @Param        id   path      string  true  "record id"
// @Success      200  {object}  RespOK
// @Router       /api/v1/subscriptions/{id} [delete]
func ApiCancelSubscription(mgr *transaction.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.CancelSubscription(c.Request.Context(), ledger.RecordID(c.Param("id"))); err != nil {
			writeLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Pause subscription
// @Tags         Subscription
// @Produce      json
// @Param        id   path      string  true  "record id"
// @Success      200  {object}  RespOK
// @Router       /api/v1/subscriptions/{id}/pause [post]
func ApiPauseSubscription(mgr *transaction.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.PauseSubscription(c.Request.Context(), ledger.RecordID(c.Param("id"))); err != nil {
			writeLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Resume subscription
// @Description  Lifts a pause; the next due date moves forward by the paused duration
// @Tags         Subscription
// @Produce      json
// @Param        id   path      string  true  "record id"
// @Success      200  {object}  RespOK
// @Router       /api/v1/subscriptions/{id}/resume [post]
func ApiResumeSubscription(mgr *transaction.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.ResumeSubscription(c.Request.Context(), ledger.RecordID(c.Param("id"))); err != nil {
			writeLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Redeem one payment
// @Description  Withdraws exactly one payment amount to the provider
// @Tags         Subscription
// @Produce      json
// @Param        id   path      string  true  "record id"
// @Success      200  {object}  RespOK
// @Router       /api/v1/subscriptions/{id}/redeem [post]
func ApiRedeemPayment(mgr *transaction.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.RedeemPayment(c.Request.Context(), ledger.RecordID(c.Param("id"))); err != nil {
			writeLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      List subscriptions by party
// @Tags         Subscription
// @Produce      json
// @Param        owner     query     string  false  "owner wallet name or hash"
// @Param        provider  query     string  false  "provider wallet name or hash"
// @Success      200       {object}  RespSubscriptionList
// @Router       /api/v1/subscriptions [get]
func ApiListSubscriptions(store ledger.Store, kr *keyring.Keyring) gin.HandlerFunc {
	return func(c *gin.Context) {
		var records []ledger.Record
		switch {
		case c.Query("owner") != "":
			records = store.ListByOwner(kr.Resolve(c.Query("owner")))
		case c.Query("provider") != "":
			records = store.ListByProvider(kr.Resolve(c.Query("provider")))
		default:
			records = store.List()
		}
		views := make([]SubscriptionView, 0, len(records))
		for _, rec := range records {
			views = append(views, viewOf(rec))
		}
		c.JSON(http.StatusOK, response.OKT(views))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, mgr *transaction.Manager, store ledger.Store, kr *keyring.Keyring) {
	r.POST("/subscriptions", ApiCreateSubscription(mgr, kr))
	r.GET("/subscriptions", ApiListSubscriptions(store, kr))
	r.GET("/subscriptions/:id", ApiGetSubscription(store))
	r.GET("/subscriptions/:id/analysis", ApiAnalyzeSubscription(store))
	r.PUT("/subscriptions/:id", ApiUpdateSubscription(mgr))
	r.DELETE("/subscriptions/:id", ApiCancelSubscription(mgr))
	r.POST("/subscriptions/:id/pause", ApiPauseSubscription(mgr))
	r.POST("/subscriptions/:id/resume", ApiResumeSubscription(mgr))
	r.POST("/subscriptions/:id/redeem", ApiRedeemPayment(mgr))
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inferpay/escrow/internal/app/service/settlement"
	"github.com/inferpay/escrow/internal/platform/keyring"
	"github.com/inferpay/escrow/pkg/response"
)

func batchLimit(c *gin.Context) int {
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// @Summary      Plan a settlement batch
// @Description  Lists due payments for a provider under one shared validity window, most overdue first
// @Tags         Settlement
// @Produce      json
// @Param        provider  query     string  true   "provider wallet name or hash"
// @Param        limit     query     int     false  "batch size cap"
// @Success      200       {object}  RespSettlementPlan
// @Router       /api/v1/settlement/plan [get]
func ApiPlanSettlement(svc *settlement.Service, kr *keyring.Keyring) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := c.Query("provider")
		if provider == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing provider"))
			return
		}
		plan := svc.Plan(c.Request.Context(), kr.Resolve(provider), batchLimit(c), time.Now().UTC())
		c.JSON(http.StatusOK, response.OKT(plan))
	}
}

// @Summary      Simulate a settlement batch
// @Description  Reports the fee savings of bulk settlement versus individual redemptions
// @Tags         Settlement
// @Produce      json
// @Param        provider  query     string  true   "provider wallet name or hash"
// @Param        limit     query     int     false  "batch size cap"
// @Success      200       {object}  RespSettlementSimulation
// @Router       /api/v1/settlement/simulate [get]
func ApiSimulateSettlement(svc *settlement.Service, kr *keyring.Keyring) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := c.Query("provider")
		if provider == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing provider"))
			return
		}
		plan := svc.Plan(c.Request.Context(), kr.Resolve(provider), batchLimit(c), time.Now().UTC())
		c.JSON(http.StatusOK, response.OKT(svc.Simulate(plan)))
	}
}

// @Summary      Run a settlement batch
// @Description  Atomically redeems all due payments for a provider; stale records are dropped and reported
// @Tags         Settlement
// @Produce      json
// @Param        provider  query     string  true   "provider wallet name or hash"
// @Param        limit     query     int     false  "batch size cap"
// @Success      200       {object}  RespSettlementResult
// @Router       /api/v1/settlement/run [post]
func ApiRunSettlement(svc *settlement.Service, kr *keyring.Keyring) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := c.Query("provider")
		if provider == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing provider"))
			return
		}
		result, err := svc.Settle(c.Request.Context(), kr.Resolve(provider), batchLimit(c))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(result))
	}
}

func RegisterSettlementRoutes(r gin.IRouter, svc *settlement.Service, kr *keyring.Keyring) {
	r.GET("/settlement/plan", ApiPlanSettlement(svc, kr))
	r.GET("/settlement/simulate", ApiSimulateSettlement(svc, kr))
	r.POST("/settlement/run", ApiRunSettlement(svc, kr))
}

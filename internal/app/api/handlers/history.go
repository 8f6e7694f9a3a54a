package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inferpay/escrow/internal/app/service/history"
	"github.com/inferpay/escrow/internal/platform/keyring"
	"github.com/inferpay/escrow/internal/platform/ledger"
	"github.com/inferpay/escrow/pkg/response"
)

// @Summary      Subscription transition trail
// @Description  Returns every persisted state transition of one record, oldest first
// @Tags         History
// @Produce      json
// @Param        id   path      string  true  "record id"
// @Success      200  {object}  RespTransitions
// @Router       /api/v1/subscriptions/{id}/transitions [get]
func ApiTransitions(svc *history.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := svc.Transitions(c.Request.Context(), ledger.RecordID(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(logs))
	}
}

// @Summary      Provider revenue report
// @Description  Daily redeemed revenue over an inclusive UTC date range (default: last 30 days)
// @Tags         History
// @Produce      json
// @Param        provider  query     string  true   "provider wallet name or hash"
// @Param        from      query     string  false  "start date YYYY-MM-DD"
// @Param        to        query     string  false  "end date YYYY-MM-DD"
// @Success      200       {object}  RespRevenueReport
// @Router       /api/v1/revenue [get]
func ApiRevenue(svc *history.Service, kr *keyring.Keyring) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := c.Query("provider")
		if provider == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing provider"))
			return
		}
		to := time.Now().UTC()
		from := to.AddDate(0, 0, -30)
		if v := c.Query("from"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid from date"))
				return
			}
			from = t
		}
		if v := c.Query("to"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid to date"))
				return
			}
			to = t
		}
		report, err := svc.Revenue(c.Request.Context(), kr.Resolve(provider), from, to)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(report))
	}
}

func RegisterHistoryRoutes(r gin.IRouter, svc *history.Service, kr *keyring.Keyring) {
	r.GET("/subscriptions/:id/transitions", ApiTransitions(svc))
	r.GET("/revenue", ApiRevenue(svc, kr))
}

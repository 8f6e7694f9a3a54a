package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inferpay/escrow/internal/app/service/gate"
	"github.com/inferpay/escrow/internal/platform/keyring"
	"github.com/inferpay/escrow/pkg/response"
)

// VerifyTokenRequest carries an access token for offline verification.
type VerifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// @Summary      Gate check
// @Description  Decides whether a provider should serve an owner, issuing a short-lived access token when yes
// @Tags         Gate
// @Produce      json
// @Param        owner     query     string  true  "owner wallet name or hash"
// @Param        provider  query     string  true  "provider wallet name or hash"
// @Success      200       {object}  RespGateDecision
// @Router       /api/v1/gate/check [get]
func ApiGateCheck(g *gate.Gate, kr *keyring.Keyring) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, provider := c.Query("owner"), c.Query("provider")
		if owner == "" || provider == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing owner or provider"))
			return
		}
		decision, err := g.Check(c.Request.Context(), kr.Resolve(owner), kr.Resolve(provider))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(decision))
	}
}

// @Summary      Verify access token
// @Tags         Gate
// @Accept       json
// @Produce      json
// @Param        request  body      VerifyTokenRequest  true  "token"
// @Success      200      {object}  RespGateClaims
// @Router       /api/v1/gate/verify [post]
func ApiGateVerify(g *gate.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		claims, err := g.VerifyToken(req.Token)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(claims))
	}
}

func RegisterGateRoutes(r gin.IRouter, g *gate.Gate, kr *keyring.Keyring) {
	r.GET("/gate/check", ApiGateCheck(g, kr))
	r.POST("/gate/verify", ApiGateVerify(g))
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inferpay/escrow/internal/platform/keyring"
	"github.com/inferpay/escrow/pkg/response"
)

// RegisterWalletRequest names a new wallet.
type RegisterWalletRequest struct {
	Name string `json:"name" binding:"required"`
}

// @Summary      Register wallet
// @Description  Creates a named wallet and returns its party identity; registering an existing name is idempotent
// @Tags         Wallet
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterWalletRequest  true  "wallet name"
// @Success      200      {object}  RespWallet
// @Router       /api/v1/wallets [post]
func ApiRegisterWallet(kr *keyring.Keyring) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterWalletRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		party, err := kr.Register(req.Name)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"name": req.Name, "party": string(party)}))
	}
}

// @Summary      Look up wallet
// @Tags         Wallet
// @Produce      json
// @Param        name  path      string  true  "wallet name"
// @Success      200   {object}  RespWallet
// @Router       /api/v1/wallets/{name} [get]
func ApiLookupWallet(kr *keyring.Keyring) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		party, ok := kr.Lookup(name)
		if !ok {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, "unknown wallet"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"name": name, "party": string(party)}))
	}
}

func RegisterWalletRoutes(r gin.IRouter, kr *keyring.Keyring) {
	r.POST("/wallets", ApiRegisterWallet(kr))
	r.GET("/wallets/:name", ApiLookupWallet(kr))
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servizo/walletd/internal/checkout"
)

func (s *Server) InitiateCheckout(c *gin.Context) {
	var req checkout.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.checkoutSvc.BuildOrderRequest(req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (s *Server) VerifyCheckoutCallback(c *gin.Context) {
	var params checkout.CallbackParams
	if err := c.ShouldBindJSON(&params); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.checkoutSvc.VerifyCallback(params); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

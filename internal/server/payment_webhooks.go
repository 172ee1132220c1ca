package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandlePaymentWebhook ingests a gateway delivery. The raw body bytes are
// handed to the payment service untouched; signature verification depends on
// the exact bytes received. Anything past a valid signature answers 200 so
// the gateway stops retrying.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.paymentSvc.IngestWebhook(c.Request.Context(), payload, c.Request.Header); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

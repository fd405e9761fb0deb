package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	billingdomain "github.com/adcraftlabs/adcraft/internal/billing/domain"
	"github.com/adcraftlabs/adcraft/internal/plan"
)

type CheckoutRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	url, err := s.billing.CreateCheckoutSession(c.Request.Context(), billingdomain.CheckoutRequest{
		AccountID: accountIDFromContext(c),
		Plan:      plan.Plan(req.Plan),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (s *Server) CreatePortal(c *gin.Context) {
	url, err := s.billing.CreatePortalSession(c.Request.Context(), accountIDFromContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// HandleStripeWebhook receives provider deliveries. Redelivered events
// are acknowledged so the provider stops retrying.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err = s.billing.HandleWebhook(c.Request.Context(), payload, c.Request.Header)
	if err != nil && !errors.Is(err, billingdomain.ErrEventAlreadyProcessed) {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

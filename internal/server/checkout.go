package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type createCheckoutRequest struct {
	ItemIDs []int64 `json:"item_ids"`
}

type createCheckoutResponse struct {
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	buyerID := buyerFromContext(c)

	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("item_ids", "invalid_request", "invalid request"))
		return
	}

	// duplicate-purchase prevention lives here, in front of the factory
	for _, itemID := range req.ItemIDs {
		entitled, err := s.ledger.IsEntitled(c.Request.Context(), buyerID, itemID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if entitled {
			AbortWithError(c, fmt.Errorf("%w: item %d", ErrAlreadyPurchased, itemID))
			return
		}
	}

	intent, err := s.checkoutSvc.CreateCheckout(c.Request.Context(), buyerID, req.ItemIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, createCheckoutResponse{
		SessionID:  intent.SessionID,
		SessionURL: intent.SessionURL,
	})
}

package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	purchasedomain "github.com/smallbiznis/vendo/internal/purchase/domain"
	webhookdomain "github.com/smallbiznis/vendo/internal/webhook/domain"
	"go.uber.org/zap"
)

// HandleProviderWebhook ingests payment-provider callbacks. The provider
// retries on any non-2xx, so the ledger write must be confirmed before 200 is
// sent. Malformed-but-authentic events are acknowledged and dropped; retrying
// them can never succeed.
func (s *Server) HandleProviderWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, newValidationError("body", "invalid_request", "unreadable body"))
		return
	}

	event, err := s.authenticator.Authenticate(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, webhookdomain.ErrMalformedEvent) {
			s.log.Warn("dropping malformed webhook event", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		AbortWithError(c, err)
		return
	}

	if !event.Completed() {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	batch, err := s.ledger.RecordManyIfAbsent(c.Request.Context(), event.BuyerID, event.ItemIDs, &event.SessionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !batch.Confirmed() {
		s.log.Error("webhook partially recorded, refusing to acknowledge",
			zap.String("session_id", event.SessionID),
			zap.Int64s("failed_item_ids", batch.Failed),
		)
		AbortWithError(c, purchasedomain.ErrLedgerUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

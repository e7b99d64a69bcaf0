package server

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/vendo/internal/observability/context"
)

const contextBuyerIDKey = "buyer_id"

// AuthRequired verifies the bearer token and stashes the buyer id on the
// request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := s.verifier.FromAuthorization(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextBuyerIDKey, subject.ID)
		ctx := obscontext.WithBuyerID(c.Request.Context(), subject.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CheckoutRateLimit caps session creation per buyer. Must run after
// AuthRequired.
func (s *Server) CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		buyerID := buyerFromContext(c)
		if buyerID == uuid.Nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !s.checkoutLimiter.Allow(c.Request.Context(), buyerID.String()) {
			AbortWithError(c, ErrTooManyCheckouts)
			return
		}
		c.Next()
	}
}

func buyerFromContext(c *gin.Context) uuid.UUID {
	value, ok := c.Get(contextBuyerIDKey)
	if !ok {
		return uuid.Nil
	}
	buyerID, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return buyerID
}

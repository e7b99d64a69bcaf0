package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/vendo/internal/config"
	"go.uber.org/zap"
)

const keyCheckoutBuyer = "checkout:buyer:%s"

// CheckoutLimiter caps session creation per buyer. Checkout mints a real
// provider resource on every call, so runaway clients cost money, not just
// CPU.
type CheckoutLimiter struct {
	enabled bool
	bucket  *TokenBucket
	log     *zap.Logger
	rate    float64
	burst   int
}

func NewCheckoutLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) *CheckoutLimiter {
	if cfg.CheckoutRatePerMinute <= 0 || client == nil {
		return &CheckoutLimiter{enabled: false}
	}
	return &CheckoutLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		log:     log.Named("ratelimit"),
		rate:    float64(cfg.CheckoutRatePerMinute) / float64(time.Minute/time.Second),
		burst:   cfg.CheckoutRatePerMinute,
	}
}

// Allow reports whether the buyer may create another session. Limiter
// outages fail open; checkout availability beats strict limiting.
func (l *CheckoutLimiter) Allow(ctx context.Context, buyerID string) bool {
	if l == nil || !l.enabled {
		return true
	}
	allowed, err := l.bucket.Allow(ctx, fmt.Sprintf(keyCheckoutBuyer, buyerID), l.rate, l.burst)
	if err != nil {
		l.log.Warn("checkout rate limit check failed", zap.Error(err))
		return true
	}
	return allowed
}

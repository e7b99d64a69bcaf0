package providers

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/vendo/internal/config"
	"github.com/smallbiznis/vendo/internal/providers/payment"
	"github.com/smallbiznis/vendo/internal/providers/restclient"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	fx.Provide(func(cfg config.Config) *restclient.Client {
		return restclient.New(cfg.DataAPIURL, cfg.DataAPIServiceKey)
	}),
	fx.Provide(payment.NewClient),
	fx.Provide(newRedisClient),
)

// newRedisClient returns nil when no address is configured; redis-backed
// features degrade individually rather than blocking startup.
func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

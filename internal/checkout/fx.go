package checkout

import (
	"github.com/smallbiznis/vendo/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout",
	fx.Provide(service.NewService),
)

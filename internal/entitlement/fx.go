package entitlement

import (
	"github.com/smallbiznis/vendo/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement",
	fx.Provide(service.NewService),
)

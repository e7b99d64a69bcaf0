package storage

import (
	"github.com/smallbiznis/vendo/internal/storage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("storage",
	fx.Provide(service.NewService),
)

package purchase

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/vendo/internal/purchase/repository"
	"github.com/smallbiznis/vendo/internal/purchase/service"
	"go.uber.org/fx"
)

var Module = fx.Module("purchase",
	fx.Provide(newSnowflakeNode),
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

package main

import (
	"github.com/smallbiznis/vendo/internal/config"
	"github.com/smallbiznis/vendo/internal/migration"
	"github.com/smallbiznis/vendo/internal/observability"
	"github.com/smallbiznis/vendo/internal/server"
	"github.com/smallbiznis/vendo/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

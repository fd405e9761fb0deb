package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/adcraftlabs/adcraft/internal/config"
	"github.com/adcraftlabs/adcraft/internal/logger"
	"github.com/adcraftlabs/adcraft/internal/migration"
	"github.com/adcraftlabs/adcraft/internal/server"
	"github.com/adcraftlabs/adcraft/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

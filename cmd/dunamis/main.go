package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/dunamis-edu/dunamis/internal/clock"
	"github.com/dunamis-edu/dunamis/internal/config"
	"github.com/dunamis-edu/dunamis/internal/migration"
	"github.com/dunamis-edu/dunamis/internal/observability"
	"github.com/dunamis-edu/dunamis/internal/server"
	"github.com/dunamis-edu/dunamis/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
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

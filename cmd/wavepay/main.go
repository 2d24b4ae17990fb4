package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/wavepay/internal/checkout"
	"github.com/smallbiznis/wavepay/internal/clock"
	"github.com/smallbiznis/wavepay/internal/config"
	"github.com/smallbiznis/wavepay/internal/db"
	"github.com/smallbiznis/wavepay/internal/gateway"
	"github.com/smallbiznis/wavepay/internal/journal"
	"github.com/smallbiznis/wavepay/internal/merchant"
	"github.com/smallbiznis/wavepay/internal/observability/logger"
	"github.com/smallbiznis/wavepay/internal/observability/metrics"
	"github.com/smallbiznis/wavepay/internal/observability/tracing"
	"github.com/smallbiznis/wavepay/internal/server"
	"go.uber.org/fx"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		tracing.Module,
		metrics.Module,
		clock.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		journal.Module,
		gateway.Module,
		merchant.Module,
		checkout.Module,
		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

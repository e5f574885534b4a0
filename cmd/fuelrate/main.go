package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/fleetops/fuelrate/internal/analysis"
	"github.com/fleetops/fuelrate/internal/classification"
	"github.com/fleetops/fuelrate/internal/clock"
	"github.com/fleetops/fuelrate/internal/config"
	"github.com/fleetops/fuelrate/internal/ingest"
	"github.com/fleetops/fuelrate/internal/interval"
	"github.com/fleetops/fuelrate/internal/observability"
	"github.com/fleetops/fuelrate/internal/server"
	"github.com/fleetops/fuelrate/internal/summary"
	"github.com/fleetops/fuelrate/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Pipeline stages
		ingest.Module,
		interval.Module,
		classification.Module,
		summary.Module,
		analysis.Module,

		// HTTP surface
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

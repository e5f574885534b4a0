package ingest

import (
	"go.uber.org/fx"

	"github.com/fleetops/fuelrate/internal/ingest/service"
)

var Module = fx.Module("ingest.service",
	fx.Provide(service.NewService),
)

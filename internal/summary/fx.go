package summary

import (
	"go.uber.org/fx"

	"github.com/fleetops/fuelrate/internal/summary/service"
)

var Module = fx.Module("summary.service",
	fx.Provide(service.NewService),
)

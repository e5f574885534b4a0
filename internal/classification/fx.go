package classification

import (
	"go.uber.org/fx"

	"github.com/fleetops/fuelrate/internal/classification/service"
)

var Module = fx.Module("classification.service",
	fx.Provide(service.NewService),
)

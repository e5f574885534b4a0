package interval

import (
	"go.uber.org/fx"

	"github.com/fleetops/fuelrate/internal/interval/service"
)

var Module = fx.Module("interval.service",
	fx.Provide(service.NewService),
)

package analysis

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	analysisdomain "github.com/fleetops/fuelrate/internal/analysis/domain"
	"github.com/fleetops/fuelrate/internal/analysis/repository"
	"github.com/fleetops/fuelrate/internal/analysis/service"
	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
)

var Module = fx.Module("analysis.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
	fx.Invoke(migrate),
)

// migrate creates the session tables; the store is an in-memory SQLite by
// default, so the schema has to be rebuilt on every start.
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&analysisdomain.Analysis{},
		&intervaldomain.ConsumptionInterval{},
		&ingestdomain.WorkEvent{},
	)
}

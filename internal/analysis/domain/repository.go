package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, a *Analysis, intervals []intervaldomain.ConsumptionInterval, work []ingestdomain.WorkEvent) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Analysis, error)
	ListIntervals(ctx context.Context, db *gorm.DB, analysisID snowflake.ID) ([]intervaldomain.ConsumptionInterval, error)
	ListWorkEvents(ctx context.Context, db *gorm.DB, analysisID snowflake.ID) ([]ingestdomain.WorkEvent, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}

package domain

import (
	"bytes"
	"context"

	"github.com/bwmarrin/snowflake"

	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
	summarydomain "github.com/fleetops/fuelrate/internal/summary/domain"
	"github.com/fleetops/fuelrate/pkg/tabular"
)

// RunInput carries the decoded upload tables. Classification is nil when
// the caller supplied none.
type RunInput struct {
	Refuels        *tabular.Table
	WorkHours      *tabular.Table
	Classification *tabular.Table
}

type Service interface {
	// Run executes the full pipeline over the uploaded tables and
	// retains the result under a new analysis id.
	Run(ctx context.Context, in RunInput) (*Analysis, error)

	Get(ctx context.Context, id snowflake.ID) (*Analysis, error)
	Delete(ctx context.Context, id snowflake.ID) error

	Intervals(ctx context.Context, id snowflake.ID, f summarydomain.Filter) ([]intervaldomain.ConsumptionInterval, error)
	// Summary aggregates the filtered intervals monthly; mode overrides
	// the configured aggregation mode when non-empty.
	Summary(ctx context.Context, id snowflake.ID, f summarydomain.Filter, mode string) ([]summarydomain.MonthlySummary, error)
	Report(ctx context.Context, id snowflake.ID) (*summarydomain.FleetReport, error)
	Activities(ctx context.Context, id snowflake.ID, topN int) (summarydomain.ActivityRanking, error)
	Outliers(ctx context.Context, id snowflake.ID) ([]summarydomain.MonthlyOutliers, error)

	ExportIntervals(ctx context.Context, id snowflake.ID, f summarydomain.Filter) (*bytes.Buffer, error)
	ExportSummary(ctx context.Context, id snowflake.ID, f summarydomain.Filter, mode string) (*bytes.Buffer, error)
}

package domain

import (
	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
	"github.com/fleetops/fuelrate/pkg/tabular"
)

type Service interface {
	// Parse reads classification records from a table. Rows whose
	// equipment column is not a purely numeric code are excluded and
	// counted. Baseline values that fail to parse after locale
	// normalization are kept as records with a nil baseline.
	Parse(tbl *tabular.Table) (Load, error)

	// Merge left-joins records onto intervals by equipment. Unmatched
	// intervals get zoneSentinel as their zone; category and baseline
	// stay nil. The input slice is not mutated.
	Merge(intervals []intervaldomain.ConsumptionInterval, records []Record, zoneSentinel string) []intervaldomain.ConsumptionInterval
}

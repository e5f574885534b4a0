package domain

import (
	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
)

type Service interface {
	// Apply filters intervals. An empty result is valid output, never an
	// error; every downstream operation accepts an empty input.
	Apply(intervals []intervaldomain.ConsumptionInterval, f Filter) []intervaldomain.ConsumptionInterval

	// Monthly groups intervals by (equipment, month of interval start)
	// and computes the rate under opts.Mode, the baseline deviation
	// and the alert status. Output is sorted by equipment then month.
	Monthly(intervals []intervaldomain.ConsumptionInterval, opts Options) []MonthlySummary

	// Report builds the latest-month fleet report. Returns nil when the
	// summary is empty.
	Report(summaries []MonthlySummary) *FleetReport

	// Activities attributes interval fuel use to the work events inside
	// each interval and ranks activity labels by mean rate. Events with
	// an empty activity label are skipped.
	Activities(intervals []intervaldomain.ConsumptionInterval, work []ingestdomain.WorkEvent, topN int) ActivityRanking

	// Outliers computes per-month IQR fences (1.5×IQR beyond Q1/Q3)
	// over interval rates and returns the rows outside them.
	Outliers(intervals []intervaldomain.ConsumptionInterval) []MonthlyOutliers
}

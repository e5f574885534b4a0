package domain

import (
	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
)

// Service turns the two normalized event streams into consumption
// intervals. All three operations are pure: they never mutate their
// inputs and always return fresh slices.
type Service interface {
	// AggregateRefuels sums volume per (equipment, date) and returns the
	// result sorted by equipment, then date. Idempotent.
	AggregateRefuels(events []ingestdomain.RefuelEvent) []ingestdomain.RefuelEvent

	// AggregateWork sums duration per (equipment, exact timestamp) and
	// returns the result sorted by equipment, then timestamp. Idempotent.
	AggregateWork(events []ingestdomain.WorkEvent) []ingestdomain.WorkEvent

	// Build walks each equipment's refuel dates in order and emits one
	// interval per consecutive pair; an equipment with N refuel dates
	// yields exactly max(N-1, 0) intervals. Hours are attributed with a
	// strictly-greater-than lower bound and a less-or-equal upper bound,
	// so a work event on a shared boundary belongs to the earlier
	// interval. Inputs must already be aggregated.
	Build(refuels []ingestdomain.RefuelEvent, work []ingestdomain.WorkEvent) BuildResult
}

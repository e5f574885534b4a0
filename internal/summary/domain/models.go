// Package domain defines the monthly aggregation outputs: summaries,
// fleet report, activity rankings and outlier detection.
package domain

import (
	"time"

	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
)

// Status classifies a monthly summary row against its baseline.
const (
	StatusAlert   = "alert"
	StatusNominal = "nominal"
)

// Filter narrows intervals before aggregation. An interval passes the date
// bounds only when it lies entirely inside them: From <= IntervalStart and
// IntervalEnd <= To, both inclusive. Zones and categories are
// set-membership. The zero Filter selects everything.
type Filter struct {
	From       *time.Time
	To         *time.Time
	Zones      []string
	Categories []string
}

// Options selects the monthly aggregation variant.
type Options struct {
	// Mode is config.ModeWeighted (sum volume / sum hours) or
	// config.ModeUnweighted (mean of per-interval rates).
	Mode string
	// AlertThresholdPct flags |percent deviation| strictly above it.
	AlertThresholdPct float64
}

// MonthlySummary is one (equipment, month) aggregation row.
type MonthlySummary struct {
	EquipmentID int64     `json:"equipment_id"`
	Month       time.Time `json:"month"`
	Year        int       `json:"year"`

	// Rate is the monthly consumption rate under the selected mode.
	Rate float64 `json:"rate"`
	// StdDevRate is the sample standard deviation of interval rates,
	// only in unweighted mode and only with at least two samples.
	StdDevRate     *float64 `json:"stddev_rate,omitempty"`
	SampleCount    int      `json:"sample_count"`
	HoursWorked    float64  `json:"hours_worked"`
	VolumeConsumed float64  `json:"volume_consumed"`

	BaselineRate     *float64 `json:"baseline_rate,omitempty"`
	PercentDeviation *float64 `json:"percent_deviation,omitempty"`
	// Status is "alert" or "nominal" when a baseline is present, empty
	// otherwise.
	Status string `json:"status,omitempty"`
}

// FleetReport lists, for the latest month in a summary, which equipment
// deviates beyond the alert threshold and which stays nominal. Rows
// without a baseline cannot be classified and are only counted.
type FleetReport struct {
	Month        time.Time        `json:"month"`
	Alerts       []MonthlySummary `json:"alerts"`
	Nominal      []MonthlySummary `json:"nominal"`
	Unclassified int              `json:"unclassified"`
}

// ActivityStat aggregates fuel use across all work events sharing one
// activity label.
type ActivityStat struct {
	Activity       string  `json:"activity"`
	HoursWorked    float64 `json:"hours_worked"`
	VolumeConsumed float64 `json:"volume_consumed"`
	// MeanRate is VolumeConsumed / HoursWorked, zero-guarded.
	MeanRate   float64 `json:"mean_rate"`
	EventCount int     `json:"event_count"`
}

// ActivityRanking carries the top-N activities by mean rate, from both
// ends.
type ActivityRanking struct {
	MostConsuming []ActivityStat `json:"most_consuming"`
	MostEfficient []ActivityStat `json:"most_efficient"`
}

// MonthlyOutliers holds the IQR fences for one month and the interval
// rows whose rate falls outside them.
type MonthlyOutliers struct {
	Month      time.Time                            `json:"month"`
	Q1         float64                              `json:"q1"`
	Q3         float64                              `json:"q3"`
	LowerFence float64                              `json:"lower_fence"`
	UpperFence float64                              `json:"upper_fence"`
	Outliers   []intervaldomain.ConsumptionInterval `json:"outliers"`
}

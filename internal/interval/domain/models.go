// Package domain contains the consumption interval, the unit of rate
// computation derived from consecutive refuels.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ConsumptionInterval is the span between two consecutive refuels of one
// equipment unit. The volume recorded at the interval start is presumed
// consumed over the hours worked inside (start, end].
//
// Zone, Category and BaselineRate are populated by the classification
// merge and stay nil when no classification table was supplied (Zone then
// carries the configured sentinel only for merged analyses).
type ConsumptionInterval struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	AnalysisID     snowflake.ID `gorm:"not null;index" json:"-"`
	EquipmentID    int64        `gorm:"not null;index" json:"equipment_id"`
	IntervalStart  time.Time    `gorm:"not null" json:"interval_start"`
	IntervalEnd    time.Time    `gorm:"not null" json:"interval_end"`
	HoursWorked    float64      `gorm:"not null" json:"hours_worked"`
	VolumeConsumed float64      `gorm:"not null" json:"volume_consumed"`
	// Rate is VolumeConsumed per hour worked; zero when no hours fell in
	// the interval. Zero is a defined business value, not an error.
	Rate float64 `gorm:"not null" json:"rate"`

	Zone         *string  `gorm:"type:text" json:"zone,omitempty"`
	Category     *string  `gorm:"type:text" json:"category,omitempty"`
	BaselineRate *float64 `json:"historical_baseline_rate,omitempty"`
}

// TableName sets the database table name.
func (ConsumptionInterval) TableName() string { return "consumption_intervals" }

// Month returns the interval's reporting month (first of month, UTC),
// derived from the interval start.
func (ci ConsumptionInterval) Month() time.Time {
	return time.Date(ci.IntervalStart.Year(), ci.IntervalStart.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// BuildResult carries the intervals plus the data the build had to drop,
// so callers can surface it instead of losing it silently.
type BuildResult struct {
	Intervals []ConsumptionInterval
	// OrphanEquipment lists equipment present in the work log but absent
	// from the refuel log; their hours cannot be attributed anywhere.
	OrphanEquipment []int64
	// UnattributedWorkEvents counts work events falling outside every
	// interval, including all events of orphan equipment.
	UnattributedWorkEvents int
}

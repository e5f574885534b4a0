// Package domain contains the normalized input events and the strict
// parsing contract for the spreadsheet uploads.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Input date layouts are fixed by the upstream export tooling. Any cell
// that fails these layouts fails the whole load.
const (
	RefuelDateLayout    = "02/01/2006"
	WorkTimestampLayout = "02/01/2006 03:04 PM"
)

var (
	ErrInvalidDateFormat = errors.New("invalid_date_format")
	ErrInvalidNumber     = errors.New("invalid_number")
)

// RefuelEvent is one fuel-volume addition for one equipment unit on one
// calendar date. Multiple refuels per day survive normalization and are
// collapsed later by the aggregator.
type RefuelEvent struct {
	EquipmentID int64     `json:"equipment_id"`
	Date        time.Time `json:"date"`
	Volume      float64   `json:"volume"`
}

// WorkEvent is one operating-hours record. It is retained per analysis
// session so activity rankings can be recomputed under new filters.
type WorkEvent struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	AnalysisID    snowflake.ID `gorm:"not null;index" json:"-"`
	EquipmentID   int64        `gorm:"not null;index" json:"equipment_id"`
	Timestamp     time.Time    `gorm:"not null" json:"timestamp"`
	DurationHours float64      `gorm:"not null" json:"duration_hours"`
	ActivityName  string       `gorm:"type:text" json:"activity_name,omitempty"`
}

// TableName sets the database table name.
func (WorkEvent) TableName() string { return "work_events" }

// RefuelLoad is the outcome of normalizing the refuel table.
type RefuelLoad struct {
	Events []RefuelEvent
	// RowsRead counts data rows seen, ExcludedRows those dropped by the
	// digit-only equipment id policy.
	RowsRead     int
	ExcludedRows int
}

// WorkLoad is the outcome of normalizing the work-hours table.
type WorkLoad struct {
	Events       []WorkEvent
	RowsRead     int
	ExcludedRows int
}

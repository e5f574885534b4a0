// Package domain defines the analysis session: one pipeline run over an
// uploaded set of spreadsheets, retained for follow-up queries.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrAnalysisNotFound = errors.New("analysis_not_found")
	ErrMissingRefuels   = errors.New("missing_refuels_table")
	ErrMissingWorkHours = errors.New("missing_work_hours_table")
)

// Analysis is the stored outcome of one pipeline run, with the ingest
// diagnostics the run produced.
type Analysis struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time    `gorm:"not null" json:"created_at"`
	HasClassification bool         `gorm:"not null" json:"has_classification"`

	IntervalCount int `gorm:"not null" json:"interval_count"`

	RefuelRowsRead             int `gorm:"not null" json:"refuel_rows_read"`
	RefuelRowsExcluded         int `gorm:"not null" json:"refuel_rows_excluded"`
	WorkRowsRead               int `gorm:"not null" json:"work_rows_read"`
	WorkRowsExcluded           int `gorm:"not null" json:"work_rows_excluded"`
	ClassificationRowsRead     int `gorm:"not null" json:"classification_rows_read"`
	ClassificationRowsExcluded int `gorm:"not null" json:"classification_rows_excluded"`

	// OrphanEquipmentCount is equipment seen in the work log but never
	// in the refuel log; UnattributedWorkEvents counts work rows whose
	// hours landed in no interval. Neither is an error, both are data
	// the caller should know got dropped.
	OrphanEquipmentCount   int `gorm:"not null" json:"orphan_equipment_count"`
	UnattributedWorkEvents int `gorm:"not null" json:"unattributed_work_events"`
}

// TableName sets the database table name.
func (Analysis) TableName() string { return "analyses" }

package domain

// Record classifies one equipment unit. BaselineRate is nil when the
// source table has no baseline column or the value could not be parsed.
type Record struct {
	EquipmentID  int64    `json:"equipment_id"`
	Zone         string   `json:"zone"`
	Category     string   `json:"category"`
	BaselineRate *float64 `json:"baseline_rate,omitempty"`
}

// Load is the outcome of parsing a classification table.
type Load struct {
	Records      []Record
	RowsRead     int
	ExcludedRows int
}

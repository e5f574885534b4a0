// Package export flattens analysis results into tables for spreadsheet
// download. Classification-derived columns appear only when the analysis
// was run with a classification table.
package export

import (
	"strconv"

	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
	summarydomain "github.com/fleetops/fuelrate/internal/summary/domain"
	"github.com/fleetops/fuelrate/pkg/tabular"
)

const dateLayout = "02/01/2006"

// IntervalsTable flattens consumption intervals for download.
func IntervalsTable(intervals []intervaldomain.ConsumptionInterval, withClassification bool) *tabular.Table {
	headers := []string{
		"equipment_id", "interval_start", "interval_end",
		"hours_worked", "volume_consumed", "rate",
	}
	if withClassification {
		headers = append(headers, "zone", "category", "historical_baseline_rate")
	}

	rows := make([][]string, 0, len(intervals))
	for _, iv := range intervals {
		row := []string{
			strconv.FormatInt(iv.EquipmentID, 10),
			iv.IntervalStart.Format(dateLayout),
			iv.IntervalEnd.Format(dateLayout),
			formatFloat(iv.HoursWorked),
			formatFloat(iv.VolumeConsumed),
			formatFloat(iv.Rate),
		}
		if withClassification {
			row = append(row,
				strDeref(iv.Zone),
				strDeref(iv.Category),
				floatDeref(iv.BaselineRate),
			)
		}
		rows = append(rows, row)
	}
	return tabular.NewTable(headers, rows)
}

// SummaryTable flattens monthly summary rows for download.
func SummaryTable(summaries []summarydomain.MonthlySummary, withClassification bool) *tabular.Table {
	headers := []string{
		"equipment_id", "month", "year", "rate", "stddev_rate",
		"sample_count", "hours_worked", "volume_consumed",
	}
	if withClassification {
		headers = append(headers, "baseline_rate", "percent_deviation", "status")
	}

	rows := make([][]string, 0, len(summaries))
	for _, row := range summaries {
		cells := []string{
			strconv.FormatInt(row.EquipmentID, 10),
			row.Month.Format("01/2006"),
			strconv.Itoa(row.Year),
			formatFloat(row.Rate),
			floatDeref(row.StdDevRate),
			strconv.Itoa(row.SampleCount),
			formatFloat(row.HoursWorked),
			formatFloat(row.VolumeConsumed),
		}
		if withClassification {
			cells = append(cells,
				floatDeref(row.BaselineRate),
				floatDeref(row.PercentDeviation),
				row.Status,
			)
		}
		rows = append(rows, cells)
	}
	return tabular.NewTable(headers, rows)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatDeref(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

package service

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
	"github.com/fleetops/fuelrate/pkg/tabular"
)

// Equipment identifiers must be plain decimal integers; anything else is
// an out-of-scope equipment code.
var numericID = regexp.MustCompile(`^\d+$`)

type ServiceParam struct {
	fx.In

	Log *zap.Logger
}

type Service struct {
	log *zap.Logger
}

func NewService(p ServiceParam) ingestdomain.Service {
	return &Service{
		log: p.Log.Named("ingest.service"),
	}
}

func (s *Service) LoadRefuels(tbl *tabular.Table) (ingestdomain.RefuelLoad, error) {
	load := ingestdomain.RefuelLoad{}

	idCol, err := tbl.Column("equipment_id")
	if err != nil {
		return load, err
	}
	dateCol, err := tbl.Column("date")
	if err != nil {
		return load, err
	}
	volumeCol, err := tbl.Column("volume")
	if err != nil {
		return load, err
	}

	for i, row := range tbl.Rows {
		load.RowsRead++

		id, ok := parseEquipmentID(tbl.Cell(row, idCol))
		if !ok {
			load.ExcludedRows++
			continue
		}

		date, err := parseDate(tbl.Cell(row, dateCol), ingestdomain.RefuelDateLayout, i)
		if err != nil {
			return ingestdomain.RefuelLoad{}, err
		}
		volume, err := parseNonNegative(tbl.Cell(row, volumeCol), "volume", i)
		if err != nil {
			return ingestdomain.RefuelLoad{}, err
		}

		load.Events = append(load.Events, ingestdomain.RefuelEvent{
			EquipmentID: id,
			Date:        date,
			Volume:      volume,
		})
	}

	if load.ExcludedRows > 0 {
		s.log.Info("excluded refuel rows with non-numeric equipment ids",
			zap.Int("excluded", load.ExcludedRows),
			zap.Int("rows_read", load.RowsRead),
		)
	}
	return load, nil
}

func (s *Service) LoadWorkHours(tbl *tabular.Table) (ingestdomain.WorkLoad, error) {
	load := ingestdomain.WorkLoad{}

	idCol, err := tbl.Column("equipment_id")
	if err != nil {
		return load, err
	}
	tsCol, err := tbl.Column("timestamp")
	if err != nil {
		return load, err
	}
	durationCol, err := tbl.Column("duration_hours")
	if err != nil {
		return load, err
	}
	// Optional; missing column means no activity rankings.
	activityCol, activityErr := tbl.Column("activity_name")

	for i, row := range tbl.Rows {
		load.RowsRead++

		id, ok := parseEquipmentID(tbl.Cell(row, idCol))
		if !ok {
			load.ExcludedRows++
			continue
		}

		ts, err := parseDate(tbl.Cell(row, tsCol), ingestdomain.WorkTimestampLayout, i)
		if err != nil {
			return ingestdomain.WorkLoad{}, err
		}
		duration, err := parseNonNegative(tbl.Cell(row, durationCol), "duration_hours", i)
		if err != nil {
			return ingestdomain.WorkLoad{}, err
		}

		event := ingestdomain.WorkEvent{
			EquipmentID:   id,
			Timestamp:     ts,
			DurationHours: duration,
		}
		if activityErr == nil {
			event.ActivityName = tbl.Cell(row, activityCol)
		}
		load.Events = append(load.Events, event)
	}

	if load.ExcludedRows > 0 {
		s.log.Info("excluded work rows with non-numeric equipment ids",
			zap.Int("excluded", load.ExcludedRows),
			zap.Int("rows_read", load.RowsRead),
		)
	}
	return load, nil
}

func parseEquipmentID(raw string) (int64, bool) {
	if !numericID.MatchString(raw) {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseDate(raw, layout string, rowIdx int) (time.Time, error) {
	ts, err := time.ParseInLocation(layout, raw, time.UTC)
	if err != nil {
		// Row numbers are 1-based and account for the header.
		return time.Time{}, fmt.Errorf("%w: row %d value %q does not match %s",
			ingestdomain.ErrInvalidDateFormat, rowIdx+2, raw, layout)
	}
	return ts, nil
}

func parseNonNegative(raw, field string, rowIdx int) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: row %d field %s value %q",
			ingestdomain.ErrInvalidNumber, rowIdx+2, field, raw)
	}
	return v, nil
}

package service

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	classdomain "github.com/fleetops/fuelrate/internal/classification/domain"
	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
	"github.com/fleetops/fuelrate/pkg/tabular"
)

var numericID = regexp.MustCompile(`^\d+$`)

type ServiceParam struct {
	fx.In

	Log *zap.Logger
}

type Service struct {
	log *zap.Logger
}

func NewService(p ServiceParam) classdomain.Service {
	return &Service{
		log: p.Log.Named("classification.service"),
	}
}

func (s *Service) Parse(tbl *tabular.Table) (classdomain.Load, error) {
	load := classdomain.Load{}

	idCol, err := tbl.Column("equipment_id", "equipo3", "equipo")
	if err != nil {
		return load, err
	}
	zoneCol, err := tbl.Column("zone", "zona")
	if err != nil {
		return load, err
	}
	categoryCol, err := tbl.Column("category", "categoria")
	if err != nil {
		return load, err
	}
	// The baseline column is optional system-wide.
	baselineCol, baselineErr := tbl.Column("historical_baseline_rate", "baseline_rate", "x̅ historica")

	unparsableBaselines := 0
	for _, row := range tbl.Rows {
		load.RowsRead++

		raw := tbl.Cell(row, idCol)
		if !numericID.MatchString(raw) {
			load.ExcludedRows++
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			load.ExcludedRows++
			continue
		}

		rec := classdomain.Record{
			EquipmentID: id,
			Zone:        tbl.Cell(row, zoneCol),
			Category:    tbl.Cell(row, categoryCol),
		}
		if baselineErr == nil {
			if v, ok := parseBaseline(tbl.Cell(row, baselineCol)); ok {
				rec.BaselineRate = &v
			} else {
				unparsableBaselines++
			}
		}
		load.Records = append(load.Records, rec)
	}

	if load.ExcludedRows > 0 || unparsableBaselines > 0 {
		s.log.Info("classification rows with gaps",
			zap.Int("excluded", load.ExcludedRows),
			zap.Int("unparsable_baselines", unparsableBaselines),
			zap.Int("rows_read", load.RowsRead),
		)
	}
	return load, nil
}

func (s *Service) Merge(intervals []intervaldomain.ConsumptionInterval, records []classdomain.Record, zoneSentinel string) []intervaldomain.ConsumptionInterval {
	byEquipment := make(map[int64]classdomain.Record, len(records))
	for _, r := range records {
		// Duplicate classification rows keep the first occurrence.
		if _, ok := byEquipment[r.EquipmentID]; !ok {
			byEquipment[r.EquipmentID] = r
		}
	}

	out := make([]intervaldomain.ConsumptionInterval, len(intervals))
	for i, iv := range intervals {
		merged := iv
		if rec, ok := byEquipment[iv.EquipmentID]; ok {
			zone := rec.Zone
			if zone == "" {
				zone = zoneSentinel
			}
			merged.Zone = &zone
			if rec.Category != "" {
				category := rec.Category
				merged.Category = &category
			}
			if rec.BaselineRate != nil {
				baseline := *rec.BaselineRate
				merged.BaselineRate = &baseline
			}
		} else {
			zone := zoneSentinel
			merged.Zone = &zone
		}
		out[i] = merged
	}
	return out
}

// parseBaseline normalizes locale-formatted numbers ("2,5" and "1 234,5")
// before parsing. A value that still fails becomes absent, never an error.
func parseBaseline(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

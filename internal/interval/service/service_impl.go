package service

import (
	"sort"

	"go.uber.org/fx"
	"go.uber.org/zap"

	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
)

type ServiceParam struct {
	fx.In

	Log *zap.Logger
}

type Service struct {
	log *zap.Logger
}

func NewService(p ServiceParam) intervaldomain.Service {
	return &Service{
		log: p.Log.Named("interval.service"),
	}
}

func (s *Service) AggregateRefuels(events []ingestdomain.RefuelEvent) []ingestdomain.RefuelEvent {
	type key struct {
		equipment int64
		date      int64
	}
	totals := make(map[key]float64, len(events))
	for _, e := range events {
		totals[key{e.EquipmentID, e.Date.Unix()}] += e.Volume
	}

	out := make([]ingestdomain.RefuelEvent, 0, len(totals))
	seen := make(map[key]bool, len(totals))
	for _, e := range events {
		k := key{e.EquipmentID, e.Date.Unix()}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, ingestdomain.RefuelEvent{
			EquipmentID: e.EquipmentID,
			Date:        e.Date,
			Volume:      totals[k],
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EquipmentID != out[j].EquipmentID {
			return out[i].EquipmentID < out[j].EquipmentID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (s *Service) AggregateWork(events []ingestdomain.WorkEvent) []ingestdomain.WorkEvent {
	type key struct {
		equipment int64
		ts        int64
	}
	totals := make(map[key]float64, len(events))
	for _, e := range events {
		totals[key{e.EquipmentID, e.Timestamp.Unix()}] += e.DurationHours
	}

	out := make([]ingestdomain.WorkEvent, 0, len(totals))
	seen := make(map[key]bool, len(totals))
	for _, e := range events {
		k := key{e.EquipmentID, e.Timestamp.Unix()}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, ingestdomain.WorkEvent{
			EquipmentID:   e.EquipmentID,
			Timestamp:     e.Timestamp,
			DurationHours: totals[k],
			ActivityName:  e.ActivityName,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EquipmentID != out[j].EquipmentID {
			return out[i].EquipmentID < out[j].EquipmentID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (s *Service) Build(refuels []ingestdomain.RefuelEvent, work []ingestdomain.WorkEvent) intervaldomain.BuildResult {
	refuelsByEquipment := make(map[int64][]ingestdomain.RefuelEvent)
	for _, r := range refuels {
		refuelsByEquipment[r.EquipmentID] = append(refuelsByEquipment[r.EquipmentID], r)
	}
	workByEquipment := make(map[int64][]ingestdomain.WorkEvent)
	for _, w := range work {
		workByEquipment[w.EquipmentID] = append(workByEquipment[w.EquipmentID], w)
	}

	result := intervaldomain.BuildResult{}

	equipmentIDs := make([]int64, 0, len(refuelsByEquipment))
	for id := range refuelsByEquipment {
		equipmentIDs = append(equipmentIDs, id)
	}
	sort.Slice(equipmentIDs, func(i, j int) bool { return equipmentIDs[i] < equipmentIDs[j] })

	for _, id := range equipmentIDs {
		series := refuelsByEquipment[id]
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

		events := workByEquipment[id]
		attributed := 0

		for i := 0; i+1 < len(series); i++ {
			start := series[i].Date
			end := series[i+1].Date
			volume := series[i].Volume

			hours := 0.0
			for _, e := range events {
				if e.Timestamp.After(start) && !e.Timestamp.After(end) {
					hours += e.DurationHours
					attributed++
				}
			}

			rate := 0.0
			if hours > 0 {
				rate = volume / hours
			}

			result.Intervals = append(result.Intervals, intervaldomain.ConsumptionInterval{
				EquipmentID:    id,
				IntervalStart:  start,
				IntervalEnd:    end,
				HoursWorked:    hours,
				VolumeConsumed: volume,
				Rate:           rate,
			})
		}

		result.UnattributedWorkEvents += len(events) - attributed
	}

	// Equipment that only ever worked but never refueled has no interval
	// to carry its hours; surface it rather than dropping it silently.
	orphanIDs := make([]int64, 0)
	for id, events := range workByEquipment {
		if _, ok := refuelsByEquipment[id]; !ok {
			orphanIDs = append(orphanIDs, id)
			result.UnattributedWorkEvents += len(events)
		}
	}
	sort.Slice(orphanIDs, func(i, j int) bool { return orphanIDs[i] < orphanIDs[j] })
	result.OrphanEquipment = orphanIDs

	if len(orphanIDs) > 0 {
		s.log.Warn("work hours reported for equipment without refuel records",
			zap.Int("equipment_count", len(orphanIDs)),
		)
	}
	return result
}

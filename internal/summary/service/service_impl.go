package service

import (
	"math"
	"sort"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fleetops/fuelrate/internal/config"
	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
	summarydomain "github.com/fleetops/fuelrate/internal/summary/domain"
)

type ServiceParam struct {
	fx.In

	Log *zap.Logger
}

type Service struct {
	log *zap.Logger
}

func NewService(p ServiceParam) summarydomain.Service {
	return &Service{
		log: p.Log.Named("summary.service"),
	}
}

func (s *Service) Apply(intervals []intervaldomain.ConsumptionInterval, f summarydomain.Filter) []intervaldomain.ConsumptionInterval {
	zones := toSet(f.Zones)
	categories := toSet(f.Categories)

	out := make([]intervaldomain.ConsumptionInterval, 0, len(intervals))
	for _, iv := range intervals {
		if f.From != nil && iv.IntervalStart.Before(*f.From) {
			continue
		}
		if f.To != nil && iv.IntervalEnd.After(*f.To) {
			continue
		}
		if len(zones) > 0 && (iv.Zone == nil || !zones[*iv.Zone]) {
			continue
		}
		if len(categories) > 0 && (iv.Category == nil || !categories[*iv.Category]) {
			continue
		}
		out = append(out, iv)
	}
	return out
}

func (s *Service) Monthly(intervals []intervaldomain.ConsumptionInterval, opts summarydomain.Options) []summarydomain.MonthlySummary {
	type key struct {
		equipment int64
		month     int64
	}
	groups := make(map[key][]intervaldomain.ConsumptionInterval)
	for _, iv := range intervals {
		k := key{iv.EquipmentID, iv.Month().Unix()}
		groups[k] = append(groups[k], iv)
	}

	out := make([]summarydomain.MonthlySummary, 0, len(groups))
	for _, group := range groups {
		month := group[0].Month()
		row := summarydomain.MonthlySummary{
			EquipmentID: group[0].EquipmentID,
			Month:       month,
			Year:        month.Year(),
			SampleCount: len(group),
		}

		rates := make([]float64, 0, len(group))
		for _, iv := range group {
			row.HoursWorked += iv.HoursWorked
			row.VolumeConsumed += iv.VolumeConsumed
			rates = append(rates, iv.Rate)
			// Baseline is constant per equipment; take the first one seen.
			if row.BaselineRate == nil && iv.BaselineRate != nil {
				baseline := *iv.BaselineRate
				row.BaselineRate = &baseline
			}
		}

		switch opts.Mode {
		case config.ModeUnweighted:
			row.Rate = mean(rates)
			if sd, ok := sampleStdDev(rates); ok {
				row.StdDevRate = &sd
			}
		default:
			if row.HoursWorked > 0 {
				row.Rate = row.VolumeConsumed / row.HoursWorked
			}
		}

		if row.BaselineRate != nil && *row.BaselineRate != 0 {
			dev := 100 * (row.Rate - *row.BaselineRate) / *row.BaselineRate
			row.PercentDeviation = &dev
			if math.Abs(dev) > opts.AlertThresholdPct {
				row.Status = summarydomain.StatusAlert
			} else {
				row.Status = summarydomain.StatusNominal
			}
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EquipmentID != out[j].EquipmentID {
			return out[i].EquipmentID < out[j].EquipmentID
		}
		return out[i].Month.Before(out[j].Month)
	})
	return out
}

func (s *Service) Report(summaries []summarydomain.MonthlySummary) *summarydomain.FleetReport {
	if len(summaries) == 0 {
		return nil
	}

	latest := summaries[0].Month
	for _, row := range summaries[1:] {
		if row.Month.After(latest) {
			latest = row.Month
		}
	}

	report := &summarydomain.FleetReport{Month: latest}
	for _, row := range summaries {
		if !row.Month.Equal(latest) {
			continue
		}
		switch row.Status {
		case summarydomain.StatusAlert:
			report.Alerts = append(report.Alerts, row)
		case summarydomain.StatusNominal:
			report.Nominal = append(report.Nominal, row)
		default:
			report.Unclassified++
		}
	}

	// Worst deviations first.
	sort.Slice(report.Alerts, func(i, j int) bool {
		return math.Abs(*report.Alerts[i].PercentDeviation) > math.Abs(*report.Alerts[j].PercentDeviation)
	})
	return report
}

func (s *Service) Activities(intervals []intervaldomain.ConsumptionInterval, work []ingestdomain.WorkEvent, topN int) summarydomain.ActivityRanking {
	intervalsByEquipment := make(map[int64][]intervaldomain.ConsumptionInterval)
	for _, iv := range intervals {
		intervalsByEquipment[iv.EquipmentID] = append(intervalsByEquipment[iv.EquipmentID], iv)
	}

	stats := make(map[string]*summarydomain.ActivityStat)
	for _, e := range work {
		if e.ActivityName == "" {
			continue
		}
		iv, ok := containingInterval(intervalsByEquipment[e.EquipmentID], e.Timestamp)
		if !ok {
			continue
		}
		st := stats[e.ActivityName]
		if st == nil {
			st = &summarydomain.ActivityStat{Activity: e.ActivityName}
			stats[e.ActivityName] = st
		}
		st.HoursWorked += e.DurationHours
		st.VolumeConsumed += iv.Rate * e.DurationHours
		st.EventCount++
	}

	ranked := make([]summarydomain.ActivityStat, 0, len(stats))
	for _, st := range stats {
		if st.HoursWorked > 0 {
			st.MeanRate = st.VolumeConsumed / st.HoursWorked
		}
		ranked = append(ranked, *st)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].MeanRate != ranked[j].MeanRate {
			return ranked[i].MeanRate > ranked[j].MeanRate
		}
		return ranked[i].Activity < ranked[j].Activity
	})

	ranking := summarydomain.ActivityRanking{
		MostConsuming: head(ranked, topN),
	}
	reversed := make([]summarydomain.ActivityStat, len(ranked))
	for i, st := range ranked {
		reversed[len(ranked)-1-i] = st
	}
	ranking.MostEfficient = head(reversed, topN)
	return ranking
}

func (s *Service) Outliers(intervals []intervaldomain.ConsumptionInterval) []summarydomain.MonthlyOutliers {
	byMonth := make(map[int64][]intervaldomain.ConsumptionInterval)
	for _, iv := range intervals {
		byMonth[iv.Month().Unix()] = append(byMonth[iv.Month().Unix()], iv)
	}

	out := make([]summarydomain.MonthlyOutliers, 0, len(byMonth))
	for _, group := range byMonth {
		rates := make([]float64, len(group))
		for i, iv := range group {
			rates[i] = iv.Rate
		}
		sort.Float64s(rates)

		q1 := quantile(rates, 0.25)
		q3 := quantile(rates, 0.75)
		iqr := q3 - q1

		mo := summarydomain.MonthlyOutliers{
			Month:      group[0].Month(),
			Q1:         q1,
			Q3:         q3,
			LowerFence: q1 - 1.5*iqr,
			UpperFence: q3 + 1.5*iqr,
		}
		for _, iv := range group {
			if iv.Rate < mo.LowerFence || iv.Rate > mo.UpperFence {
				mo.Outliers = append(mo.Outliers, iv)
			}
		}
		out = append(out, mo)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// containingInterval finds the interval holding ts under the same
// (start, end] attribution the builder uses.
func containingInterval(intervals []intervaldomain.ConsumptionInterval, ts time.Time) (intervaldomain.ConsumptionInterval, bool) {
	for _, iv := range intervals {
		if ts.After(iv.IntervalStart) && !ts.After(iv.IntervalEnd) {
			return iv, true
		}
	}
	return intervaldomain.ConsumptionInterval{}, false
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func head(stats []summarydomain.ActivityStat, n int) []summarydomain.ActivityStat {
	if n <= 0 || n > len(stats) {
		n = len(stats)
	}
	out := make([]summarydomain.ActivityStat, n)
	copy(out, stats[:n])
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev needs at least two samples; ok is false otherwise.
func sampleStdDev(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1)), true
}

// quantile interpolates linearly between order statistics, the same
// convention spreadsheet tools use. Input must be sorted and non-empty.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleetops/fuelrate/internal/config"
	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
	summarydomain "github.com/fleetops/fuelrate/internal/summary/domain"
)

func newTestService() *Service {
	return NewService(ServiceParam{Log: zap.NewNop()}).(*Service)
}

func date(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

func defaultOptions() summarydomain.Options {
	return summarydomain.Options{Mode: config.ModeWeighted, AlertThresholdPct: 10}
}

func TestApply_DateBoundsInclusive(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), IntervalEnd: date(time.January, 10)},
		{EquipmentID: 101, IntervalStart: date(time.January, 15), IntervalEnd: date(time.January, 20)},
		{EquipmentID: 101, IntervalStart: date(time.January, 25), IntervalEnd: date(time.February, 1)},
	}
	from := date(time.January, 15)
	to := date(time.February, 1)

	out := svc.Apply(intervals, summarydomain.Filter{From: &from, To: &to})
	require.Len(t, out, 2)
	assert.Equal(t, date(time.January, 15), out[0].IntervalStart)
	assert.Equal(t, date(time.February, 1), out[1].IntervalEnd)
}

func TestApply_IntervalEndingPastToIsExcluded(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 10), IntervalEnd: date(time.February, 5)},
	}
	from := date(time.January, 1)
	to := date(time.January, 31)

	out := svc.Apply(intervals, summarydomain.Filter{From: &from, To: &to})
	assert.Empty(t, out)
}

func TestApply_ZoneAndCategoryMembership(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, Zone: strPtr("NORTH PIT"), Category: strPtr("EXCAVATOR")},
		{EquipmentID: 102, Zone: strPtr("SOUTH PIT"), Category: strPtr("HAULER")},
		{EquipmentID: 103},
	}

	out := svc.Apply(intervals, summarydomain.Filter{Zones: []string{"NORTH PIT", "SOUTH PIT"}})
	assert.Len(t, out, 2)

	out = svc.Apply(intervals, summarydomain.Filter{Categories: []string{"HAULER"}})
	require.Len(t, out, 1)
	assert.Equal(t, int64(102), out[0].EquipmentID)
}

func TestApply_EmptyResultIsNotAnError(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), Rate: 2.5},
	}
	from := date(time.June, 1)

	filtered := svc.Apply(intervals, summarydomain.Filter{From: &from})
	assert.Empty(t, filtered)

	// Downstream stages accept the empty set.
	assert.Empty(t, svc.Monthly(filtered, defaultOptions()))
	assert.Nil(t, svc.Report(nil))
	assert.Empty(t, svc.Outliers(filtered))
}

func TestMonthly_WeightedRate(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), HoursWorked: 10, VolumeConsumed: 30, Rate: 3},
		{EquipmentID: 101, IntervalStart: date(time.January, 15), HoursWorked: 30, VolumeConsumed: 30, Rate: 1},
	}

	out := svc.Monthly(intervals, defaultOptions())
	require.Len(t, out, 1)
	// 60 gal over 40 h, not the mean of 3 and 1.
	assert.InDelta(t, 1.5, out[0].Rate, 1e-9)
	assert.Equal(t, 2, out[0].SampleCount)
	assert.Equal(t, 40.0, out[0].HoursWorked)
	assert.Equal(t, 2024, out[0].Year)
	assert.Nil(t, out[0].StdDevRate)
}

func TestMonthly_UnweightedRateWithStdDev(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), HoursWorked: 10, VolumeConsumed: 30, Rate: 3},
		{EquipmentID: 101, IntervalStart: date(time.January, 15), HoursWorked: 30, VolumeConsumed: 30, Rate: 1},
	}

	out := svc.Monthly(intervals, summarydomain.Options{Mode: config.ModeUnweighted, AlertThresholdPct: 10})
	require.Len(t, out, 1)
	assert.InDelta(t, 2.0, out[0].Rate, 1e-9)
	require.NotNil(t, out[0].StdDevRate)
	assert.InDelta(t, 1.4142135, *out[0].StdDevRate, 1e-6)
}

func TestMonthly_StdDevNeedsTwoSamples(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), HoursWorked: 10, VolumeConsumed: 25, Rate: 2.5},
	}

	out := svc.Monthly(intervals, summarydomain.Options{Mode: config.ModeUnweighted, AlertThresholdPct: 10})
	require.Len(t, out, 1)
	assert.Nil(t, out[0].StdDevRate)
}

func TestMonthly_BaselineDeviationAndAlert(t *testing.T) {
	svc := newTestService()

	// Rate 2.5 against baseline 2.0 deviates +25%, past the 10% threshold.
	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), HoursWorked: 20, VolumeConsumed: 50, Rate: 2.5, BaselineRate: f64Ptr(2.0)},
	}

	out := svc.Monthly(intervals, defaultOptions())
	require.Len(t, out, 1)
	require.NotNil(t, out[0].PercentDeviation)
	assert.InDelta(t, 25.0, *out[0].PercentDeviation, 1e-9)
	assert.Equal(t, summarydomain.StatusAlert, out[0].Status)
}

func TestMonthly_NominalWithinThreshold(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), HoursWorked: 10, VolumeConsumed: 21, Rate: 2.1, BaselineRate: f64Ptr(2.0)},
	}

	out := svc.Monthly(intervals, defaultOptions())
	require.Len(t, out, 1)
	assert.Equal(t, summarydomain.StatusNominal, out[0].Status)
}

func TestMonthly_NoBaselineNoStatus(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), HoursWorked: 10, VolumeConsumed: 25, Rate: 2.5},
	}

	out := svc.Monthly(intervals, defaultOptions())
	require.Len(t, out, 1)
	assert.Nil(t, out[0].PercentDeviation)
	assert.Empty(t, out[0].Status)
}

func TestMonthly_GroupsByEquipmentAndMonth(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 5), HoursWorked: 10, VolumeConsumed: 20, Rate: 2},
		{EquipmentID: 101, IntervalStart: date(time.February, 5), HoursWorked: 10, VolumeConsumed: 30, Rate: 3},
		{EquipmentID: 202, IntervalStart: date(time.January, 5), HoursWorked: 10, VolumeConsumed: 10, Rate: 1},
	}

	out := svc.Monthly(intervals, defaultOptions())
	require.Len(t, out, 3)
	assert.Equal(t, int64(101), out[0].EquipmentID)
	assert.Equal(t, time.January, out[0].Month.Month())
	assert.Equal(t, time.February, out[1].Month.Month())
	assert.Equal(t, int64(202), out[2].EquipmentID)
}

func TestReport_LatestMonthSplit(t *testing.T) {
	svc := newTestService()

	summaries := []summarydomain.MonthlySummary{
		{EquipmentID: 101, Month: date(time.January, 1), Status: summarydomain.StatusAlert, PercentDeviation: f64Ptr(30)},
		{EquipmentID: 101, Month: date(time.February, 1), Status: summarydomain.StatusAlert, PercentDeviation: f64Ptr(12)},
		{EquipmentID: 202, Month: date(time.February, 1), Status: summarydomain.StatusAlert, PercentDeviation: f64Ptr(-40)},
		{EquipmentID: 303, Month: date(time.February, 1), Status: summarydomain.StatusNominal, PercentDeviation: f64Ptr(4)},
		{EquipmentID: 404, Month: date(time.February, 1)},
	}

	report := svc.Report(summaries)
	require.NotNil(t, report)
	assert.Equal(t, date(time.February, 1), report.Month)
	require.Len(t, report.Alerts, 2)
	// Worst deviation first, by magnitude.
	assert.Equal(t, int64(202), report.Alerts[0].EquipmentID)
	assert.Equal(t, int64(101), report.Alerts[1].EquipmentID)
	require.Len(t, report.Nominal, 1)
	assert.Equal(t, int64(303), report.Nominal[0].EquipmentID)
	assert.Equal(t, 1, report.Unclassified)
}

func TestActivities_RanksByMeanRate(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), IntervalEnd: date(time.January, 15), Rate: 3},
		{EquipmentID: 202, IntervalStart: date(time.January, 1), IntervalEnd: date(time.January, 15), Rate: 1},
	}
	work := []ingestdomain.WorkEvent{
		{EquipmentID: 101, Timestamp: date(time.January, 5), DurationHours: 10, ActivityName: "HAULING"},
		{EquipmentID: 202, Timestamp: date(time.January, 5), DurationHours: 10, ActivityName: "IDLING"},
		{EquipmentID: 101, Timestamp: date(time.January, 6), DurationHours: 5, ActivityName: "IDLING"},
		// Outside every interval: not attributed.
		{EquipmentID: 101, Timestamp: date(time.March, 1), DurationHours: 99, ActivityName: "HAULING"},
		// Unlabeled: skipped.
		{EquipmentID: 101, Timestamp: date(time.January, 7), DurationHours: 4},
	}

	ranking := svc.Activities(intervals, work, 5)
	require.Len(t, ranking.MostConsuming, 2)
	assert.Equal(t, "HAULING", ranking.MostConsuming[0].Activity)
	assert.InDelta(t, 3.0, ranking.MostConsuming[0].MeanRate, 1e-9)
	assert.Equal(t, 10.0, ranking.MostConsuming[0].HoursWorked)

	// IDLING spans both equipment: (3*5 + 1*10) / 15.
	assert.Equal(t, "IDLING", ranking.MostConsuming[1].Activity)
	assert.InDelta(t, 25.0/15.0, ranking.MostConsuming[1].MeanRate, 1e-9)

	require.Len(t, ranking.MostEfficient, 2)
	assert.Equal(t, "IDLING", ranking.MostEfficient[0].Activity)
}

func TestActivities_TopNBoundsOutput(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), IntervalEnd: date(time.January, 31), Rate: 2},
	}
	work := []ingestdomain.WorkEvent{
		{EquipmentID: 101, Timestamp: date(time.January, 2), DurationHours: 1, ActivityName: "A"},
		{EquipmentID: 101, Timestamp: date(time.January, 3), DurationHours: 1, ActivityName: "B"},
		{EquipmentID: 101, Timestamp: date(time.January, 4), DurationHours: 1, ActivityName: "C"},
	}

	ranking := svc.Activities(intervals, work, 2)
	assert.Len(t, ranking.MostConsuming, 2)
	assert.Len(t, ranking.MostEfficient, 2)
}

func TestOutliers_IQRFences(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), Rate: 2.0},
		{EquipmentID: 102, IntervalStart: date(time.January, 2), Rate: 2.1},
		{EquipmentID: 103, IntervalStart: date(time.January, 3), Rate: 2.2},
		{EquipmentID: 104, IntervalStart: date(time.January, 4), Rate: 2.3},
		{EquipmentID: 105, IntervalStart: date(time.January, 5), Rate: 9.0},
	}

	out := svc.Outliers(intervals)
	require.Len(t, out, 1)
	assert.Equal(t, date(time.January, 1), out[0].Month)
	require.Len(t, out[0].Outliers, 1)
	assert.Equal(t, int64(105), out[0].Outliers[0].EquipmentID)
	assert.Less(t, out[0].UpperFence, 9.0)
}

func TestOutliers_MonthsWithoutOutliersKeepFences(t *testing.T) {
	svc := newTestService()

	intervals := []intervaldomain.ConsumptionInterval{
		{EquipmentID: 101, IntervalStart: date(time.January, 1), Rate: 2.0},
		{EquipmentID: 102, IntervalStart: date(time.January, 2), Rate: 2.1},
		{EquipmentID: 103, IntervalStart: date(time.February, 1), Rate: 3.0},
	}

	out := svc.Outliers(intervals)
	require.Len(t, out, 2)
	assert.Empty(t, out[0].Outliers)
	assert.Empty(t, out[1].Outliers)
	assert.True(t, out[0].Month.Before(out[1].Month))
}

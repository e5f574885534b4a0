package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
)

func newTestService() *Service {
	return NewService(ServiceParam{Log: zap.NewNop()}).(*Service)
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func at(d, hour int) time.Time {
	return time.Date(2024, time.March, d, hour, 0, 0, 0, time.UTC)
}

func TestAggregateRefuels_SumsPerDay(t *testing.T) {
	svc := newTestService()

	out := svc.AggregateRefuels([]ingestdomain.RefuelEvent{
		{EquipmentID: 101, Date: day(1), Volume: 30},
		{EquipmentID: 101, Date: day(1), Volume: 20},
		{EquipmentID: 101, Date: day(5), Volume: 40},
		{EquipmentID: 99, Date: day(2), Volume: 10},
	})

	require.Len(t, out, 3)
	assert.Equal(t, int64(99), out[0].EquipmentID)
	assert.Equal(t, int64(101), out[1].EquipmentID)
	assert.Equal(t, 50.0, out[1].Volume)
	assert.Equal(t, 40.0, out[2].Volume)
}

func TestAggregateRefuels_Idempotent(t *testing.T) {
	svc := newTestService()

	in := []ingestdomain.RefuelEvent{
		{EquipmentID: 101, Date: day(1), Volume: 30},
		{EquipmentID: 101, Date: day(1), Volume: 20},
		{EquipmentID: 101, Date: day(5), Volume: 40},
	}
	once := svc.AggregateRefuels(in)
	twice := svc.AggregateRefuels(once)
	assert.Equal(t, once, twice)
}

func TestAggregateWork_SumsExactTimestamps(t *testing.T) {
	svc := newTestService()

	out := svc.AggregateWork([]ingestdomain.WorkEvent{
		{EquipmentID: 101, Timestamp: at(1, 8), DurationHours: 4},
		{EquipmentID: 101, Timestamp: at(1, 8), DurationHours: 3},
		{EquipmentID: 101, Timestamp: at(1, 14), DurationHours: 2},
	})

	require.Len(t, out, 2)
	assert.Equal(t, 7.0, out[0].DurationHours)
	assert.Equal(t, 2.0, out[1].DurationHours)

	again := svc.AggregateWork(out)
	assert.Equal(t, out, again)
}

func TestBuild_OneIntervalPerConsecutivePair(t *testing.T) {
	svc := newTestService()

	res := svc.Build([]ingestdomain.RefuelEvent{
		{EquipmentID: 101, Date: day(1), Volume: 50},
		{EquipmentID: 101, Date: day(10), Volume: 40},
		{EquipmentID: 101, Date: day(20), Volume: 60},
	}, nil)

	require.Len(t, res.Intervals, 2)
	assert.Equal(t, day(1), res.Intervals[0].IntervalStart)
	assert.Equal(t, day(10), res.Intervals[0].IntervalEnd)
	assert.Equal(t, 50.0, res.Intervals[0].VolumeConsumed)
	assert.Equal(t, day(10), res.Intervals[1].IntervalStart)
	assert.Equal(t, 40.0, res.Intervals[1].VolumeConsumed)
}

func TestBuild_SingleRefuelYieldsNoIntervals(t *testing.T) {
	svc := newTestService()

	res := svc.Build([]ingestdomain.RefuelEvent{
		{EquipmentID: 101, Date: day(1), Volume: 50},
	}, []ingestdomain.WorkEvent{
		{EquipmentID: 101, Timestamp: at(2, 8), DurationHours: 6},
	})

	assert.Empty(t, res.Intervals)
	assert.Equal(t, 1, res.UnattributedWorkEvents)
}

func TestBuild_BoundaryAttribution(t *testing.T) {
	svc := newTestService()

	// An event exactly at the interval start belongs to the previous
	// interval; one exactly at the end belongs to this interval.
	res := svc.Build([]ingestdomain.RefuelEvent{
		{EquipmentID: 101, Date: day(1), Volume: 50},
		{EquipmentID: 101, Date: day(10), Volume: 40},
		{EquipmentID: 101, Date: day(20), Volume: 60},
	}, []ingestdomain.WorkEvent{
		{EquipmentID: 101, Timestamp: day(10), DurationHours: 5},
		{EquipmentID: 101, Timestamp: day(20), DurationHours: 8},
	})

	require.Len(t, res.Intervals, 2)
	assert.Equal(t, 5.0, res.Intervals[0].HoursWorked)
	assert.Equal(t, 8.0, res.Intervals[1].HoursWorked)
	assert.Equal(t, 0, res.UnattributedWorkEvents)
}

func TestBuild_RateComputation(t *testing.T) {
	svc := newTestService()

	res := svc.Build([]ingestdomain.RefuelEvent{
		{EquipmentID: 101, Date: day(1), Volume: 50},
		{EquipmentID: 101, Date: day(10), Volume: 40},
	}, []ingestdomain.WorkEvent{
		{EquipmentID: 101, Timestamp: at(3, 8), DurationHours: 12},
		{EquipmentID: 101, Timestamp: at(6, 8), DurationHours: 8},
	})

	require.Len(t, res.Intervals, 1)
	assert.Equal(t, 20.0, res.Intervals[0].HoursWorked)
	assert.InDelta(t, 2.5, res.Intervals[0].Rate, 1e-9)
}

func TestBuild_ZeroHoursYieldsZeroRate(t *testing.T) {
	svc := newTestService()

	res := svc.Build([]ingestdomain.RefuelEvent{
		{EquipmentID: 101, Date: day(1), Volume: 50},
		{EquipmentID: 101, Date: day(10), Volume: 40},
	}, nil)

	require.Len(t, res.Intervals, 1)
	assert.Equal(t, 0.0, res.Intervals[0].HoursWorked)
	assert.Equal(t, 0.0, res.Intervals[0].Rate)
}

func TestBuild_OrphanEquipmentSurfaced(t *testing.T) {
	svc := newTestService()

	res := svc.Build([]ingestdomain.RefuelEvent{
		{EquipmentID: 101, Date: day(1), Volume: 50},
		{EquipmentID: 101, Date: day(10), Volume: 40},
	}, []ingestdomain.WorkEvent{
		{EquipmentID: 202, Timestamp: at(2, 8), DurationHours: 6},
		{EquipmentID: 202, Timestamp: at(3, 8), DurationHours: 6},
		{EquipmentID: 101, Timestamp: at(2, 8), DurationHours: 6},
	})

	assert.Equal(t, []int64{202}, res.OrphanEquipment)
	assert.Equal(t, 2, res.UnattributedWorkEvents)
}

func TestBuild_WorkOutsideAnyInterval(t *testing.T) {
	svc := newTestService()

	res := svc.Build([]ingestdomain.RefuelEvent{
		{EquipmentID: 101, Date: day(10), Volume: 50},
		{EquipmentID: 101, Date: day(20), Volume: 40},
	}, []ingestdomain.WorkEvent{
		{EquipmentID: 101, Timestamp: at(2, 8), DurationHours: 6},
		{EquipmentID: 101, Timestamp: at(25, 8), DurationHours: 4},
		{EquipmentID: 101, Timestamp: at(15, 8), DurationHours: 10},
	})

	require.Len(t, res.Intervals, 1)
	assert.Equal(t, 10.0, res.Intervals[0].HoursWorked)
	assert.Equal(t, 2, res.UnattributedWorkEvents)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	analysisdomain "github.com/fleetops/fuelrate/internal/analysis/domain"
	"github.com/fleetops/fuelrate/internal/analysis/repository"
	classservice "github.com/fleetops/fuelrate/internal/classification/service"
	"github.com/fleetops/fuelrate/internal/clock"
	"github.com/fleetops/fuelrate/internal/config"
	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
	ingestservice "github.com/fleetops/fuelrate/internal/ingest/service"
	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
	intervalservice "github.com/fleetops/fuelrate/internal/interval/service"
	summarydomain "github.com/fleetops/fuelrate/internal/summary/domain"
	summaryservice "github.com/fleetops/fuelrate/internal/summary/service"
	"github.com/fleetops/fuelrate/pkg/tabular"
)

func newTestHarness(t *testing.T) analysisdomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&analysisdomain.Analysis{},
		&intervaldomain.ConsumptionInterval{},
		&ingestdomain.WorkEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))

	return New(Params{
		DB:             db,
		Log:            log,
		GenID:          node,
		Clock:          fake,
		Repo:           repository.Provide(),
		Ingest:         ingestservice.NewService(ingestservice.ServiceParam{Log: log}),
		Interval:       intervalservice.NewService(intervalservice.ServiceParam{Log: log}),
		Classification: classservice.NewService(classservice.ServiceParam{Log: log}),
		Summary:        summaryservice.NewService(summaryservice.ServiceParam{Log: log}),
		ConfigHolder:   config.NewStaticAnalysisConfigHolder(config.DefaultAnalysisConfig()),
	})
}

func refuelTable() *tabular.Table {
	return tabular.NewTable(
		[]string{"equipment_id", "date", "volume"},
		[][]string{
			{"101", "01/01/2024", "50"},
			{"101", "15/01/2024", "40"},
			{"EX-9", "01/01/2024", "10"},
		},
	)
}

func workTable() *tabular.Table {
	return tabular.NewTable(
		[]string{"equipment_id", "timestamp", "duration_hours", "activity_name"},
		[][]string{
			{"101", "03/01/2024 08:00 AM", "12", "HAULING"},
			{"101", "06/01/2024 08:00 AM", "5", "HAULING"},
			{"101", "09/01/2024 08:00 AM", "3", "IDLING"},
			{"777", "03/01/2024 08:00 AM", "6", "HAULING"},
		},
	)
}

func classificationTable() *tabular.Table {
	return tabular.NewTable(
		[]string{"equipment_id", "zone", "category", "historical_baseline_rate"},
		[][]string{
			{"101", "NORTH PIT", "EXCAVATOR", "2,0"},
		},
	)
}

func TestRun_FullPipeline(t *testing.T) {
	svc := newTestHarness(t)
	ctx := context.Background()

	a, err := svc.Run(ctx, analysisdomain.RunInput{
		Refuels:        refuelTable(),
		WorkHours:      workTable(),
		Classification: classificationTable(),
	})
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.True(t, a.HasClassification)
	assert.Equal(t, 1, a.IntervalCount)
	assert.Equal(t, 3, a.RefuelRowsRead)
	assert.Equal(t, 1, a.RefuelRowsExcluded)
	assert.Equal(t, 4, a.WorkRowsRead)
	assert.Equal(t, 1, a.OrphanEquipmentCount)
	assert.Equal(t, 1, a.UnattributedWorkEvents)
	assert.Equal(t, time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC), a.CreatedAt)

	intervals, err := svc.Intervals(ctx, a.ID, summarydomain.Filter{})
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	assert.Equal(t, int64(101), intervals[0].EquipmentID)
	assert.Equal(t, 20.0, intervals[0].HoursWorked)
	assert.Equal(t, 50.0, intervals[0].VolumeConsumed)
	assert.InDelta(t, 2.5, intervals[0].Rate, 1e-9)
	require.NotNil(t, intervals[0].Zone)
	assert.Equal(t, "NORTH PIT", *intervals[0].Zone)
	require.NotNil(t, intervals[0].BaselineRate)
	assert.Equal(t, 2.0, *intervals[0].BaselineRate)
}

func TestRun_SummaryAndReport(t *testing.T) {
	svc := newTestHarness(t)
	ctx := context.Background()

	a, err := svc.Run(ctx, analysisdomain.RunInput{
		Refuels:        refuelTable(),
		WorkHours:      workTable(),
		Classification: classificationTable(),
	})
	require.NoError(t, err)

	summaries, err := svc.Summary(ctx, a.ID, summarydomain.Filter{}, "")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.InDelta(t, 2.5, summaries[0].Rate, 1e-9)
	require.NotNil(t, summaries[0].PercentDeviation)
	assert.InDelta(t, 25.0, *summaries[0].PercentDeviation, 1e-9)
	assert.Equal(t, summarydomain.StatusAlert, summaries[0].Status)

	report, err := svc.Report(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Len(t, report.Alerts, 1)
	assert.Equal(t, int64(101), report.Alerts[0].EquipmentID)
}

func TestRun_WithoutClassification(t *testing.T) {
	svc := newTestHarness(t)
	ctx := context.Background()

	a, err := svc.Run(ctx, analysisdomain.RunInput{
		Refuels:   refuelTable(),
		WorkHours: workTable(),
	})
	require.NoError(t, err)
	assert.False(t, a.HasClassification)

	intervals, err := svc.Intervals(ctx, a.ID, summarydomain.Filter{})
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	assert.Nil(t, intervals[0].Zone)
	assert.Nil(t, intervals[0].BaselineRate)

	summaries, err := svc.Summary(ctx, a.ID, summarydomain.Filter{}, "")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Empty(t, summaries[0].Status)
}

func TestRun_MissingInputTables(t *testing.T) {
	svc := newTestHarness(t)
	ctx := context.Background()

	_, err := svc.Run(ctx, analysisdomain.RunInput{WorkHours: workTable()})
	assert.ErrorIs(t, err, analysisdomain.ErrMissingRefuels)

	_, err = svc.Run(ctx, analysisdomain.RunInput{Refuels: refuelTable()})
	assert.ErrorIs(t, err, analysisdomain.ErrMissingWorkHours)
}

func TestRun_BadDateFailsWholeLoad(t *testing.T) {
	svc := newTestHarness(t)
	ctx := context.Background()

	bad := tabular.NewTable(
		[]string{"equipment_id", "date", "volume"},
		[][]string{
			{"101", "2024-01-01", "50"},
		},
	)
	_, err := svc.Run(ctx, analysisdomain.RunInput{Refuels: bad, WorkHours: workTable()})
	assert.ErrorIs(t, err, ingestdomain.ErrInvalidDateFormat)
}

func TestActivities_RankedFromStoredEvents(t *testing.T) {
	svc := newTestHarness(t)
	ctx := context.Background()

	a, err := svc.Run(ctx, analysisdomain.RunInput{
		Refuels:   refuelTable(),
		WorkHours: workTable(),
	})
	require.NoError(t, err)

	ranking, err := svc.Activities(ctx, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, ranking.MostConsuming, 2)
	assert.Equal(t, "HAULING", ranking.MostConsuming[0].Activity)
	assert.Equal(t, 17.0, ranking.MostConsuming[0].HoursWorked)
	assert.Equal(t, 2, ranking.MostConsuming[0].EventCount)
}

func TestOutliers_FromStoredIntervals(t *testing.T) {
	svc := newTestHarness(t)
	ctx := context.Background()

	a, err := svc.Run(ctx, analysisdomain.RunInput{
		Refuels:   refuelTable(),
		WorkHours: workTable(),
	})
	require.NoError(t, err)

	out, err := svc.Outliers(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), out[0].Month)
	assert.Empty(t, out[0].Outliers)
}

func TestExportIntervals_ValidWorkbook(t *testing.T) {
	svc := newTestHarness(t)
	ctx := context.Background()

	a, err := svc.Run(ctx, analysisdomain.RunInput{
		Refuels:        refuelTable(),
		WorkHours:      workTable(),
		Classification: classificationTable(),
	})
	require.NoError(t, err)

	buf, err := svc.ExportIntervals(ctx, a.ID, summarydomain.Filter{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Intervals")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], "zone")
	assert.Equal(t, "101", rows[1][0])
}

func TestDelete_RemovesAnalysis(t *testing.T) {
	svc := newTestHarness(t)
	ctx := context.Background()

	a, err := svc.Run(ctx, analysisdomain.RunInput{
		Refuels:   refuelTable(),
		WorkHours: workTable(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))

	_, err = svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, analysisdomain.ErrAnalysisNotFound)

	_, err = svc.Intervals(ctx, a.ID, summarydomain.Filter{})
	assert.ErrorIs(t, err, analysisdomain.ErrAnalysisNotFound)
}

func TestGet_UnknownID(t *testing.T) {
	svc := newTestHarness(t)

	_, err := svc.Get(context.Background(), snowflake.ID(12345))
	assert.ErrorIs(t, err, analysisdomain.ErrAnalysisNotFound)
}

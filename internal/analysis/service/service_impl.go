package service

import (
	"bytes"
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	analysisdomain "github.com/fleetops/fuelrate/internal/analysis/domain"
	classdomain "github.com/fleetops/fuelrate/internal/classification/domain"
	"github.com/fleetops/fuelrate/internal/clock"
	"github.com/fleetops/fuelrate/internal/config"
	"github.com/fleetops/fuelrate/internal/export"
	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
	"github.com/fleetops/fuelrate/internal/observability/metrics"
	summarydomain "github.com/fleetops/fuelrate/internal/summary/domain"
	"github.com/fleetops/fuelrate/pkg/tabular"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	Repo           analysisdomain.Repository
	Ingest         ingestdomain.Service
	Interval       intervaldomain.Service
	Classification classdomain.Service
	Summary        summarydomain.Service
	ConfigHolder   *config.AnalysisConfigHolder
	Metrics        *metrics.Metrics `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	repo           analysisdomain.Repository
	ingest         ingestdomain.Service
	interval       intervaldomain.Service
	classification classdomain.Service
	summary        summarydomain.Service
	configHolder   *config.AnalysisConfigHolder
	metrics        *metrics.Metrics
}

func New(p Params) analysisdomain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("analysis.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		ingest:         p.Ingest,
		interval:       p.Interval,
		classification: p.Classification,
		summary:        p.Summary,
		configHolder:   p.ConfigHolder,
		metrics:        p.Metrics,
	}
}

func (s *Service) Run(ctx context.Context, in analysisdomain.RunInput) (*analysisdomain.Analysis, error) {
	started := time.Now()

	a, err := s.run(ctx, in)
	if err != nil {
		s.metrics.RecordAnalysis("error", time.Since(started))
		return nil, err
	}
	s.metrics.RecordAnalysis("success", time.Since(started))
	return a, nil
}

func (s *Service) run(ctx context.Context, in analysisdomain.RunInput) (*analysisdomain.Analysis, error) {
	if in.Refuels == nil {
		return nil, analysisdomain.ErrMissingRefuels
	}
	if in.WorkHours == nil {
		return nil, analysisdomain.ErrMissingWorkHours
	}

	refuelLoad, err := s.ingest.LoadRefuels(in.Refuels)
	if err != nil {
		return nil, err
	}
	workLoad, err := s.ingest.LoadWorkHours(in.WorkHours)
	if err != nil {
		return nil, err
	}

	var classLoad classdomain.Load
	hasClassification := in.Classification != nil
	if hasClassification {
		classLoad, err = s.classification.Parse(in.Classification)
		if err != nil {
			return nil, err
		}
	}

	cfg := s.configHolder.Get()

	refuels := s.interval.AggregateRefuels(refuelLoad.Events)
	work := s.interval.AggregateWork(workLoad.Events)
	build := s.interval.Build(refuels, work)

	intervals := build.Intervals
	if hasClassification {
		intervals = s.classification.Merge(intervals, classLoad.Records, cfg.ZoneSentinel)
	}

	a := &analysisdomain.Analysis{
		ID:                         s.genID.Generate(),
		CreatedAt:                  s.clock.Now(),
		HasClassification:          hasClassification,
		IntervalCount:              len(intervals),
		RefuelRowsRead:             refuelLoad.RowsRead,
		RefuelRowsExcluded:         refuelLoad.ExcludedRows,
		WorkRowsRead:               workLoad.RowsRead,
		WorkRowsExcluded:           workLoad.ExcludedRows,
		ClassificationRowsRead:     classLoad.RowsRead,
		ClassificationRowsExcluded: classLoad.ExcludedRows,
		OrphanEquipmentCount:       len(build.OrphanEquipment),
		UnattributedWorkEvents:     build.UnattributedWorkEvents,
	}

	for i := range intervals {
		intervals[i].ID = s.genID.Generate()
		intervals[i].AnalysisID = a.ID
	}
	// Raw work events (pre-aggregation) keep their activity labels for
	// the ranking queries.
	events := make([]ingestdomain.WorkEvent, len(workLoad.Events))
	copy(events, workLoad.Events)
	for i := range events {
		events[i].ID = s.genID.Generate()
		events[i].AnalysisID = a.ID
	}

	if err := s.repo.Insert(ctx, s.db, a, intervals, events); err != nil {
		return nil, err
	}

	s.metrics.RecordRowsIngested("refuels", refuelLoad.RowsRead-refuelLoad.ExcludedRows)
	s.metrics.RecordRowsIngested("work_hours", workLoad.RowsRead-workLoad.ExcludedRows)
	s.metrics.RecordRowsIngested("classification", classLoad.RowsRead-classLoad.ExcludedRows)
	s.metrics.RecordRowsExcluded("refuels", "non_numeric_equipment_id", refuelLoad.ExcludedRows)
	s.metrics.RecordRowsExcluded("work_hours", "non_numeric_equipment_id", workLoad.ExcludedRows)
	s.metrics.RecordRowsExcluded("classification", "non_numeric_equipment_id", classLoad.ExcludedRows)
	s.metrics.RecordRowsExcluded("work_hours", "outside_intervals", build.UnattributedWorkEvents)

	s.log.Info("analysis stored",
		zap.Int64("analysis_id", a.ID.Int64()),
		zap.Int("intervals", a.IntervalCount),
		zap.Bool("classified", a.HasClassification),
		zap.Int("orphan_equipment", a.OrphanEquipmentCount),
		zap.Int("unattributed_work_events", a.UnattributedWorkEvents),
	)
	return a, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*analysisdomain.Analysis, error) {
	a, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, analysisdomain.ErrAnalysisNotFound
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, id)
}

func (s *Service) Intervals(ctx context.Context, id snowflake.ID, f summarydomain.Filter) ([]intervaldomain.ConsumptionInterval, error) {
	intervals, _, err := s.loadIntervals(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summary.Apply(intervals, f), nil
}

func (s *Service) Summary(ctx context.Context, id snowflake.ID, f summarydomain.Filter, mode string) ([]summarydomain.MonthlySummary, error) {
	intervals, _, err := s.loadIntervals(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summary.Monthly(s.summary.Apply(intervals, f), s.options(mode)), nil
}

func (s *Service) Report(ctx context.Context, id snowflake.ID) (*summarydomain.FleetReport, error) {
	summaries, err := s.Summary(ctx, id, summarydomain.Filter{}, "")
	if err != nil {
		return nil, err
	}
	return s.summary.Report(summaries), nil
}

func (s *Service) Activities(ctx context.Context, id snowflake.ID, topN int) (summarydomain.ActivityRanking, error) {
	intervals, _, err := s.loadIntervals(ctx, id)
	if err != nil {
		return summarydomain.ActivityRanking{}, err
	}
	events, err := s.repo.ListWorkEvents(ctx, s.db, id)
	if err != nil {
		return summarydomain.ActivityRanking{}, err
	}
	if topN <= 0 {
		topN = s.configHolder.Get().ActivityTopN
	}
	return s.summary.Activities(intervals, events, topN), nil
}

func (s *Service) Outliers(ctx context.Context, id snowflake.ID) ([]summarydomain.MonthlyOutliers, error) {
	intervals, _, err := s.loadIntervals(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summary.Outliers(intervals), nil
}

func (s *Service) ExportIntervals(ctx context.Context, id snowflake.ID, f summarydomain.Filter) (*bytes.Buffer, error) {
	intervals, a, err := s.loadIntervals(ctx, id)
	if err != nil {
		return nil, err
	}
	tbl := export.IntervalsTable(s.summary.Apply(intervals, f), a.HasClassification)
	return tabular.WriteXLSX(tbl, "Intervals")
}

func (s *Service) ExportSummary(ctx context.Context, id snowflake.ID, f summarydomain.Filter, mode string) (*bytes.Buffer, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	summaries, err := s.Summary(ctx, id, f, mode)
	if err != nil {
		return nil, err
	}
	tbl := export.SummaryTable(summaries, a.HasClassification)
	return tabular.WriteXLSX(tbl, "Monthly Summary")
}

// loadIntervals resolves the analysis before touching its rows so missing
// ids fail with not-found rather than an empty result.
func (s *Service) loadIntervals(ctx context.Context, id snowflake.ID) ([]intervaldomain.ConsumptionInterval, *analysisdomain.Analysis, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	intervals, err := s.repo.ListIntervals(ctx, s.db, id)
	if err != nil {
		return nil, nil, err
	}
	return intervals, a, nil
}

func (s *Service) options(mode string) summarydomain.Options {
	cfg := s.configHolder.Get()
	if mode == "" {
		mode = cfg.AggregationMode
	}
	return summarydomain.Options{
		Mode:              mode,
		AlertThresholdPct: cfg.AlertThresholdPct,
	}
}

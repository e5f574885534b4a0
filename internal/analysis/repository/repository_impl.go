package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	analysisdomain "github.com/fleetops/fuelrate/internal/analysis/domain"
	ingestdomain "github.com/fleetops/fuelrate/internal/ingest/domain"
	intervaldomain "github.com/fleetops/fuelrate/internal/interval/domain"
)

type repo struct{}

func Provide() analysisdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, a *analysisdomain.Analysis, intervals []intervaldomain.ConsumptionInterval, work []ingestdomain.WorkEvent) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		if len(intervals) > 0 {
			if err := tx.CreateInBatches(intervals, 500).Error; err != nil {
				return err
			}
		}
		if len(work) > 0 {
			if err := tx.CreateInBatches(work, 500).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*analysisdomain.Analysis, error) {
	var a analysisdomain.Analysis
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repo) ListIntervals(ctx context.Context, db *gorm.DB, analysisID snowflake.ID) ([]intervaldomain.ConsumptionInterval, error) {
	var intervals []intervaldomain.ConsumptionInterval
	err := db.WithContext(ctx).
		Where("analysis_id = ?", analysisID).
		Order("equipment_id ASC, interval_start ASC").
		Find(&intervals).Error
	if err != nil {
		return nil, err
	}
	return intervals, nil
}

func (r *repo) ListWorkEvents(ctx context.Context, db *gorm.DB, analysisID snowflake.ID) ([]ingestdomain.WorkEvent, error) {
	var events []ingestdomain.WorkEvent
	err := db.WithContext(ctx).
		Where("analysis_id = ?", analysisID).
		Order("equipment_id ASC, timestamp ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("analysis_id = ?", id).Delete(&intervaldomain.ConsumptionInterval{}).Error; err != nil {
			return err
		}
		if err := tx.Where("analysis_id = ?", id).Delete(&ingestdomain.WorkEvent{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&analysisdomain.Analysis{}).Error
	})
}

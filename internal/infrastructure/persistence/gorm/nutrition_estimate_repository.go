package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/larderly/server/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ outbound.NutritionEstimateRepository = (*NutritionEstimateRepository)(nil)

// NutritionEstimateRepository implements the estimate repository using GORM
type NutritionEstimateRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewNutritionEstimateRepository creates a new repository
func NewNutritionEstimateRepository(db *gorm.DB) *NutritionEstimateRepository {
	return &NutritionEstimateRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// FindByKey finds an estimate by cache key
func (r *NutritionEstimateRepository) FindByKey(ctx context.Context, key string) (*outbound.NutritionEstimate, error) {
	var model NutritionEstimateModel

	result := r.db.WithContext(ctx).First(&model, "cache_key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrKeyNotFound
		}
		return nil, fmt.Errorf("find nutrition estimate: %w", result.Error)
	}

	return ModelToEstimate(&model), nil
}

// Upsert inserts the estimate or overwrites the nutrients of an existing row
func (r *NutritionEstimateRepository) Upsert(ctx context.Context, estimate *outbound.NutritionEstimate) error {
	now := r.now()
	model := EstimateToModel(estimate)
	model.CreatedAt = now
	model.UpdatedAt = now

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns(nutrientColumns),
	}).Create(model)
	if result.Error != nil {
		return fmt.Errorf("upsert nutrition estimate: %w", result.Error)
	}

	return nil
}

// DeleteOlderThan removes rows last written before cutoff
func (r *NutritionEstimateRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff.UTC()).
		Delete(&NutritionEstimateModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune nutrition estimates: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Count returns the number of stored estimates
func (r *NutritionEstimateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&NutritionEstimateModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count nutrition estimates: %w", err)
	}
	return count, nil
}

// Ping checks the database connection
func (r *NutritionEstimateRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

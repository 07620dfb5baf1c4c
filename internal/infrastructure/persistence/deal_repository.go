package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/destinpq/groow-sub007/internal/domain/deal"
	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// DealSortFields contains allowed sort fields for deals
var DealSortFields = sortFields("title", "type", "start_date", "end_date", "priority", "usage_count")

var dealFilterColumns = map[string]string{
	"type":        "type",
	"is_active":   "is_active",
	"is_featured": "is_featured",
}

// GormDealRepository implements deal.Repository using GORM
type GormDealRepository struct {
	db *gorm.DB
}

// NewGormDealRepository creates a new GormDealRepository
func NewGormDealRepository(db *gorm.DB) *GormDealRepository {
	return &GormDealRepository{db: db}
}

// FindByID finds a deal by its ID
func (r *GormDealRepository) FindByID(ctx context.Context, id uuid.UUID) (*deal.Deal, error) {
	return first[deal.Deal](r.db.WithContext(ctx), "id = ?", id)
}

// FindAll finds all deals matching the filter
func (r *GormDealRepository) FindAll(ctx context.Context, filter shared.Filter) ([]deal.Deal, error) {
	var deals []deal.Deal
	query := r.applyFilter(r.db.WithContext(ctx).Model(&deal.Deal{}), filter)
	query = paginate(query, filter, DealSortFields, "created_at")
	if err := query.Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

// Count counts deals matching the filter
func (r *GormDealRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return count(r.applyFilter(r.db.WithContext(ctx).Model(&deal.Deal{}), filter))
}

// FindRunning finds active deals whose window contains now
func (r *GormDealRepository) FindRunning(ctx context.Context, now time.Time, featuredOnly bool) ([]deal.Deal, error) {
	var deals []deal.Deal
	query := r.db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date > ?", true, now, now)
	if featuredOnly {
		query = query.Where("is_featured = ?", true)
	}
	if err := query.Order("priority DESC, end_date ASC").Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

// Save creates a deal or updates it under its optimistic lock
func (r *GormDealRepository) Save(ctx context.Context, d *deal.Deal) error {
	return saveVersioned(ctx, r.db, d, &d.BaseAggregateRoot)
}

// Delete deletes a deal
func (r *GormDealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&deal.Deal{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormDealRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = search(query, filter.Search, "title", "description")
	return whereFilters(query, filter.Filters, dealFilterColumns)
}

var _ deal.Repository = (*GormDealRepository)(nil)

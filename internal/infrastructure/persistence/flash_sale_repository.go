package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/destinpq/groow-sub007/internal/domain/flashsale"
	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// FlashSaleSortFields contains allowed sort fields for flash sales
var FlashSaleSortFields = sortFields("campaign_code", "title", "status", "start_time", "end_time", "priority", "sold_quantity")

var flashSaleFilterColumns = map[string]string{
	"status":        "status",
	"campaign_type": "campaign_type",
	"featured":      "is_featured",
}

// GormFlashSaleRepository implements flashsale.Repository using GORM
type GormFlashSaleRepository struct {
	db *gorm.DB
}

// NewGormFlashSaleRepository creates a new GormFlashSaleRepository
func NewGormFlashSaleRepository(db *gorm.DB) *GormFlashSaleRepository {
	return &GormFlashSaleRepository{db: db}
}

// FindByID finds a campaign by its ID
func (r *GormFlashSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*flashsale.FlashSale, error) {
	return first[flashsale.FlashSale](r.db.WithContext(ctx), "id = ?", id)
}

// FindByCode finds a campaign by its code
func (r *GormFlashSaleRepository) FindByCode(ctx context.Context, code string) (*flashsale.FlashSale, error) {
	return first[flashsale.FlashSale](r.db.WithContext(ctx).
		Where("campaign_code = ?", strings.ToUpper(code)))
}

// FindAll finds all campaigns matching the filter
func (r *GormFlashSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]flashsale.FlashSale, error) {
	var sales []flashsale.FlashSale
	query := r.applyFilter(r.db.WithContext(ctx).Model(&flashsale.FlashSale{}), filter)
	query = paginate(query, filter, FlashSaleSortFields, "created_at")
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// Count counts campaigns matching the filter
func (r *GormFlashSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return count(r.applyFilter(r.db.WithContext(ctx).Model(&flashsale.FlashSale{}), filter))
}

// FindActive finds running campaigns, highest priority first
func (r *GormFlashSaleRepository) FindActive(ctx context.Context, now time.Time) ([]flashsale.FlashSale, error) {
	var sales []flashsale.FlashSale
	if err := r.db.WithContext(ctx).
		Where("status = ? AND start_time <= ? AND end_time > ?", flashsale.StatusActive, now, now).
		Order("priority DESC, end_time ASC").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// FindUpcoming finds scheduled campaigns starting in (now, until]
func (r *GormFlashSaleRepository) FindUpcoming(ctx context.Context, now, until time.Time) ([]flashsale.FlashSale, error) {
	var sales []flashsale.FlashSale
	if err := r.db.WithContext(ctx).
		Where("status = ? AND start_time > ? AND start_time <= ?", flashsale.StatusScheduled, now, until).
		Order("start_time ASC").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// FindDue finds campaigns the sweeper should start or end
func (r *GormFlashSaleRepository) FindDue(ctx context.Context, now time.Time) ([]flashsale.FlashSale, error) {
	var sales []flashsale.FlashSale
	if err := r.db.WithContext(ctx).
		Where("(status = ? AND auto_start = ? AND start_time <= ?) OR (status IN ? AND auto_end = ? AND end_time <= ?)",
			flashsale.StatusScheduled, true, now,
			[]flashsale.Status{flashsale.StatusActive, flashsale.StatusPaused}, true, now).
		Order("start_time ASC").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// ExistsByCode checks whether a campaign code is taken
func (r *GormFlashSaleRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return exists(r.db.WithContext(ctx).
		Model(&flashsale.FlashSale{}).
		Where("campaign_code = ?", strings.ToUpper(code)))
}

// Save creates a campaign or updates it under its optimistic lock
func (r *GormFlashSaleRepository) Save(ctx context.Context, fs *flashsale.FlashSale) error {
	return saveVersioned(ctx, r.db, fs, &fs.BaseAggregateRoot)
}

// Delete deletes a campaign
func (r *GormFlashSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&flashsale.FlashSale{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormFlashSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = search(query, filter.Search, "title", "campaign_code", "description")
	return whereFilters(query, filter.Filters, flashSaleFilterColumns)
}

// Ensure GormFlashSaleRepository implements flashsale.Repository
var _ flashsale.Repository = (*GormFlashSaleRepository)(nil)

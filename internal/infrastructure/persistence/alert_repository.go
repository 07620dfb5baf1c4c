package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/destinpq/groow-sub007/internal/domain/alert"
	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// AlertSortFields contains allowed sort fields for inventory alerts
var AlertSortFields = sortFields("severity", "status", "alert_type", "product_name", "current_stock")

var alertFilterColumns = map[string]string{
	"status":     "status",
	"severity":   "severity",
	"alert_type": "alert_type",
	"product_id": "product_id",
}

// GormAlertRepository implements alert.Repository using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GormAlertRepository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

// FindByID finds an alert by its ID
func (r *GormAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*alert.Alert, error) {
	return first[alert.Alert](r.db.WithContext(ctx), "id = ?", id)
}

// FindAll finds alerts matching the filter
func (r *GormAlertRepository) FindAll(ctx context.Context, filter shared.Filter) ([]alert.Alert, error) {
	var alerts []alert.Alert
	query := r.applyFilter(r.db.WithContext(ctx).Model(&alert.Alert{}), filter)
	if err := paginate(query, filter, AlertSortFields, "created_at").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// Count counts alerts matching the filter
func (r *GormAlertRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return count(r.applyFilter(r.db.WithContext(ctx).Model(&alert.Alert{}), filter))
}

// FindOpenForProduct finds an unresolved alert of a type for a product
func (r *GormAlertRepository) FindOpenForProduct(ctx context.Context, productID uuid.UUID, alertType alert.Type) (*alert.Alert, error) {
	return first[alert.Alert](r.db.WithContext(ctx).
		Where("product_id = ? AND alert_type = ? AND status IN ?", productID, alertType,
			[]alert.Status{alert.StatusActive, alert.StatusAcknowledged}).
		Order("created_at DESC"))
}

// Save creates or updates an alert
func (r *GormAlertRepository) Save(ctx context.Context, a *alert.Alert) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// Delete deletes an alert
func (r *GormAlertRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&alert.Alert{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Stats counts alerts grouped by status, severity and type
func (r *GormAlertRepository) Stats(ctx context.Context) (*alert.Stats, error) {
	stats := &alert.Stats{
		ByStatus:   make(map[alert.Status]int64),
		BySeverity: make(map[alert.Severity]int64),
		ByType:     make(map[alert.Type]int64),
	}
	group := func(col string) ([]labelCount, error) {
		var rows []labelCount
		err := r.db.WithContext(ctx).Model(&alert.Alert{}).
			Select(col + " AS label, COUNT(*) AS total").
			Group(col).
			Scan(&rows).Error
		return rows, err
	}

	rows, err := group("status")
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStatus[alert.Status(row.Label)] = row.Total
		stats.Total += row.Total
	}

	if rows, err = group("severity"); err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.BySeverity[alert.Severity(row.Label)] = row.Total
	}

	if rows, err = group("alert_type"); err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByType[alert.Type(row.Label)] = row.Total
	}
	return stats, nil
}

func (r *GormAlertRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = search(query, filter.Search, "product_name", "product_sku", "message")
	return whereFilters(query, filter.Filters, alertFilterColumns)
}

var _ alert.Repository = (*GormAlertRepository)(nil)

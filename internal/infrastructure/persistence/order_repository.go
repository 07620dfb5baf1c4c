package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/destinpq/groow-sub007/internal/domain/order"
	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = sortFields("number", "status", "total")

var orderFilterColumns = map[string]string{
	"status":      "status",
	"customer_id": "customer_id",
}

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return first[order.Order](r.db.WithContext(ctx), "id = ?", id)
}

// FindByNumber finds an order by its order number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	return first[order.Order](r.db.WithContext(ctx).Where("number = ?", strings.TrimSpace(number)))
}

// FindAll finds orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := r.applyFilter(r.db.WithContext(ctx).Model(&order.Order{}), filter)
	if err := paginate(query, filter, OrderSortFields, "created_at").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return count(r.applyFilter(r.db.WithContext(ctx).Model(&order.Order{}), filter))
}

// Save creates or updates an order
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Save(o).Error
}

// FindEvents returns an order's tracking events, oldest first
func (r *GormOrderRepository) FindEvents(ctx context.Context, orderID uuid.UUID) ([]order.TrackingEvent, error) {
	var events []order.TrackingEvent
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("occurred_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// SaveEvent stores a tracking event
func (r *GormOrderRepository) SaveEvent(ctx context.Context, e *order.TrackingEvent) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = search(query, filter.Search, "number", "tracking_number")
	return whereFilters(query, filter.Filters, orderFilterColumns)
}

var _ order.Repository = (*GormOrderRepository)(nil)

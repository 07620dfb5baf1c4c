package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
	"github.com/destinpq/groow-sub007/internal/domain/shipping"
)

var shippingSortFields = sortFields("code", "name", "priority", "service_type")

// GormCarrierRepository implements shipping.CarrierRepository using GORM
type GormCarrierRepository struct {
	db *gorm.DB
}

// NewGormCarrierRepository creates a new GormCarrierRepository
func NewGormCarrierRepository(db *gorm.DB) *GormCarrierRepository {
	return &GormCarrierRepository{db: db}
}

// FindByID finds a carrier by its ID
func (r *GormCarrierRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Carrier, error) {
	return first[shipping.Carrier](r.db.WithContext(ctx), "id = ?", id)
}

// FindAll finds carriers matching the filter
func (r *GormCarrierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]shipping.Carrier, error) {
	var carriers []shipping.Carrier
	query := r.applyFilter(r.db.WithContext(ctx).Model(&shipping.Carrier{}), filter)
	if err := paginate(query, filter, shippingSortFields, "name").Find(&carriers).Error; err != nil {
		return nil, err
	}
	return carriers, nil
}

// Count counts carriers matching the filter
func (r *GormCarrierRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return count(r.applyFilter(r.db.WithContext(ctx).Model(&shipping.Carrier{}), filter))
}

// FindActive finds all active carriers
func (r *GormCarrierRepository) FindActive(ctx context.Context) ([]shipping.Carrier, error) {
	var carriers []shipping.Carrier
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&carriers).Error; err != nil {
		return nil, err
	}
	return carriers, nil
}

// ExistsByCode checks whether a carrier code is taken
func (r *GormCarrierRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return exists(r.db.WithContext(ctx).
		Model(&shipping.Carrier{}).
		Where("code = ?", strings.ToUpper(code)))
}

// Save creates or updates a carrier
func (r *GormCarrierRepository) Save(ctx context.Context, c *shipping.Carrier) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete deletes a carrier and its methods
func (r *GormCarrierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&shipping.Method{}, "carrier_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&shipping.Carrier{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *GormCarrierRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = search(query, filter.Search, "name", "code")
	return whereFilters(query, filter.Filters, map[string]string{"is_active": "is_active"})
}

// GormMethodRepository implements shipping.MethodRepository using GORM
type GormMethodRepository struct {
	db *gorm.DB
}

// NewGormMethodRepository creates a new GormMethodRepository
func NewGormMethodRepository(db *gorm.DB) *GormMethodRepository {
	return &GormMethodRepository{db: db}
}

// FindByID finds a method by its ID
func (r *GormMethodRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Method, error) {
	return first[shipping.Method](r.db.WithContext(ctx), "id = ?", id)
}

// FindByCarrier finds the methods of one carrier
func (r *GormMethodRepository) FindByCarrier(ctx context.Context, carrierID uuid.UUID) ([]shipping.Method, error) {
	var methods []shipping.Method
	if err := r.db.WithContext(ctx).Where("carrier_id = ?", carrierID).Order("name ASC").Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

// FindAll finds methods matching the filter
func (r *GormMethodRepository) FindAll(ctx context.Context, filter shared.Filter) ([]shipping.Method, error) {
	var methods []shipping.Method
	query := r.applyFilter(r.db.WithContext(ctx).Model(&shipping.Method{}), filter)
	if err := paginate(query, filter, shippingSortFields, "name").Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

// Count counts methods matching the filter
func (r *GormMethodRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return count(r.applyFilter(r.db.WithContext(ctx).Model(&shipping.Method{}), filter))
}

// FindActive finds all active methods
func (r *GormMethodRepository) FindActive(ctx context.Context) ([]shipping.Method, error) {
	var methods []shipping.Method
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

// Save creates or updates a method
func (r *GormMethodRepository) Save(ctx context.Context, m *shipping.Method) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// Delete deletes a method
func (r *GormMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&shipping.Method{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormMethodRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = search(query, filter.Search, "name", "code")
	return whereFilters(query, filter.Filters, map[string]string{
		"carrier_id":   "carrier_id",
		"service_type": "service_type",
		"is_active":    "is_active",
	})
}

// GormZoneRepository implements shipping.ZoneRepository using GORM
type GormZoneRepository struct {
	db *gorm.DB
}

// NewGormZoneRepository creates a new GormZoneRepository
func NewGormZoneRepository(db *gorm.DB) *GormZoneRepository {
	return &GormZoneRepository{db: db}
}

// FindByID finds a zone by its ID
func (r *GormZoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Zone, error) {
	return first[shipping.Zone](r.db.WithContext(ctx), "id = ?", id)
}

// FindAll finds zones matching the filter
func (r *GormZoneRepository) FindAll(ctx context.Context, filter shared.Filter) ([]shipping.Zone, error) {
	var zones []shipping.Zone
	query := r.applyFilter(r.db.WithContext(ctx).Model(&shipping.Zone{}), filter)
	if err := paginate(query, filter, shippingSortFields, "priority").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

// Count counts zones matching the filter
func (r *GormZoneRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return count(r.applyFilter(r.db.WithContext(ctx).Model(&shipping.Zone{}), filter))
}

// FindActive finds all active zones, highest priority first
func (r *GormZoneRepository) FindActive(ctx context.Context) ([]shipping.Zone, error) {
	var zones []shipping.Zone
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("priority DESC").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

// Save creates or updates a zone
func (r *GormZoneRepository) Save(ctx context.Context, z *shipping.Zone) error {
	return r.db.WithContext(ctx).Save(z).Error
}

// Delete deletes a zone
func (r *GormZoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&shipping.Zone{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormZoneRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = search(query, filter.Search, "name")
	return whereFilters(query, filter.Filters, map[string]string{"is_active": "is_active"})
}

var (
	_ shipping.CarrierRepository = (*GormCarrierRepository)(nil)
	_ shipping.MethodRepository  = (*GormMethodRepository)(nil)
	_ shipping.ZoneRepository    = (*GormZoneRepository)(nil)
)

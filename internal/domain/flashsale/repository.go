package flashsale

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Repository defines the interface for flash sale persistence
type Repository interface {
	// FindByID finds a campaign by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*FlashSale, error)

	// FindByCode finds a campaign by its campaign code
	FindByCode(ctx context.Context, code string) (*FlashSale, error)

	// FindAll lists campaigns; Filters may carry "status", "campaign_type" and "featured"
	FindAll(ctx context.Context, filter shared.Filter) ([]FlashSale, error)

	// Count counts campaigns matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindActive finds campaigns stored as active whose window contains now
	FindActive(ctx context.Context, now time.Time) ([]FlashSale, error)

	// FindUpcoming finds scheduled campaigns starting between now and until
	FindUpcoming(ctx context.Context, now, until time.Time) ([]FlashSale, error)

	// FindDue finds campaigns whose automatic start or end time has passed
	FindDue(ctx context.Context, now time.Time) ([]FlashSale, error)

	// ExistsByCode checks whether a campaign code is taken
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Save creates or updates a campaign. An update fails with
	// shared.ErrConcurrencyConflict when the stored version moved on since fs was loaded.
	Save(ctx context.Context, fs *FlashSale) error

	// Delete deletes a campaign
	Delete(ctx context.Context, id uuid.UUID) error
}

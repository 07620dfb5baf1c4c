package deal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Repository defines the interface for deal persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Deal, error)

	// FindAll lists deals; Filters may carry "type", "is_active" and "is_featured"
	FindAll(ctx context.Context, filter shared.Filter) ([]Deal, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindRunning finds active deals whose window contains now
	FindRunning(ctx context.Context, now time.Time, featuredOnly bool) ([]Deal, error)

	// Save creates or updates a deal; a stale Version yields shared.ErrConcurrencyConflict
	Save(ctx context.Context, d *Deal) error
	Delete(ctx context.Context, id uuid.UUID) error
}

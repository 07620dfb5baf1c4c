package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Repository defines the interface for order persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)

	// FindAll lists orders; Filters may carry "status" and "customer_id"
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	Save(ctx context.Context, o *Order) error

	// Events are returned oldest first
	FindEvents(ctx context.Context, orderID uuid.UUID) ([]TrackingEvent, error)
	SaveEvent(ctx context.Context, e *TrackingEvent) error
}

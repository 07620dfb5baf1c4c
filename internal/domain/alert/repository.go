package alert

import (
	"context"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Stats counts alerts by status and severity
type Stats struct {
	Total      int64              `json:"total"`
	ByStatus   map[Status]int64   `json:"byStatus"`
	BySeverity map[Severity]int64 `json:"bySeverity"`
	ByType     map[Type]int64     `json:"byType"`
}

// Repository defines the interface for inventory alert persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Alert, error)

	// FindAll lists alerts; Filters may carry "status", "severity",
	// "alert_type" and "product_id"
	FindAll(ctx context.Context, filter shared.Filter) ([]Alert, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindOpenForProduct finds an active or acknowledged alert of a type
	FindOpenForProduct(ctx context.Context, productID uuid.UUID, alertType Type) (*Alert, error)

	Save(ctx context.Context, a *Alert) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
}

package shipping

import (
	"context"

	"github.com/google/uuid"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// CarrierRepository defines the interface for carrier persistence
type CarrierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Carrier, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Carrier, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	FindActive(ctx context.Context) ([]Carrier, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, c *Carrier) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MethodRepository defines the interface for shipping method persistence
type MethodRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Method, error)
	FindByCarrier(ctx context.Context, carrierID uuid.UUID) ([]Method, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Method, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	FindActive(ctx context.Context) ([]Method, error)
	Save(ctx context.Context, m *Method) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ZoneRepository defines the interface for shipping zone persistence
type ZoneRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Zone, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Zone, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	FindActive(ctx context.Context) ([]Zone, error)
	Save(ctx context.Context, z *Zone) error
	Delete(ctx context.Context, id uuid.UUID) error
}

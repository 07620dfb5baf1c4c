// Package deal implements the marketing deal use cases.
package deal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/domain/deal"
	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// conflictRetries bounds how often a contended write is reloaded and retried
const conflictRetries = 5

// Service handles deal operations
type Service struct {
	repo   deal.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new deal service
func NewService(repo deal.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// List returns a page of deals
func (s *Service) List(ctx context.Context, filter ListFilter) ([]DealResponse, int64, error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.Limit,
		OrderBy:  shared.SortColumn(filter.SortBy),
		OrderDir: filter.SortOrder,
		Search:   filter.Search,
		Filters:  map[string]any{},
	}
	if filter.DealType != "" {
		f.Filters["type"] = filter.DealType
	}
	if filter.IsActive != nil {
		f.Filters["is_active"] = *filter.IsActive
	}
	if filter.IsFeatured != nil {
		f.Filters["is_featured"] = *filter.IsFeatured
	}
	f = f.Normalize()

	list, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return toDealResponses(list, s.now()), total, nil
}

// Active lists deals running now
func (s *Service) Active(ctx context.Context) ([]DealResponse, error) {
	now := s.now()
	list, err := s.repo.FindRunning(ctx, now, false)
	if err != nil {
		return nil, err
	}
	return toDealResponses(list, now), nil
}

// Featured lists featured deals running now
func (s *Service) Featured(ctx context.Context) ([]DealResponse, error) {
	now := s.now()
	list, err := s.repo.FindRunning(ctx, now, true)
	if err != nil {
		return nil, err
	}
	return toDealResponses(list, now), nil
}

// Get returns one deal
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*DealResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDealResponse(d, s.now())
	return &resp, nil
}

// Create creates an active deal
func (s *Service) Create(ctx context.Context, req CreateDealRequest) (*DealResponse, error) {
	d, err := deal.NewDeal(req.Title, req.terms())
	if err != nil {
		return nil, err
	}
	d.Description = req.Description
	d.SetOptions(req.Priority, req.Stackable, req.AutoApply, req.Tags)
	d.SetFeatured(req.IsFeatured)

	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info("Deal created", zap.String("id", d.ID.String()), zap.String("type", string(d.Type)))
	resp := ToDealResponse(d, s.now())
	return &resp, nil
}

// Update replaces a deal's terms and options
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateDealRequest) (*DealResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := d.Update(req.Title, req.Description, req.terms()); err != nil {
		return nil, err
	}
	d.SetOptions(req.Priority, req.Stackable, req.AutoApply, req.Tags)
	d.SetFeatured(req.IsFeatured)
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	resp := ToDealResponse(d, s.now())
	return &resp, nil
}

// SetStatus switches a deal on or off
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, active bool) (*DealResponse, error) {
	return s.mutate(ctx, id, func(d *deal.Deal) { d.SetActive(active) })
}

// SetFeatured toggles featured placement
func (s *Service) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*DealResponse, error) {
	return s.mutate(ctx, id, func(d *deal.Deal) { d.SetFeatured(featured) })
}

// Delete removes a deal
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Analytics returns usage statistics for a deal
func (s *Service) Analytics(ctx context.Context, id uuid.UUID) (*AnalyticsResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AnalyticsResponse{
		DealID:    d.ID,
		Title:     d.Title,
		Analytics: d.Analytics(s.now()),
	}, nil
}

// Apply records one use of the deal against an order. Concurrent uses
// of the same deal are serialized through its version, so the usage limit holds.
func (s *Service) Apply(ctx context.Context, id uuid.UUID, req ApplyRequest) (*ApplyResponse, error) {
	var (
		d        *deal.Deal
		discount decimal.Decimal
	)
	err := shared.RetryOnConflict(conflictRetries, func() error {
		var err error
		if d, err = s.repo.FindByID(ctx, id); err != nil {
			return err
		}
		if discount, err = d.Apply(req.OrderTotal, s.now()); err != nil {
			return err
		}
		return s.repo.Save(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Deal applied",
		zap.String("deal_id", d.ID.String()),
		zap.String("order_id", req.OrderID),
		zap.String("discount", discount.String()))
	return &ApplyResponse{
		DealID:        d.ID,
		OrderID:       req.OrderID,
		OrderTotal:    req.OrderTotal,
		Discount:      discount,
		FinalTotal:    req.OrderTotal.Sub(discount),
		RemainingUses: d.RemainingUses(),
	}, nil
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*deal.Deal)) (*DealResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(d)
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	resp := ToDealResponse(d, s.now())
	return &resp, nil
}

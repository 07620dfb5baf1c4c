// Package order implements order lookup and tracking.
package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/domain/order"
	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Service handles order tracking operations
type Service struct {
	repo   order.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new order service
func NewService(repo order.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Get finds an order by UUID or order number
func (s *Service) Get(ctx context.Context, actor Actor, idOrNumber string) (*OrderResponse, error) {
	o, err := s.find(ctx, actor, idOrNumber)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// MyOrders lists the actor's own orders
func (s *Service) MyOrders(ctx context.Context, actor Actor, filter ListFilter) ([]OrderResponse, int64, error) {
	f := filter.toShared()
	f.Filters["customer_id"] = actor.UserID
	return s.list(ctx, f)
}

// List lists every order; staff only
func (s *Service) List(ctx context.Context, actor Actor, filter ListFilter) ([]OrderResponse, int64, error) {
	if !actor.Staff {
		return nil, 0, shared.ErrForbidden
	}
	return s.list(ctx, filter.toShared())
}

// Tracking returns the tracking view, newest update first
func (s *Service) Tracking(ctx context.Context, actor Actor, idOrNumber string) (*TrackingResponse, error) {
	o, err := s.find(ctx, actor, idOrNumber)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.FindEvents(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	resp := ToTrackingResponse(o.Tracking(events))
	return &resp, nil
}

// Place records a new order with its first tracking event
func (s *Service) Place(ctx context.Context, actor Actor, req PlaceOrderRequest) (*OrderResponse, error) {
	if !actor.Staff {
		return nil, shared.ErrForbidden
	}
	if _, err := s.repo.FindByNumber(ctx, strings.TrimSpace(req.Number)); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Order "+req.Number+" already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	o, placed, err := order.NewOrder(req.Number, req.CustomerID, req.Total, req.ItemCount, s.now())
	if err != nil {
		return nil, err
	}
	if req.Currency != "" {
		o.Currency = strings.ToUpper(req.Currency)
	}
	o.ShippingCity = req.ShippingCity
	o.ShippingCountry = strings.ToUpper(req.ShippingCountry)

	if err := s.repo.Save(ctx, o); err != nil {
		return nil, err
	}
	if err := s.repo.SaveEvent(ctx, placed); err != nil {
		return nil, err
	}
	s.logger.Info("Order placed", zap.String("number", o.Number), zap.String("customer_id", o.CustomerID.String()))
	resp := ToOrderResponse(o)
	return &resp, nil
}

// UpdateStatus advances an order and appends a tracking event; staff only
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, idOrNumber string, req UpdateStatusRequest) (*OrderResponse, error) {
	if !actor.Staff {
		return nil, shared.ErrForbidden
	}
	o, err := s.find(ctx, actor, idOrNumber)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var event *order.TrackingEvent
	if order.Status(req.Status) == order.StatusShipped && req.Carrier != "" {
		event, err = o.Ship(req.Carrier, req.TrackingNumber, req.EstimatedDelivery, now)
		if err == nil && (req.Location != "" || req.Description != "") {
			event.Location = req.Location
			if req.Description != "" {
				event.Description = req.Description
			}
		}
	} else {
		event, err = o.Advance(order.Status(req.Status), req.Location, req.Description, now)
		if err == nil && req.EstimatedDelivery != nil {
			o.EstimatedDelivery = req.EstimatedDelivery
		}
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, o); err != nil {
		return nil, err
	}
	if err := s.repo.SaveEvent(ctx, event); err != nil {
		return nil, err
	}
	s.logger.Info("Order status updated", zap.String("number", o.Number), zap.String("status", string(o.Status)))
	resp := ToOrderResponse(o)
	return &resp, nil
}

func (s *Service) find(ctx context.Context, actor Actor, idOrNumber string) (*order.Order, error) {
	ref := order.ParseRef(idOrNumber)
	if ref.ID == uuid.Nil && ref.Number == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order ID or number is required")
	}

	var (
		o   *order.Order
		err error
	)
	if ref.Number != "" {
		o, err = s.repo.FindByNumber(ctx, ref.Number)
	} else {
		o, err = s.repo.FindByID(ctx, ref.ID)
	}
	if err != nil {
		return nil, err
	}
	if !actor.Staff && o.CustomerID != actor.UserID {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (s *Service) list(ctx context.Context, f shared.Filter) ([]OrderResponse, int64, error) {
	list, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderResponse, len(list))
	for i := range list {
		out[i] = ToOrderResponse(&list[i])
	}
	return out, total, nil
}

func (f ListFilter) toShared() shared.Filter {
	sf := shared.Filter{
		Page:     f.Page,
		PageSize: f.Limit,
		OrderBy:  shared.SortColumn(f.SortBy),
		OrderDir: f.SortOrder,
		Search:   f.Search,
		Filters:  map[string]any{},
	}
	if f.Status != "" {
		sf.Filters["status"] = f.Status
	}
	return sf.Normalize()
}

// Package alert implements the inventory alert use cases.
package alert

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/domain/alert"
	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Service handles inventory alert operations
type Service struct {
	repo   alert.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new alert service
func NewService(repo alert.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// List returns a page of alerts
func (s *Service) List(ctx context.Context, filter ListFilter) ([]AlertResponse, int64, error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.Limit,
		OrderBy:  shared.SortColumn(filter.SortBy),
		OrderDir: filter.SortOrder,
		Search:   filter.Search,
		Filters:  map[string]any{},
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.Severity != "" {
		f.Filters["severity"] = filter.Severity
	}
	if filter.AlertType != "" {
		f.Filters["alert_type"] = filter.AlertType
	}
	if filter.ProductID != nil {
		f.Filters["product_id"] = *filter.ProductID
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
	out := make([]AlertResponse, len(list))
	for i := range list {
		out[i] = ToAlertResponse(&list[i])
	}
	return out, total, nil
}

// Get returns one alert
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*AlertResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToAlertResponse(a)
	return &resp, nil
}

// Raise records a stock condition. An open alert of the same type for the
// product is refreshed instead of duplicated.
func (s *Service) Raise(ctx context.Context, req RaiseAlertRequest) (*AlertResponse, bool, error) {
	reading := alert.StockReading{
		ProductID:    req.ProductID,
		ProductName:  req.ProductName,
		ProductSku:   req.ProductSku,
		CurrentStock: req.CurrentStock,
		Threshold:    req.Threshold,
	}
	fresh, err := alert.NewAlert(reading, alert.Type(req.AlertType), alert.Severity(req.Severity), req.Message)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindOpenForProduct(ctx, req.ProductID, fresh.AlertType)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}
	if existing != nil {
		existing.CurrentStock = fresh.CurrentStock
		existing.Threshold = fresh.Threshold
		existing.Message = fresh.Message
		if err := existing.SetSeverity(fresh.Severity); err != nil {
			return nil, false, err
		}
		if err := s.repo.Save(ctx, existing); err != nil {
			return nil, false, err
		}
		resp := ToAlertResponse(existing)
		return &resp, false, nil
	}

	if err := s.repo.Save(ctx, fresh); err != nil {
		return nil, false, err
	}
	s.logger.Info("Inventory alert raised",
		zap.String("product_id", fresh.ProductID.String()),
		zap.String("type", string(fresh.AlertType)),
		zap.String("severity", string(fresh.Severity)))
	resp := ToAlertResponse(fresh)
	return &resp, true, nil
}

// Acknowledge marks an active alert as seen by userID
func (s *Service) Acknowledge(ctx context.Context, id, userID uuid.UUID) (*AlertResponse, error) {
	return s.mutate(ctx, id, func(a *alert.Alert) error { return a.Acknowledge(userID, s.now()) })
}

// Resolve closes an active or acknowledged alert
func (s *Service) Resolve(ctx context.Context, id, userID uuid.UUID, req NotesRequest) (*AlertResponse, error) {
	return s.mutate(ctx, id, func(a *alert.Alert) error { return a.Resolve(userID, req.Notes, s.now()) })
}

// Dismiss discards an active alert
func (s *Service) Dismiss(ctx context.Context, id uuid.UUID, req NotesRequest) (*AlertResponse, error) {
	return s.mutate(ctx, id, func(a *alert.Alert) error { return a.Dismiss(req.Notes) })
}

// UpdateSeverity overrides an open alert's severity
func (s *Service) UpdateSeverity(ctx context.Context, id uuid.UUID, req SeverityRequest) (*AlertResponse, error) {
	return s.mutate(ctx, id, func(a *alert.Alert) error { return a.SetSeverity(alert.Severity(req.Severity)) })
}

// Delete removes an alert
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Stats counts alerts by status, severity and type
func (s *Service) Stats(ctx context.Context) (*alert.Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*alert.Alert) error) (*AlertResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(a); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	resp := ToAlertResponse(a)
	return &resp, nil
}

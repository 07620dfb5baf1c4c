package alert

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/groow-sub007/internal/domain/alert"
	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// MockAlertRepository is a mock implementation of alert.Repository
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*alert.Alert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alert.Alert), args.Error(1)
}

func (m *MockAlertRepository) FindAll(ctx context.Context, filter shared.Filter) ([]alert.Alert, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]alert.Alert), args.Error(1)
}

func (m *MockAlertRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertRepository) FindOpenForProduct(ctx context.Context, productID uuid.UUID, alertType alert.Type) (*alert.Alert, error) {
	args := m.Called(ctx, productID, alertType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alert.Alert), args.Error(1)
}

func (m *MockAlertRepository) Save(ctx context.Context, a *alert.Alert) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAlertRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAlertRepository) Stats(ctx context.Context) (*alert.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alert.Stats), args.Error(1)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo alert.Repository) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func newTestAlert(t *testing.T) *alert.Alert {
	t.Helper()
	a, err := alert.NewAlert(alert.StockReading{
		ProductID:    uuid.New(),
		ProductName:  "Garden hose",
		ProductSku:   "GH-25",
		CurrentStock: 4,
		Threshold:    20,
	}, alert.TypeLowStock, "", "")
	require.NoError(t, err)
	return a
}

func TestService_Raise(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	req := RaiseAlertRequest{
		ProductID:    productID,
		ProductName:  "Garden hose",
		AlertType:    "low_stock",
		CurrentStock: 4,
		Threshold:    20,
	}

	t.Run("new alert", func(t *testing.T) {
		repo := new(MockAlertRepository)
		svc := newTestService(repo)
		repo.On("FindOpenForProduct", ctx, productID, alert.TypeLowStock).Return(nil, shared.ErrNotFound)
		repo.On("Save", ctx, mock.AnythingOfType("*alert.Alert")).Return(nil)

		resp, created, err := svc.Raise(ctx, req)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "active", resp.Status)
		assert.Equal(t, "high", resp.Severity)
		assert.Contains(t, resp.Message, "4 left")
		repo.AssertExpectations(t)
	})

	t.Run("refreshes open alert", func(t *testing.T) {
		repo := new(MockAlertRepository)
		svc := newTestService(repo)
		existing := newTestAlert(t)
		existing.ProductID = productID
		repo.On("FindOpenForProduct", ctx, productID, alert.TypeLowStock).Return(existing, nil)
		repo.On("Save", ctx, existing).Return(nil)

		refreshed := req
		refreshed.CurrentStock = 0
		resp, created, err := svc.Raise(ctx, refreshed)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing.ID, resp.ID)
		assert.Equal(t, 0, resp.CurrentStock)
		assert.Equal(t, "critical", resp.Severity)
	})

	t.Run("invalid type", func(t *testing.T) {
		repo := new(MockAlertRepository)
		svc := newTestService(repo)
		bad := req
		bad.AlertType = "meteor"
		_, _, err := svc.Raise(ctx, bad)
		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	repo := new(MockAlertRepository)
	svc := newTestService(repo)
	a := newTestAlert(t)
	repo.On("FindByID", ctx, a.ID).Return(a, nil)
	repo.On("Save", ctx, a).Return(nil)

	resp, err := svc.Acknowledge(ctx, a.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "acknowledged", resp.Status)
	require.NotNil(t, resp.AcknowledgedBy)
	assert.Equal(t, userID, *resp.AcknowledgedBy)
	assert.Equal(t, testNow, *resp.AcknowledgedAt)

	_, err = svc.Dismiss(ctx, a.ID, NotesRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	resp, err = svc.UpdateSeverity(ctx, a.ID, SeverityRequest{Severity: "critical"})
	require.NoError(t, err)
	assert.Equal(t, "critical", resp.Severity)

	resp, err = svc.Resolve(ctx, a.ID, userID, NotesRequest{Notes: "restocked"})
	require.NoError(t, err)
	assert.Equal(t, "resolved", resp.Status)
	assert.Equal(t, "restocked", resp.Notes)

	_, err = svc.Acknowledge(ctx, a.ID, userID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	_, err = svc.UpdateSeverity(ctx, a.ID, SeverityRequest{Severity: "low"})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestService_Dismiss(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAlertRepository)
	svc := newTestService(repo)
	a := newTestAlert(t)
	repo.On("FindByID", ctx, a.ID).Return(a, nil)
	repo.On("Save", ctx, a).Return(nil)

	resp, err := svc.Dismiss(ctx, a.ID, NotesRequest{Notes: "seasonal dip"})
	require.NoError(t, err)
	assert.Equal(t, "dismissed", resp.Status)
	assert.Equal(t, "seasonal dip", resp.Notes)
}

func TestService_ListAndStats(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAlertRepository)
	svc := newTestService(repo)

	expected := shared.Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "severity",
		OrderDir: "desc",
		Filters:  map[string]any{"status": "active", "severity": "high"},
	}
	repo.On("FindAll", ctx, expected).Return([]alert.Alert{*newTestAlert(t)}, nil)
	repo.On("Count", ctx, expected).Return(int64(1), nil)
	repo.On("Stats", ctx).Return(&alert.Stats{Total: 3}, nil)

	list, total, err := svc.List(ctx, ListFilter{Status: "active", Severity: "high", SortBy: "severity"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "GH-25", list[0].ProductSku)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	repo.AssertExpectations(t)
}

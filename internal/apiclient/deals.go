package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dealapp "github.com/destinpq/groow-sub007/internal/application/deal"
	"github.com/destinpq/groow-sub007/internal/envelope"
)

const dealsPath = "/marketing/deals"

// DealService covers /marketing/deals
type DealService struct {
	c *Client
}

func dealPath(id uuid.UUID, action string) string {
	p := dealsPath + "/" + id.String()
	if action != "" {
		p += "/" + action
	}
	return p
}

// List pages through deals. Filters: dealType, isActive, isFeatured.
func (s *DealService) List(ctx context.Context, params ListParams) (envelope.Page[dealapp.DealResponse], error) {
	return getPage[dealapp.DealResponse](ctx, s.c, dealsPath, params)
}

func (s *DealService) Active(ctx context.Context) ([]dealapp.DealResponse, error) {
	return getItems[dealapp.DealResponse](ctx, s.c, dealsPath+"/active", nil)
}

func (s *DealService) Featured(ctx context.Context) ([]dealapp.DealResponse, error) {
	return getItems[dealapp.DealResponse](ctx, s.c, dealsPath+"/featured", nil)
}

func (s *DealService) Get(ctx context.Context, id uuid.UUID) (*dealapp.DealResponse, error) {
	return s.one(ctx, http.MethodGet, dealPath(id, ""), nil)
}

func (s *DealService) Create(ctx context.Context, req dealapp.CreateDealRequest) (*dealapp.DealResponse, error) {
	return s.one(ctx, http.MethodPost, dealsPath, req)
}

func (s *DealService) Update(ctx context.Context, id uuid.UUID, req dealapp.UpdateDealRequest) (*dealapp.DealResponse, error) {
	return s.one(ctx, http.MethodPut, dealPath(id, ""), req)
}

func (s *DealService) SetStatus(ctx context.Context, id uuid.UUID, isActive bool) (*dealapp.DealResponse, error) {
	return s.one(ctx, http.MethodPut, dealPath(id, "status"), dealapp.SetStatusRequest{IsActive: &isActive})
}

func (s *DealService) SetFeatured(ctx context.Context, id uuid.UUID, isFeatured bool) (*dealapp.DealResponse, error) {
	return s.one(ctx, http.MethodPut, dealPath(id, "feature"), dealapp.SetFeaturedRequest{IsFeatured: &isFeatured})
}

func (s *DealService) Delete(ctx context.Context, id uuid.UUID) error {
	return sendNoContent(ctx, s.c, http.MethodDelete, dealPath(id, ""), nil)
}

func (s *DealService) Analytics(ctx context.Context, id uuid.UUID) (*dealapp.AnalyticsResponse, error) {
	out, err := getValue[dealapp.AnalyticsResponse](ctx, s.c, dealPath(id, "analytics"), nil)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Apply redeems the deal against an order and returns the discount
func (s *DealService) Apply(ctx context.Context, id uuid.UUID, orderID string, orderTotal decimal.Decimal) (*dealapp.ApplyResponse, error) {
	out, err := send[dealapp.ApplyResponse](ctx, s.c, http.MethodPost, dealPath(id, "apply"),
		dealapp.ApplyRequest{OrderID: orderID, OrderTotal: orderTotal})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DealService) one(ctx context.Context, method, path string, body any) (*dealapp.DealResponse, error) {
	out, err := send[dealapp.DealResponse](ctx, s.c, method, path, body)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	orderapp "github.com/destinpq/groow-sub007/internal/application/order"
	"github.com/destinpq/groow-sub007/internal/envelope"
)

// OrderService reads orders and their delivery tracking
type OrderService struct {
	c *Client
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*orderapp.OrderResponse, error) {
	return one[orderapp.OrderResponse](ctx, s.c, http.MethodGet, "/orders/"+id.String(), nil)
}

// MyOrders pages through the caller's own orders
func (s *OrderService) MyOrders(ctx context.Context, params ListParams) (envelope.Page[orderapp.OrderResponse], error) {
	return getPage[orderapp.OrderResponse](ctx, s.c, "/orders/my-orders", params)
}

// List pages through every order. Staff only.
func (s *OrderService) List(ctx context.Context, params ListParams) (envelope.Page[orderapp.OrderResponse], error) {
	return getPage[orderapp.OrderResponse](ctx, s.c, "/orders", params)
}

func (s *OrderService) Tracking(ctx context.Context, id uuid.UUID) (*orderapp.TrackingResponse, error) {
	return one[orderapp.TrackingResponse](ctx, s.c, http.MethodGet, "/orders/"+id.String()+"/tracking", nil)
}

func (s *OrderService) Place(ctx context.Context, req orderapp.PlaceOrderRequest) (*orderapp.OrderResponse, error) {
	return one[orderapp.OrderResponse](ctx, s.c, http.MethodPost, "/orders", req)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req orderapp.UpdateStatusRequest) (*orderapp.OrderResponse, error) {
	return one[orderapp.OrderResponse](ctx, s.c, http.MethodPatch, "/orders/"+id.String()+"/status", req)
}

package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	shippingapp "github.com/destinpq/groow-sub007/internal/application/shipping"
	"github.com/destinpq/groow-sub007/internal/envelope"
)

// ShippingService covers carriers, methods, zones and rate quotes
type ShippingService struct {
	c *Client
}

func (s *ShippingService) ListCarriers(ctx context.Context, params ListParams) (envelope.Page[shippingapp.CarrierResponse], error) {
	return getPage[shippingapp.CarrierResponse](ctx, s.c, "/shipping/carriers", params)
}

func (s *ShippingService) GetCarrier(ctx context.Context, id uuid.UUID) (*shippingapp.CarrierResponse, error) {
	return one[shippingapp.CarrierResponse](ctx, s.c, http.MethodGet, "/shipping/carriers/"+id.String(), nil)
}

func (s *ShippingService) CreateCarrier(ctx context.Context, req shippingapp.CarrierRequest) (*shippingapp.CarrierResponse, error) {
	return one[shippingapp.CarrierResponse](ctx, s.c, http.MethodPost, "/shipping/carriers", req)
}

func (s *ShippingService) UpdateCarrier(ctx context.Context, id uuid.UUID, req shippingapp.CarrierRequest) (*shippingapp.CarrierResponse, error) {
	return one[shippingapp.CarrierResponse](ctx, s.c, http.MethodPut, "/shipping/carriers/"+id.String(), req)
}

func (s *ShippingService) DeleteCarrier(ctx context.Context, id uuid.UUID) error {
	return sendNoContent(ctx, s.c, http.MethodDelete, "/shipping/carriers/"+id.String(), nil)
}

// ListMethods pages through methods. Filters: carrierId, serviceType, isActive.
func (s *ShippingService) ListMethods(ctx context.Context, params ListParams) (envelope.Page[shippingapp.MethodResponse], error) {
	return getPage[shippingapp.MethodResponse](ctx, s.c, "/shipping/methods", params)
}

func (s *ShippingService) GetMethod(ctx context.Context, id uuid.UUID) (*shippingapp.MethodResponse, error) {
	return one[shippingapp.MethodResponse](ctx, s.c, http.MethodGet, "/shipping/methods/"+id.String(), nil)
}

func (s *ShippingService) CreateMethod(ctx context.Context, req shippingapp.MethodRequest) (*shippingapp.MethodResponse, error) {
	return one[shippingapp.MethodResponse](ctx, s.c, http.MethodPost, "/shipping/methods", req)
}

func (s *ShippingService) UpdateMethod(ctx context.Context, id uuid.UUID, req shippingapp.MethodRequest) (*shippingapp.MethodResponse, error) {
	return one[shippingapp.MethodResponse](ctx, s.c, http.MethodPut, "/shipping/methods/"+id.String(), req)
}

func (s *ShippingService) DeleteMethod(ctx context.Context, id uuid.UUID) error {
	return sendNoContent(ctx, s.c, http.MethodDelete, "/shipping/methods/"+id.String(), nil)
}

func (s *ShippingService) ListZones(ctx context.Context, params ListParams) (envelope.Page[shippingapp.ZoneResponse], error) {
	return getPage[shippingapp.ZoneResponse](ctx, s.c, "/shipping/zones", params)
}

func (s *ShippingService) GetZone(ctx context.Context, id uuid.UUID) (*shippingapp.ZoneResponse, error) {
	return one[shippingapp.ZoneResponse](ctx, s.c, http.MethodGet, "/shipping/zones/"+id.String(), nil)
}

func (s *ShippingService) CreateZone(ctx context.Context, req shippingapp.ZoneRequest) (*shippingapp.ZoneResponse, error) {
	return one[shippingapp.ZoneResponse](ctx, s.c, http.MethodPost, "/shipping/zones", req)
}

func (s *ShippingService) UpdateZone(ctx context.Context, id uuid.UUID, req shippingapp.ZoneRequest) (*shippingapp.ZoneResponse, error) {
	return one[shippingapp.ZoneResponse](ctx, s.c, http.MethodPut, "/shipping/zones/"+id.String(), req)
}

func (s *ShippingService) DeleteZone(ctx context.Context, id uuid.UUID) error {
	return sendNoContent(ctx, s.c, http.MethodDelete, "/shipping/zones/"+id.String(), nil)
}

// Rates quotes every method that can ship to the destination
func (s *ShippingService) Rates(ctx context.Context, req shippingapp.RatesRequest) (*shippingapp.RatesResponse, error) {
	return one[shippingapp.RatesResponse](ctx, s.c, http.MethodPost, "/shipping/rates", req)
}

func one[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	out, err := send[T](ctx, c, method, path, body)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	flashsaleapp "github.com/destinpq/groow-sub007/internal/application/flashsale"
	"github.com/destinpq/groow-sub007/internal/domain/flashsale"
	"github.com/destinpq/groow-sub007/internal/envelope"
)

const flashSalesPath = "/flash-sales/service-campaigns"

// FlashSaleService covers /flash-sales/service-campaigns
type FlashSaleService struct {
	c *Client
}

func flashSalePath(id uuid.UUID, action string) string {
	p := flashSalesPath + "/" + id.String()
	if action != "" {
		p += "/" + action
	}
	return p
}

// List pages through campaigns. Filters: status, campaignType, isFeatured.
func (s *FlashSaleService) List(ctx context.Context, params ListParams) (envelope.Page[flashsaleapp.FlashSaleResponse], error) {
	return getPage[flashsaleapp.FlashSaleResponse](ctx, s.c, flashSalesPath, params)
}

// Search matches title, description or campaign code
func (s *FlashSaleService) Search(ctx context.Context, q string, params ListParams) (envelope.Page[flashsaleapp.FlashSaleResponse], error) {
	if params.Filters == nil {
		params.Filters = map[string]string{}
	}
	params.Filters["q"] = q
	return getPage[flashsaleapp.FlashSaleResponse](ctx, s.c, flashSalesPath+"/search", params)
}

func (s *FlashSaleService) Get(ctx context.Context, id uuid.UUID) (*flashsaleapp.FlashSaleResponse, error) {
	return s.one(ctx, http.MethodGet, flashSalePath(id, ""), nil)
}

func (s *FlashSaleService) Create(ctx context.Context, req flashsaleapp.CreateFlashSaleRequest) (*flashsaleapp.FlashSaleResponse, error) {
	return s.one(ctx, http.MethodPost, flashSalesPath, req)
}

func (s *FlashSaleService) Update(ctx context.Context, id uuid.UUID, req flashsaleapp.UpdateFlashSaleRequest) (*flashsaleapp.FlashSaleResponse, error) {
	return s.one(ctx, http.MethodPut, flashSalePath(id, ""), req)
}

func (s *FlashSaleService) Delete(ctx context.Context, id uuid.UUID) error {
	return sendNoContent(ctx, s.c, http.MethodDelete, flashSalePath(id, ""), nil)
}

func (s *FlashSaleService) Schedule(ctx context.Context, id uuid.UUID) (*flashsaleapp.FlashSaleResponse, error) {
	return s.one(ctx, http.MethodPost, flashSalePath(id, "schedule"), nil)
}

func (s *FlashSaleService) Start(ctx context.Context, id uuid.UUID) (*flashsaleapp.FlashSaleResponse, error) {
	return s.one(ctx, http.MethodPost, flashSalePath(id, "start"), nil)
}

func (s *FlashSaleService) Pause(ctx context.Context, id uuid.UUID) (*flashsaleapp.FlashSaleResponse, error) {
	return s.one(ctx, http.MethodPost, flashSalePath(id, "pause"), nil)
}

func (s *FlashSaleService) Resume(ctx context.Context, id uuid.UUID) (*flashsaleapp.FlashSaleResponse, error) {
	return s.one(ctx, http.MethodPost, flashSalePath(id, "resume"), nil)
}

func (s *FlashSaleService) End(ctx context.Context, id uuid.UUID) (*flashsaleapp.FlashSaleResponse, error) {
	return s.one(ctx, http.MethodPost, flashSalePath(id, "end"), nil)
}

func (s *FlashSaleService) Cancel(ctx context.Context, id uuid.UUID) (*flashsaleapp.FlashSaleResponse, error) {
	return s.one(ctx, http.MethodPost, flashSalePath(id, "cancel"), nil)
}

// Extend pushes the end time out by minutes
func (s *FlashSaleService) Extend(ctx context.Context, id uuid.UUID, minutes int) (*flashsaleapp.FlashSaleResponse, error) {
	return s.one(ctx, http.MethodPost, flashSalePath(id, "extend"), flashsaleapp.ExtendRequest{Minutes: minutes})
}

// Duplicate copies a campaign into a new draft
func (s *FlashSaleService) Duplicate(ctx context.Context, id uuid.UUID) (*flashsaleapp.FlashSaleResponse, error) {
	return s.one(ctx, http.MethodPost, flashSalePath(id, "duplicate"), nil)
}

// Reserve holds quantity units for the caller
func (s *FlashSaleService) Reserve(ctx context.Context, id uuid.UUID, quantity int) (*flashsaleapp.ReservationResponse, error) {
	out, err := send[flashsaleapp.ReservationResponse](ctx, s.c, http.MethodPost, flashSalePath(id, "reserve"),
		flashsaleapp.ReserveRequest{Quantity: quantity})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Quote prices an order value against the campaign without reserving stock
func (s *FlashSaleService) Quote(ctx context.Context, id uuid.UUID, orderValue decimal.Decimal) (*flashsaleapp.DiscountQuote, error) {
	return one[flashsaleapp.DiscountQuote](ctx, s.c, http.MethodPost, flashSalePath(id, "quote"),
		map[string]decimal.Decimal{"orderValue": orderValue})
}

// Active lists campaigns that are live right now
func (s *FlashSaleService) Active(ctx context.Context) ([]flashsaleapp.FlashSaleResponse, error) {
	return getItems[flashsaleapp.FlashSaleResponse](ctx, s.c, flashSalesPath+"/active", nil)
}

// Upcoming lists campaigns starting within hours
func (s *FlashSaleService) Upcoming(ctx context.Context, hours int) ([]flashsaleapp.FlashSaleResponse, error) {
	q := url.Values{}
	if hours > 0 {
		q.Set("hours", fmt.Sprint(hours))
	}
	return getItems[flashsaleapp.FlashSaleResponse](ctx, s.c, flashSalesPath+"/upcoming", q)
}

// Countdown returns the live countdown snapshot
func (s *FlashSaleService) Countdown(ctx context.Context, id uuid.UUID) (flashsale.Countdown, error) {
	return getValue[flashsale.Countdown](ctx, s.c, flashSalePath(id, "countdown"), nil)
}

func (s *FlashSaleService) one(ctx context.Context, method, path string, body any) (*flashsaleapp.FlashSaleResponse, error) {
	out, err := send[flashsaleapp.FlashSaleResponse](ctx, s.c, method, path, body)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

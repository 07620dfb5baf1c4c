package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/destinpq/groow-sub007/internal/domain/order"
)

// Actor is the authenticated caller
type Actor struct {
	UserID uuid.UUID
	Staff  bool
}

// PlaceOrderRequest records an order in the tracking read model
type PlaceOrderRequest struct {
	Number          string          `json:"orderNumber" binding:"required,min=1,max=40"`
	CustomerID      uuid.UUID       `json:"customerId" binding:"required"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency" binding:"omitempty,len=3"`
	ItemCount       int             `json:"itemCount" binding:"min=0"`
	ShippingCity    string          `json:"shippingCity" binding:"max=100"`
	ShippingCountry string          `json:"shippingCountry" binding:"omitempty,len=2"`
}

// UpdateStatusRequest is the body of PATCH /orders/:id/status
type UpdateStatusRequest struct {
	Status            string     `json:"status" binding:"required,oneof=confirmed processing shipped out_for_delivery delivered cancelled"`
	Location          string     `json:"location" binding:"max=200"`
	Description       string     `json:"description" binding:"max=2000"`
	Carrier           string     `json:"carrier" binding:"max=100"`
	TrackingNumber    string     `json:"trackingNumber" binding:"max=100"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// ListFilter holds list query parameters
type ListFilter struct {
	Status    string `form:"status" binding:"omitempty,oneof=placed confirmed processing shipped out_for_delivery delivered cancelled"`
	Search    string `form:"search"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// OrderResponse is the API view of an order
type OrderResponse struct {
	ID                uuid.UUID       `json:"id"`
	Number            string          `json:"orderNumber"`
	CustomerID        uuid.UUID       `json:"customerId"`
	Status            string          `json:"status"`
	Total             decimal.Decimal `json:"total"`
	Currency          string          `json:"currency"`
	ItemCount         int             `json:"itemCount"`
	Carrier           string          `json:"carrier,omitempty"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	ShippingCity      string          `json:"shippingCity,omitempty"`
	ShippingCountry   string          `json:"shippingCountry,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	DeliveredAt       *time.Time      `json:"deliveredAt,omitempty"`
	Progress          int             `json:"progress"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// TrackingEventResponse is one tracking update
type TrackingEventResponse struct {
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// TrackingResponse is the customer-facing tracking view
type TrackingResponse struct {
	OrderID           uuid.UUID               `json:"orderId"`
	OrderNumber       string                  `json:"orderNumber"`
	Status            string                  `json:"status"`
	Carrier           string                  `json:"carrier"`
	TrackingNumber    string                  `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time              `json:"estimatedDelivery,omitempty"`
	DeliveredAt       *time.Time              `json:"deliveredAt,omitempty"`
	Progress          int                     `json:"progress"`
	Updates           []TrackingEventResponse `json:"updates"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		ID:                o.ID,
		Number:            o.Number,
		CustomerID:        o.CustomerID,
		Status:            string(o.Status),
		Total:             o.Total,
		Currency:          o.Currency,
		ItemCount:         o.ItemCount,
		Carrier:           o.Carrier,
		TrackingNumber:    o.TrackingNumber,
		ShippingCity:      o.ShippingCity,
		ShippingCountry:   o.ShippingCountry,
		EstimatedDelivery: o.EstimatedDelivery,
		DeliveredAt:       o.DeliveredAt,
		Progress:          o.Progress(),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// ToTrackingResponse converts the domain tracking view
func ToTrackingResponse(t order.Tracking) TrackingResponse {
	updates := make([]TrackingEventResponse, len(t.Updates))
	for i, e := range t.Updates {
		updates[i] = TrackingEventResponse{
			Status:      string(e.Status),
			Location:    e.Location,
			Description: e.Description,
			Timestamp:   e.OccurredAt,
		}
	}
	return TrackingResponse{
		OrderID:           t.OrderID,
		OrderNumber:       t.OrderNumber,
		Status:            string(t.Status),
		Carrier:           t.Carrier,
		TrackingNumber:    t.TrackingNumber,
		EstimatedDelivery: t.EstimatedDelivery,
		DeliveredAt:       t.DeliveredAt,
		Progress:          t.Progress,
		Updates:           updates,
	}
}

package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// Status is a fulfilment milestone
type Status string

const (
	StatusPlaced         Status = "placed"
	StatusConfirmed      Status = "confirmed"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// progression lists the forward milestones in order
var progression = []Status{
	StatusPlaced, StatusConfirmed, StatusProcessing, StatusShipped, StatusOutForDelivery, StatusDelivered,
}

func (s Status) rank() int {
	for i, p := range progression {
		if p == s {
			return i
		}
	}
	return -1
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	return s == StatusCancelled || s.rank() >= 0
}

// Order is the read model used for customer-facing tracking
type Order struct {
	shared.BaseAggregateRoot
	Number            string          `gorm:"type:varchar(40);not null;uniqueIndex"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status            Status          `gorm:"type:varchar(30);not null;index"`
	Total             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'USD'"`
	ItemCount         int             `gorm:"not null;default:0"`
	Carrier           string          `gorm:"type:varchar(100)"`
	TrackingNumber    string          `gorm:"type:varchar(100);index"`
	ShippingCity      string          `gorm:"type:varchar(100)"`
	ShippingCountry   string          `gorm:"type:varchar(2)"`
	EstimatedDelivery *time.Time
	DeliveredAt       *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// TrackingEvent is one step in an order's journey
type TrackingEvent struct {
	shared.BaseEntity
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Status      Status    `gorm:"type:varchar(30);not null"`
	Location    string    `gorm:"type:varchar(200)"`
	Description string    `gorm:"type:text"`
	OccurredAt  time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (TrackingEvent) TableName() string {
	return "order_tracking_events"
}

// NewOrder places an order and returns its first tracking event
func NewOrder(number string, customerID uuid.UUID, total decimal.Decimal, items int, now time.Time) (*Order, *TrackingEvent, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if total.IsNegative() || items < 0 {
		return nil, nil, shared.NewDomainError("INVALID_INPUT", "Total and item count cannot be negative")
	}
	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		CustomerID:        customerID,
		Status:            StatusPlaced,
		Total:             total,
		Currency:          "USD",
		ItemCount:         items,
	}
	return o, o.event(StatusPlaced, "", "Order placed", now), nil
}

// Ship attaches carrier details and moves the order to shipped
func (o *Order) Ship(carrier, trackingNumber string, eta *time.Time, now time.Time) (*TrackingEvent, error) {
	if strings.TrimSpace(carrier) == "" || strings.TrimSpace(trackingNumber) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Carrier and tracking number are required")
	}
	o.Carrier = carrier
	o.TrackingNumber = trackingNumber
	o.EstimatedDelivery = eta
	return o.Advance(StatusShipped, "", fmt.Sprintf("Handed to %s", carrier), now)
}

// Advance moves the order forward. Milestones cannot be revisited and
// cancellation is only possible before shipping.
func (o *Order) Advance(to Status, location, description string, now time.Time) (*TrackingEvent, error) {
	if !to.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", to))
	}
	if o.Status == StatusCancelled || o.Status == StatusDelivered {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Order is already %s", o.Status))
	}
	if to == StatusCancelled {
		if o.Status.rank() >= StatusShipped.rank() {
			return nil, shared.NewDomainError("INVALID_STATE", "Shipped orders cannot be cancelled")
		}
	} else if to.rank() <= o.Status.rank() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order from %s to %s", o.Status, to))
	}

	o.Status = to
	if to == StatusDelivered {
		o.DeliveredAt = &now
	}
	o.Touch()
	o.IncrementVersion()
	if description == "" {
		description = describe(to)
	}
	return o.event(to, location, description, now), nil
}

func (o *Order) event(s Status, location, description string, now time.Time) *TrackingEvent {
	return &TrackingEvent{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     o.ID,
		Status:      s,
		Location:    location,
		Description: description,
		OccurredAt:  now,
	}
}

func describe(s Status) string {
	switch s {
	case StatusConfirmed:
		return "Order confirmed"
	case StatusProcessing:
		return "Preparing your order"
	case StatusShipped:
		return "Order shipped"
	case StatusOutForDelivery:
		return "Out for delivery"
	case StatusDelivered:
		return "Delivered"
	case StatusCancelled:
		return "Order cancelled"
	}
	return string(s)
}

// Progress is the share of milestones reached, 0-100
func (o *Order) Progress() int {
	if o.Status == StatusCancelled {
		return 0
	}
	r := o.Status.rank()
	if r < 0 {
		return 0
	}
	return r * 100 / (len(progression) - 1)
}

// Tracking is the customer-facing tracking view
type Tracking struct {
	OrderID           uuid.UUID       `json:"orderId"`
	OrderNumber       string          `json:"orderNumber"`
	Status            Status          `json:"status"`
	Carrier           string          `json:"carrier"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	DeliveredAt       *time.Time      `json:"deliveredAt,omitempty"`
	Progress          int             `json:"progress"`
	Updates           []TrackingEvent `json:"updates"`
}

// Tracking builds the tracking view; updates are listed newest first
func (o *Order) Tracking(events []TrackingEvent) Tracking {
	updates := make([]TrackingEvent, len(events))
	copy(updates, events)
	for i, j := 0, len(updates)-1; i < j; i, j = i+1, j-1 {
		updates[i], updates[j] = updates[j], updates[i]
	}
	return Tracking{
		OrderID:           o.ID,
		OrderNumber:       o.Number,
		Status:            o.Status,
		Carrier:           o.Carrier,
		TrackingNumber:    o.TrackingNumber,
		EstimatedDelivery: o.EstimatedDelivery,
		DeliveredAt:       o.DeliveredAt,
		Progress:          o.Progress(),
		Updates:           updates,
	}
}

// Ref identifies an order by ID or by order number
type Ref struct {
	ID     uuid.UUID
	Number string
}

// ParseRef accepts either a UUID or an order number
func ParseRef(idOrNumber string) Ref {
	idOrNumber = strings.TrimSpace(idOrNumber)
	if id, err := uuid.Parse(idOrNumber); err == nil {
		return Ref{ID: id}
	}
	return Ref{Number: idOrNumber}
}

package deal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/destinpq/groow-sub007/internal/domain/deal"
)

// CreateDealRequest is the body for creating a deal
type CreateDealRequest struct {
	Title       string          `json:"title" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=5000"`
	Type        string          `json:"type" binding:"required,oneof=percentage fixed buy-x-get-y bundle flash-sale"`
	Value       decimal.Decimal `json:"value"`
	MinPurchase decimal.Decimal `json:"minPurchase"`
	MaxDiscount decimal.Decimal `json:"maxDiscount"`
	StartDate   time.Time       `json:"startDate" binding:"required"`
	EndDate     time.Time       `json:"endDate" binding:"required,gtfield=StartDate"`
	UsageLimit  int             `json:"usageLimit" binding:"min=0"`
	IsFeatured  bool            `json:"isFeatured"`
	Priority    int             `json:"priority"`
	Stackable   bool            `json:"stackable"`
	AutoApply   bool            `json:"autoApply"`
	Tags        []string        `json:"tags" binding:"omitempty,max=20,dive,max=50"`
}

// UpdateDealRequest replaces a deal's terms
type UpdateDealRequest = CreateDealRequest

// SetStatusRequest is the body of PUT :id/status
type SetStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// SetFeaturedRequest is the body of PUT :id/feature
type SetFeaturedRequest struct {
	IsFeatured *bool `json:"isFeatured" binding:"required"`
}

// ApplyRequest is the body of POST :id/apply
type ApplyRequest struct {
	OrderID    string          `json:"orderId" binding:"required,max=100"`
	OrderTotal decimal.Decimal `json:"orderTotal"`
}

// ListFilter holds list query parameters
type ListFilter struct {
	Search     string `form:"search"`
	DealType   string `form:"dealType" binding:"omitempty,oneof=percentage fixed buy-x-get-y bundle flash-sale"`
	IsActive   *bool  `form:"isActive"`
	IsFeatured *bool  `form:"isFeatured"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// DealResponse is the API view of a deal
type DealResponse struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Type          string          `json:"type"`
	Value         decimal.Decimal `json:"value"`
	MinPurchase   decimal.Decimal `json:"minPurchase"`
	MaxDiscount   decimal.Decimal `json:"maxDiscount"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	UsageLimit    int             `json:"usageLimit"`
	UsageCount    int             `json:"usageCount"`
	RemainingUses int             `json:"remainingUses"`
	IsActive      bool            `json:"isActive"`
	IsRunning     bool            `json:"isRunning"`
	IsFeatured    bool            `json:"isFeatured"`
	Priority      int             `json:"priority"`
	Stackable     bool            `json:"stackable"`
	AutoApply     bool            `json:"autoApply"`
	Tags          []string        `json:"tags"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// AnalyticsResponse adds identity to the usage statistics
type AnalyticsResponse struct {
	DealID uuid.UUID `json:"dealId"`
	Title  string    `json:"title"`
	deal.Analytics
}

// ApplyResponse reports the discount granted on an order
type ApplyResponse struct {
	DealID        uuid.UUID       `json:"dealId"`
	OrderID       string          `json:"orderId"`
	OrderTotal    decimal.Decimal `json:"orderTotal"`
	Discount      decimal.Decimal `json:"discount"`
	FinalTotal    decimal.Decimal `json:"finalTotal"`
	RemainingUses int             `json:"remainingUses"`
}

// ToDealResponse converts a domain deal as seen at now
func ToDealResponse(d *deal.Deal, now time.Time) DealResponse {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return DealResponse{
		ID:            d.ID,
		Title:         d.Title,
		Description:   d.Description,
		Type:          string(d.Type),
		Value:         d.Value,
		MinPurchase:   d.MinPurchase,
		MaxDiscount:   d.MaxDiscount,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		UsageLimit:    d.UsageLimit,
		UsageCount:    d.UsageCount,
		RemainingUses: d.RemainingUses(),
		IsActive:      d.IsActive,
		IsRunning:     d.IsRunning(now),
		IsFeatured:    d.IsFeatured,
		Priority:      d.Priority,
		Stackable:     d.Stackable,
		AutoApply:     d.AutoApply,
		Tags:          tags,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func toDealResponses(list []deal.Deal, now time.Time) []DealResponse {
	out := make([]DealResponse, len(list))
	for i := range list {
		out[i] = ToDealResponse(&list[i], now)
	}
	return out
}

func (r CreateDealRequest) terms() deal.Terms {
	return deal.Terms{
		Type:        deal.Type(r.Type),
		Value:       r.Value,
		MinPurchase: r.MinPurchase,
		MaxDiscount: r.MaxDiscount,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		UsageLimit:  r.UsageLimit,
	}
}

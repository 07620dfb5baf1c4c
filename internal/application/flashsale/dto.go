package flashsale

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/destinpq/groow-sub007/internal/domain/flashsale"
)

// DiscountTierDTO is one tier of a tiered campaign
type DiscountTierDTO struct {
	Threshold     decimal.Decimal `json:"threshold"`
	DiscountType  string          `json:"discountType" binding:"required,oneof=percentage fixed_amount"`
	DiscountValue decimal.Decimal `json:"discountValue"`
}

// CreateFlashSaleRequest is the body for creating a campaign
type CreateFlashSaleRequest struct {
	CampaignCode           string            `json:"campaignCode" binding:"omitempty,max=50,code"`
	Title                  string            `json:"title" binding:"required,min=1,max=200"`
	Description            string            `json:"description" binding:"max=5000"`
	CampaignType           string            `json:"campaignType" binding:"omitempty,max=30"`
	StartTime              time.Time         `json:"startTime" binding:"required"`
	EndTime                time.Time         `json:"endTime" binding:"required,gtfield=StartTime"`
	DiscountType           string            `json:"discountType" binding:"required,oneof=percentage fixed_amount tiered"`
	DiscountValue          decimal.Decimal   `json:"discountValue"`
	Tiers                  []DiscountTierDTO `json:"tiers" binding:"omitempty,dive"`
	MaxDiscountAmount      *decimal.Decimal  `json:"maxDiscountAmount"`
	MinOrderValue          *decimal.Decimal  `json:"minOrderValue"`
	TotalInventory         int               `json:"totalInventory" binding:"min=0"`
	MaxQuantityPerCustomer int               `json:"maxQuantityPerCustomer" binding:"min=0"`
	Priority               int               `json:"priority"`
	IsFeatured             bool              `json:"isFeatured"`
	ShowCountdown          *bool             `json:"showCountdown"`
	AutoStart              *bool             `json:"autoStart"`
	AutoEnd                *bool             `json:"autoEnd"`
}

// UpdateFlashSaleRequest changes a campaign; nil fields are left alone
type UpdateFlashSaleRequest struct {
	Title                  *string           `json:"title" binding:"omitempty,min=1,max=200"`
	Description            *string           `json:"description" binding:"omitempty,max=5000"`
	Priority               *int              `json:"priority"`
	IsFeatured             *bool             `json:"isFeatured"`
	ShowCountdown          *bool             `json:"showCountdown"`
	StartTime              *time.Time        `json:"startTime"`
	EndTime                *time.Time        `json:"endTime"`
	DiscountType           *string           `json:"discountType" binding:"omitempty,oneof=percentage fixed_amount tiered"`
	DiscountValue          *decimal.Decimal  `json:"discountValue"`
	Tiers                  []DiscountTierDTO `json:"tiers" binding:"omitempty,dive"`
	TotalInventory         *int              `json:"totalInventory" binding:"omitempty,min=0"`
	MaxQuantityPerCustomer *int              `json:"maxQuantityPerCustomer" binding:"omitempty,min=0"`
	MaxDiscountAmount      *decimal.Decimal  `json:"maxDiscountAmount"`
	MinOrderValue          *decimal.Decimal  `json:"minOrderValue"`
	AutoStart              *bool             `json:"autoStart"`
	AutoEnd                *bool             `json:"autoEnd"`
}

// ExtendRequest is the body of POST :id/extend
type ExtendRequest struct {
	Minutes int `json:"minutes" binding:"required,min=1,max=10080"`
}

// ReserveRequest is the body of POST :id/reserve
type ReserveRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ListFilter holds list query parameters
type ListFilter struct {
	Status       string `form:"status" binding:"omitempty,oneof=draft scheduled queued active paused ended cancelled expired"`
	CampaignType string `form:"campaignType"`
	Featured     *bool  `form:"isFeatured"`
	Search       string `form:"search"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy       string `form:"sortBy"`
	SortOrder    string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// FlashSaleResponse is the API view of a campaign
type FlashSaleResponse struct {
	ID                     uuid.UUID         `json:"id"`
	CampaignCode           string            `json:"campaignCode"`
	Title                  string            `json:"title"`
	Description            string            `json:"description"`
	CampaignType           string            `json:"campaignType"`
	Status                 string            `json:"status"`
	StoredStatus           string            `json:"storedStatus"`
	StartTime              time.Time         `json:"startTime"`
	EndTime                time.Time         `json:"endTime"`
	ActualStartTime        *time.Time        `json:"actualStartTime,omitempty"`
	ActualEndTime          *time.Time        `json:"actualEndTime,omitempty"`
	DiscountType           string            `json:"discountType"`
	DiscountValue          decimal.Decimal   `json:"discountValue"`
	Tiers                  []DiscountTierDTO `json:"tiers"`
	MaxDiscountAmount      decimal.Decimal   `json:"maxDiscountAmount"`
	MinOrderValue          decimal.Decimal   `json:"minOrderValue"`
	TotalInventory         int               `json:"totalInventory"`
	SoldQuantity           int               `json:"soldQuantity"`
	ReservedQuantity       int               `json:"reservedQuantity"`
	RemainingQuantity      int               `json:"remainingQuantity"`
	SoldPercent            float64           `json:"soldPercent"`
	MaxQuantityPerCustomer int               `json:"maxQuantityPerCustomer"`
	Priority               int               `json:"priority"`
	IsFeatured             bool              `json:"isFeatured"`
	ShowCountdown          bool              `json:"showCountdown"`
	AutoStart              bool              `json:"autoStart"`
	AutoEnd                bool              `json:"autoEnd"`
	CreatedAt              time.Time         `json:"createdAt"`
	UpdatedAt              time.Time         `json:"updatedAt"`
	Version                int               `json:"version"`
}

// ReservationResponse reports the campaign stock after a reservation
type ReservationResponse struct {
	FlashSaleID       uuid.UUID `json:"flashSaleId"`
	Quantity          int       `json:"quantity"`
	ReservedQuantity  int       `json:"reservedQuantity"`
	RemainingQuantity int       `json:"remainingQuantity"`
}

// DiscountQuote is the discount a campaign grants on an order value
type DiscountQuote struct {
	FlashSaleID uuid.UUID       `json:"flashSaleId"`
	OrderValue  decimal.Decimal `json:"orderValue"`
	Discount    decimal.Decimal `json:"discount"`
	FinalPrice  decimal.Decimal `json:"finalPrice"`
	Live        bool            `json:"live"`
}

// SweepResult counts what one automation pass changed
type SweepResult struct {
	Started int `json:"started"`
	Ended   int `json:"ended"`
	Failed  int `json:"failed"`
}

// ToFlashSaleResponse converts a domain campaign as seen at now
func ToFlashSaleResponse(fs *flashsale.FlashSale, now time.Time) FlashSaleResponse {
	tiers := make([]DiscountTierDTO, len(fs.Tiers))
	for i, t := range fs.Tiers {
		tiers[i] = DiscountTierDTO{
			Threshold:     t.Threshold,
			DiscountType:  string(t.DiscountType),
			DiscountValue: t.DiscountValue,
		}
	}
	return FlashSaleResponse{
		ID:                     fs.ID,
		CampaignCode:           fs.CampaignCode,
		Title:                  fs.Title,
		Description:            fs.Description,
		CampaignType:           string(fs.CampaignType),
		Status:                 string(fs.EffectiveStatus(now)),
		StoredStatus:           string(fs.Status),
		StartTime:              fs.StartTime,
		EndTime:                fs.EndTime,
		ActualStartTime:        fs.ActualStartTime,
		ActualEndTime:          fs.ActualEndTime,
		DiscountType:           string(fs.DiscountType),
		DiscountValue:          fs.DiscountValue,
		Tiers:                  tiers,
		MaxDiscountAmount:      fs.MaxDiscountAmount,
		MinOrderValue:          fs.MinOrderValue,
		TotalInventory:         fs.TotalInventory,
		SoldQuantity:           fs.SoldQuantity,
		ReservedQuantity:       fs.ReservedQuantity,
		RemainingQuantity:      fs.RemainingQuantity(),
		SoldPercent:            fs.SoldPercent(),
		MaxQuantityPerCustomer: fs.MaxQuantityPerCustomer,
		Priority:               fs.Priority,
		IsFeatured:             fs.IsFeatured,
		ShowCountdown:          fs.ShowCountdown,
		AutoStart:              fs.AutoStart,
		AutoEnd:                fs.AutoEnd,
		CreatedAt:              fs.CreatedAt,
		UpdatedAt:              fs.UpdatedAt,
		Version:                fs.Version,
	}
}

// ToFlashSaleResponses converts a slice
func ToFlashSaleResponses(list []flashsale.FlashSale, now time.Time) []FlashSaleResponse {
	out := make([]FlashSaleResponse, len(list))
	for i := range list {
		out[i] = ToFlashSaleResponse(&list[i], now)
	}
	return out
}

func toDomainTiers(in []DiscountTierDTO) []flashsale.DiscountTier {
	if len(in) == 0 {
		return nil
	}
	out := make([]flashsale.DiscountTier, len(in))
	for i, t := range in {
		out[i] = flashsale.DiscountTier{
			Threshold:     t.Threshold,
			DiscountType:  flashsale.DiscountType(t.DiscountType),
			DiscountValue: t.DiscountValue,
		}
	}
	return out
}

package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
	"github.com/destinpq/groow-sub007/internal/domain/shipping"
)

// CarrierRequest creates or replaces a carrier
type CarrierRequest struct {
	Code                  string   `json:"code" binding:"required,min=1,max=30"`
	Name                  string   `json:"name" binding:"required,min=1,max=100"`
	IsActive              *bool    `json:"isActive"`
	TrackingEnabled       bool     `json:"trackingEnabled"`
	InternationalShipping bool     `json:"internationalShipping"`
	SupportedCountries    []string `json:"supportedCountries" binding:"omitempty,dive,len=2"`
}

// MethodRequest creates or replaces a shipping method
type MethodRequest struct {
	CarrierID             uuid.UUID       `json:"carrierId" binding:"required"`
	Code                  string          `json:"code" binding:"required,min=1,max=30"`
	Name                  string          `json:"name" binding:"required,min=1,max=100"`
	Description           string          `json:"description"`
	ServiceType           string          `json:"serviceType" binding:"required,oneof=economy standard express overnight"`
	MinDays               int             `json:"minDays" binding:"min=0"`
	MaxDays               int             `json:"maxDays" binding:"min=0,gtefield=MinDays"`
	BaseRate              decimal.Decimal `json:"baseRate"`
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
	WeightMultiplier      decimal.Decimal `json:"weightMultiplier"`
	MinimumCharge         decimal.Decimal `json:"minimumCharge"`
	MaximumCharge         decimal.Decimal `json:"maximumCharge"`
	MaxWeightKg           decimal.Decimal `json:"maxWeightKg"`
	AvailableZones        []uuid.UUID     `json:"availableZones"`
	IsActive              *bool           `json:"isActive"`
}

// ZoneRequest creates or replaces a zone
type ZoneRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=100"`
	Description string   `json:"description"`
	Countries   []string `json:"countries" binding:"required,min=1,dive,len=2"`
	IsActive    *bool    `json:"isActive"`
	Priority    int      `json:"priority"`
}

// RatesRequest is the body of POST /shipping/rates
type RatesRequest struct {
	Country    string          `json:"country" binding:"required,len=2"`
	WeightKg   decimal.Decimal `json:"weightKg"`
	OrderTotal decimal.Decimal `json:"orderTotal"`
}

// ListFilter holds list query parameters shared by the shipping catalogs
type ListFilter struct {
	Search    string     `form:"search"`
	IsActive  *bool      `form:"isActive"`
	CarrierID *uuid.UUID `form:"carrierId"`
	Service   string     `form:"serviceType" binding:"omitempty,oneof=economy standard express overnight"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	Limit     int        `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy    string     `form:"sortBy"`
	SortOrder string     `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// CarrierResponse is the API view of a carrier
type CarrierResponse struct {
	ID                    uuid.UUID `json:"id"`
	Code                  string    `json:"code"`
	Name                  string    `json:"name"`
	IsActive              bool      `json:"isActive"`
	TrackingEnabled       bool      `json:"trackingEnabled"`
	InternationalShipping bool      `json:"internationalShipping"`
	SupportedCountries    []string  `json:"supportedCountries"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// MethodResponse is the API view of a shipping method
type MethodResponse struct {
	ID                    uuid.UUID       `json:"id"`
	CarrierID             uuid.UUID       `json:"carrierId"`
	Code                  string          `json:"code"`
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	ServiceType           string          `json:"serviceType"`
	MinDays               int             `json:"minDays"`
	MaxDays               int             `json:"maxDays"`
	BaseRate              decimal.Decimal `json:"baseRate"`
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
	WeightMultiplier      decimal.Decimal `json:"weightMultiplier"`
	MinimumCharge         decimal.Decimal `json:"minimumCharge"`
	MaximumCharge         decimal.Decimal `json:"maximumCharge"`
	MaxWeightKg           decimal.Decimal `json:"maxWeightKg"`
	AvailableZones        []uuid.UUID     `json:"availableZones"`
	IsActive              bool            `json:"isActive"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// ZoneResponse is the API view of a zone
type ZoneResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Countries   []string  `json:"countries"`
	IsActive    bool      `json:"isActive"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RatesResponse lists the priced options for a parcel
type RatesResponse struct {
	Country string          `json:"country"`
	Rates   []shipping.Rate `json:"rates"`
	Count   int             `json:"count"`
}

// ToCarrierResponse converts a domain carrier
func ToCarrierResponse(c *shipping.Carrier) CarrierResponse {
	countries := c.SupportedCountries
	if countries == nil {
		countries = []string{}
	}
	return CarrierResponse{
		ID:                    c.ID,
		Code:                  c.Code,
		Name:                  c.Name,
		IsActive:              c.IsActive,
		TrackingEnabled:       c.TrackingEnabled,
		InternationalShipping: c.InternationalShipping,
		SupportedCountries:    countries,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

// ToMethodResponse converts a domain method
func ToMethodResponse(m *shipping.Method) MethodResponse {
	zones := m.AvailableZones
	if zones == nil {
		zones = []uuid.UUID{}
	}
	return MethodResponse{
		ID:                    m.ID,
		CarrierID:             m.CarrierID,
		Code:                  m.Code,
		Name:                  m.Name,
		Description:           m.Description,
		ServiceType:           string(m.ServiceType),
		MinDays:               m.MinDays,
		MaxDays:               m.MaxDays,
		BaseRate:              m.BaseRate,
		FreeShippingThreshold: m.FreeShippingThreshold,
		WeightMultiplier:      m.WeightMultiplier,
		MinimumCharge:         m.MinimumCharge,
		MaximumCharge:         m.MaximumCharge,
		MaxWeightKg:           m.MaxWeightKg,
		AvailableZones:        zones,
		IsActive:              m.IsActive,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

// ToZoneResponse converts a domain zone
func ToZoneResponse(z *shipping.Zone) ZoneResponse {
	return ZoneResponse{
		ID:          z.ID,
		Name:        z.Name,
		Description: z.Description,
		Countries:   z.Countries,
		IsActive:    z.IsActive,
		Priority:    z.Priority,
		CreatedAt:   z.CreatedAt,
		UpdatedAt:   z.UpdatedAt,
	}
}

func (f ListFilter) toShared() shared.Filter {
	sf := shared.Filter{
		Page:     f.Page,
		PageSize: f.Limit,
		OrderBy:  shared.SortColumn(f.SortBy),
		OrderDir: f.SortOrder,
		Search:   f.Search,
		Filters:  map[string]any{},
	}
	if f.IsActive != nil {
		sf.Filters["is_active"] = *f.IsActive
	}
	if f.CarrierID != nil {
		sf.Filters["carrier_id"] = *f.CarrierID
	}
	if f.Service != "" {
		sf.Filters["service_type"] = f.Service
	}
	return sf.Normalize()
}

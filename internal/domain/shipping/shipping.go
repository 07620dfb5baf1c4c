package shipping

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// ServiceType classifies delivery speed
type ServiceType string

const (
	ServiceEconomy   ServiceType = "economy"
	ServiceStandard  ServiceType = "standard"
	ServiceExpress   ServiceType = "express"
	ServiceOvernight ServiceType = "overnight"
)

// IsValid reports whether s is a known service type
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceEconomy, ServiceStandard, ServiceExpress, ServiceOvernight:
		return true
	}
	return false
}

// Carrier is a shipping company
type Carrier struct {
	shared.BaseEntity
	Code                  string   `gorm:"type:varchar(30);not null;uniqueIndex"`
	Name                  string   `gorm:"type:varchar(100);not null"`
	IsActive              bool     `gorm:"not null"`
	TrackingEnabled       bool     `gorm:"not null;default:false"`
	InternationalShipping bool     `gorm:"not null;default:false"`
	SupportedCountries    []string `gorm:"serializer:json"`
}

// TableName returns the table name for GORM
func (Carrier) TableName() string {
	return "shipping_carriers"
}

// NewCarrier creates an active carrier
func NewCarrier(code, name string, countries []string) (*Carrier, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Carrier code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Carrier name cannot be empty")
	}
	return &Carrier{
		BaseEntity:         shared.NewBaseEntity(),
		Code:               code,
		Name:               strings.TrimSpace(name),
		IsActive:           true,
		SupportedCountries: normalizeCountries(countries),
	}, nil
}

// SupportsCountry reports whether the carrier delivers to country.
// An empty country list means no restriction.
func (c *Carrier) SupportsCountry(country string) bool {
	if len(c.SupportedCountries) == 0 {
		return true
	}
	return containsCountry(c.SupportedCountries, country)
}

// Method is a priced service offered by a carrier
type Method struct {
	shared.BaseEntity
	CarrierID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	Code                  string          `gorm:"type:varchar(30);not null"`
	Name                  string          `gorm:"type:varchar(100);not null"`
	Description           string          `gorm:"type:text"`
	ServiceType           ServiceType     `gorm:"type:varchar(20);not null"`
	MinDays               int             `gorm:"not null;default:0"`
	MaxDays               int             `gorm:"not null;default:0"`
	BaseRate              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	FreeShippingThreshold decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	WeightMultiplier      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinimumCharge         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MaximumCharge         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MaxWeightKg           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AvailableZones        []uuid.UUID     `gorm:"serializer:json"`
	IsActive              bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Method) TableName() string {
	return "shipping_methods"
}

// NewMethod creates an active method for a carrier
func NewMethod(carrierID uuid.UUID, code, name string, serviceType ServiceType, minDays, maxDays int, baseRate decimal.Decimal) (*Method, error) {
	if carrierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CARRIER", "Carrier ID cannot be empty")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Method code and name are required")
	}
	if !serviceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SERVICE_TYPE", "Unknown service type")
	}
	if minDays < 0 || maxDays < minDays {
		return nil, shared.NewDomainError("INVALID_INPUT", "Delivery days must satisfy 0 <= min <= max")
	}
	if baseRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Base rate cannot be negative")
	}
	return &Method{
		BaseEntity:  shared.NewBaseEntity(),
		CarrierID:   carrierID,
		Code:        code,
		Name:        strings.TrimSpace(name),
		ServiceType: serviceType,
		MinDays:     minDays,
		MaxDays:     maxDays,
		BaseRate:    baseRate,
		IsActive:    true,
	}, nil
}

// Cost prices a parcel. Orders at or above FreeShippingThreshold ship free.
func (m *Method) Cost(weightKg, orderTotal decimal.Decimal) decimal.Decimal {
	if m.FreeShippingThreshold.IsPositive() && orderTotal.GreaterThanOrEqual(m.FreeShippingThreshold) {
		return decimal.Zero
	}
	cost := m.BaseRate.Add(weightKg.Mul(m.WeightMultiplier))
	if m.MinimumCharge.IsPositive() && cost.LessThan(m.MinimumCharge) {
		cost = m.MinimumCharge
	}
	if m.MaximumCharge.IsPositive() && cost.GreaterThan(m.MaximumCharge) {
		cost = m.MaximumCharge
	}
	return cost.Round(2)
}

// Accepts reports whether the parcel weight is within the method limit
func (m *Method) Accepts(weightKg decimal.Decimal) bool {
	return !m.MaxWeightKg.IsPositive() || weightKg.LessThanOrEqual(m.MaxWeightKg)
}

// ServesZone reports whether the method is offered in zone.
// An empty zone list means every zone.
func (m *Method) ServesZone(zoneID uuid.UUID) bool {
	if len(m.AvailableZones) == 0 {
		return true
	}
	for _, id := range m.AvailableZones {
		if id == zoneID {
			return true
		}
	}
	return false
}

// Zone groups countries for method availability
type Zone struct {
	shared.BaseEntity
	Name        string   `gorm:"type:varchar(100);not null"`
	Description string   `gorm:"type:text"`
	Countries   []string `gorm:"serializer:json"`
	IsActive    bool     `gorm:"not null"`
	Priority    int      `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Zone) TableName() string {
	return "shipping_zones"
}

// NewZone creates an active zone
func NewZone(name string, countries []string, priority int) (*Zone, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Zone name cannot be empty")
	}
	if len(countries) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Zone must cover at least one country")
	}
	return &Zone{
		BaseEntity: shared.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		Countries:  normalizeCountries(countries),
		IsActive:   true,
		Priority:   priority,
	}, nil
}

// Covers reports whether the zone includes country
func (z *Zone) Covers(country string) bool {
	return containsCountry(z.Countries, country)
}

func normalizeCountries(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func containsCountry(list []string, country string) bool {
	country = strings.ToUpper(strings.TrimSpace(country))
	for _, c := range list {
		if c == country {
			return true
		}
	}
	return false
}

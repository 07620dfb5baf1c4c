package shipping

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

// QuoteRequest describes a parcel to price
type QuoteRequest struct {
	Country    string
	WeightKg   decimal.Decimal
	OrderTotal decimal.Decimal
}

// Rate is one priced shipping option
type Rate struct {
	CarrierID    uuid.UUID       `json:"carrierId"`
	CarrierCode  string          `json:"carrierCode"`
	CarrierName  string          `json:"carrierName"`
	MethodID     uuid.UUID       `json:"methodId"`
	MethodCode   string          `json:"methodCode"`
	MethodName   string          `json:"methodName"`
	ServiceType  ServiceType     `json:"serviceType"`
	Cost         decimal.Decimal `json:"cost"`
	FreeShipping bool            `json:"freeShipping"`
	MinDays      int             `json:"minDays"`
	MaxDays      int             `json:"maxDays"`
	ZoneName     string          `json:"zoneName,omitempty"`
}

// Quote prices every active method whose carrier ships to the country.
// When an active zone covers the country, the highest-priority one restricts
// which methods apply. Rates are ordered by cost, then by speed.
func Quote(req QuoteRequest, carriers []Carrier, methods []Method, zones []Zone) ([]Rate, error) {
	if strings.TrimSpace(req.Country) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Destination country is required")
	}
	if req.WeightKg.IsNegative() || req.OrderTotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Weight and order total cannot be negative")
	}

	zone := matchZone(req.Country, zones)
	byID := make(map[uuid.UUID]*Carrier, len(carriers))
	for i := range carriers {
		byID[carriers[i].ID] = &carriers[i]
	}

	rates := make([]Rate, 0, len(methods))
	for i := range methods {
		m := &methods[i]
		c, ok := byID[m.CarrierID]
		if !ok || !c.IsActive || !m.IsActive {
			continue
		}
		if !c.SupportsCountry(req.Country) || !m.Accepts(req.WeightKg) {
			continue
		}
		if zone != nil && !m.ServesZone(zone.ID) {
			continue
		}
		cost := m.Cost(req.WeightKg, req.OrderTotal)
		rate := Rate{
			CarrierID:    c.ID,
			CarrierCode:  c.Code,
			CarrierName:  c.Name,
			MethodID:     m.ID,
			MethodCode:   m.Code,
			MethodName:   m.Name,
			ServiceType:  m.ServiceType,
			Cost:         cost,
			FreeShipping: cost.IsZero(),
			MinDays:      m.MinDays,
			MaxDays:      m.MaxDays,
		}
		if zone != nil {
			rate.ZoneName = zone.Name
		}
		rates = append(rates, rate)
	}

	sort.SliceStable(rates, func(i, j int) bool {
		if !rates[i].Cost.Equal(rates[j].Cost) {
			return rates[i].Cost.LessThan(rates[j].Cost)
		}
		return rates[i].MinDays < rates[j].MinDays
	})
	return rates, nil
}

func matchZone(country string, zones []Zone) *Zone {
	var best *Zone
	for i := range zones {
		z := &zones[i]
		if !z.IsActive || !z.Covers(country) {
			continue
		}
		if best == nil || z.Priority > best.Priority {
			best = z
		}
	}
	return best
}

// Package shipping implements carrier, method and zone management and rate quotes.
package shipping

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
	"github.com/destinpq/groow-sub007/internal/domain/shipping"
)

// Service handles shipping configuration and quoting
type Service struct {
	carriers shipping.CarrierRepository
	methods  shipping.MethodRepository
	zones    shipping.ZoneRepository
	logger   *zap.Logger
}

// NewService creates a new shipping service
func NewService(carriers shipping.CarrierRepository, methods shipping.MethodRepository, zones shipping.ZoneRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{carriers: carriers, methods: methods, zones: zones, logger: logger}
}

// ListCarriers returns a page of carriers
func (s *Service) ListCarriers(ctx context.Context, filter ListFilter) ([]CarrierResponse, int64, error) {
	f := filter.toShared()
	list, err := s.carriers.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.carriers.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]CarrierResponse, len(list))
	for i := range list {
		out[i] = ToCarrierResponse(&list[i])
	}
	return out, total, nil
}

// GetCarrier returns one carrier
func (s *Service) GetCarrier(ctx context.Context, id uuid.UUID) (*CarrierResponse, error) {
	c, err := s.carriers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCarrierResponse(c)
	return &resp, nil
}

// CreateCarrier registers a carrier with a unique code
func (s *Service) CreateCarrier(ctx context.Context, req CarrierRequest) (*CarrierResponse, error) {
	c, err := shipping.NewCarrier(req.Code, req.Name, req.SupportedCountries)
	if err != nil {
		return nil, err
	}
	exists, err := s.carriers.ExistsByCode(ctx, c.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Carrier code "+c.Code+" is already in use")
	}
	applyCarrier(c, req)
	if err := s.carriers.Save(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Carrier created", zap.String("code", c.Code))
	resp := ToCarrierResponse(c)
	return &resp, nil
}

// UpdateCarrier replaces a carrier's fields
func (s *Service) UpdateCarrier(ctx context.Context, id uuid.UUID, req CarrierRequest) (*CarrierResponse, error) {
	c, err := s.carriers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := shipping.NewCarrier(req.Code, req.Name, req.SupportedCountries)
	if err != nil {
		return nil, err
	}
	if updated.Code != c.Code {
		exists, err := s.carriers.ExistsByCode(ctx, updated.Code)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Carrier code "+updated.Code+" is already in use")
		}
	}
	c.Code = updated.Code
	c.Name = updated.Name
	c.SupportedCountries = updated.SupportedCountries
	applyCarrier(c, req)
	c.Touch()
	if err := s.carriers.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCarrierResponse(c)
	return &resp, nil
}

// DeleteCarrier removes a carrier that no method references
func (s *Service) DeleteCarrier(ctx context.Context, id uuid.UUID) error {
	methods, err := s.methods.FindByCarrier(ctx, id)
	if err != nil {
		return err
	}
	if len(methods) > 0 {
		return shared.NewDomainError("INVALID_STATE", "Carrier still has shipping methods")
	}
	return s.carriers.Delete(ctx, id)
}

func applyCarrier(c *shipping.Carrier, req CarrierRequest) {
	c.TrackingEnabled = req.TrackingEnabled
	c.InternationalShipping = req.InternationalShipping
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
}

// ListMethods returns a page of shipping methods
func (s *Service) ListMethods(ctx context.Context, filter ListFilter) ([]MethodResponse, int64, error) {
	f := filter.toShared()
	list, err := s.methods.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.methods.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MethodResponse, len(list))
	for i := range list {
		out[i] = ToMethodResponse(&list[i])
	}
	return out, total, nil
}

// GetMethod returns one shipping method
func (s *Service) GetMethod(ctx context.Context, id uuid.UUID) (*MethodResponse, error) {
	m, err := s.methods.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMethodResponse(m)
	return &resp, nil
}

// CreateMethod adds a method to an existing carrier
func (s *Service) CreateMethod(ctx context.Context, req MethodRequest) (*MethodResponse, error) {
	if _, err := s.carriers.FindByID(ctx, req.CarrierID); err != nil {
		return nil, err
	}
	m, err := shipping.NewMethod(req.CarrierID, req.Code, req.Name, shipping.ServiceType(req.ServiceType), req.MinDays, req.MaxDays, req.BaseRate)
	if err != nil {
		return nil, err
	}
	if err := applyMethod(m, req); err != nil {
		return nil, err
	}
	if err := s.methods.Save(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("Shipping method created", zap.String("carrier_id", m.CarrierID.String()), zap.String("code", m.Code))
	resp := ToMethodResponse(m)
	return &resp, nil
}

// UpdateMethod replaces a method's fields
func (s *Service) UpdateMethod(ctx context.Context, id uuid.UUID, req MethodRequest) (*MethodResponse, error) {
	m, err := s.methods.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CarrierID != m.CarrierID {
		if _, err := s.carriers.FindByID(ctx, req.CarrierID); err != nil {
			return nil, err
		}
	}
	updated, err := shipping.NewMethod(req.CarrierID, req.Code, req.Name, shipping.ServiceType(req.ServiceType), req.MinDays, req.MaxDays, req.BaseRate)
	if err != nil {
		return nil, err
	}
	m.CarrierID = updated.CarrierID
	m.Code = updated.Code
	m.Name = updated.Name
	m.ServiceType = updated.ServiceType
	m.MinDays = updated.MinDays
	m.MaxDays = updated.MaxDays
	m.BaseRate = updated.BaseRate
	if err := applyMethod(m, req); err != nil {
		return nil, err
	}
	m.Touch()
	if err := s.methods.Save(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMethodResponse(m)
	return &resp, nil
}

// DeleteMethod removes a shipping method
func (s *Service) DeleteMethod(ctx context.Context, id uuid.UUID) error {
	return s.methods.Delete(ctx, id)
}

func applyMethod(m *shipping.Method, req MethodRequest) error {
	for _, v := range []decimal.Decimal{
		req.FreeShippingThreshold, req.WeightMultiplier,
		req.MinimumCharge, req.MaximumCharge, req.MaxWeightKg,
	} {
		if v.IsNegative() {
			return shared.NewDomainError("INVALID_INPUT", "Rates and limits cannot be negative")
		}
	}
	if req.MinimumCharge.IsPositive() && req.MaximumCharge.IsPositive() && req.MaximumCharge.LessThan(req.MinimumCharge) {
		return shared.NewDomainError("INVALID_INPUT", "Maximum charge cannot be below minimum charge")
	}
	m.Description = req.Description
	m.FreeShippingThreshold = req.FreeShippingThreshold
	m.WeightMultiplier = req.WeightMultiplier
	m.MinimumCharge = req.MinimumCharge
	m.MaximumCharge = req.MaximumCharge
	m.MaxWeightKg = req.MaxWeightKg
	m.AvailableZones = req.AvailableZones
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	return nil
}

// ListZones returns a page of zones
func (s *Service) ListZones(ctx context.Context, filter ListFilter) ([]ZoneResponse, int64, error) {
	f := filter.toShared()
	list, err := s.zones.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.zones.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ZoneResponse, len(list))
	for i := range list {
		out[i] = ToZoneResponse(&list[i])
	}
	return out, total, nil
}

// GetZone returns one zone
func (s *Service) GetZone(ctx context.Context, id uuid.UUID) (*ZoneResponse, error) {
	z, err := s.zones.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToZoneResponse(z)
	return &resp, nil
}

// CreateZone adds a zone
func (s *Service) CreateZone(ctx context.Context, req ZoneRequest) (*ZoneResponse, error) {
	z, err := shipping.NewZone(req.Name, req.Countries, req.Priority)
	if err != nil {
		return nil, err
	}
	z.Description = req.Description
	if req.IsActive != nil {
		z.IsActive = *req.IsActive
	}
	if err := s.zones.Save(ctx, z); err != nil {
		return nil, err
	}
	resp := ToZoneResponse(z)
	return &resp, nil
}

// UpdateZone replaces a zone's fields
func (s *Service) UpdateZone(ctx context.Context, id uuid.UUID, req ZoneRequest) (*ZoneResponse, error) {
	z, err := s.zones.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := shipping.NewZone(req.Name, req.Countries, req.Priority)
	if err != nil {
		return nil, err
	}
	z.Name = updated.Name
	z.Countries = updated.Countries
	z.Priority = updated.Priority
	z.Description = req.Description
	if req.IsActive != nil {
		z.IsActive = *req.IsActive
	}
	z.Touch()
	if err := s.zones.Save(ctx, z); err != nil {
		return nil, err
	}
	resp := ToZoneResponse(z)
	return &resp, nil
}

// DeleteZone removes a zone
func (s *Service) DeleteZone(ctx context.Context, id uuid.UUID) error {
	return s.zones.Delete(ctx, id)
}

// Rates quotes every active method that can deliver the parcel
func (s *Service) Rates(ctx context.Context, req RatesRequest) (*RatesResponse, error) {
	carriers, err := s.carriers.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	methods, err := s.methods.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	zones, err := s.zones.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	rates, err := shipping.Quote(shipping.QuoteRequest{
		Country:    req.Country,
		WeightKg:   req.WeightKg,
		OrderTotal: req.OrderTotal,
	}, carriers, methods, zones)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Shipping rates quoted", zap.String("country", req.Country), zap.Int("options", len(rates)))
	return &RatesResponse{
		Country: strings.ToUpper(req.Country),
		Rates:   rates,
		Count:   len(rates),
	}, nil
}

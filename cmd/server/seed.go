package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	alertapp "github.com/destinpq/groow-sub007/internal/application/alert"
	dealapp "github.com/destinpq/groow-sub007/internal/application/deal"
	flashsaleapp "github.com/destinpq/groow-sub007/internal/application/flashsale"
	shippingapp "github.com/destinpq/groow-sub007/internal/application/shipping"
	"github.com/destinpq/groow-sub007/internal/domain/flashsale"
)

// seeder fills an empty database with demo campaigns, deals, shipping
// options and stock alerts
type seeder struct {
	db         *gorm.DB
	flashSales *flashsaleapp.Service
	deals      *dealapp.Service
	shipping   *shippingapp.Service
	alerts     *alertapp.Service
	faker      *gofakeit.Faker
	log        *zap.Logger
}

func (s *seeder) run(ctx context.Context) error {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&flashsale.FlashSale{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		s.log.Info("Demo data already present, skipping seed")
		return nil
	}

	if err := s.seedShipping(ctx); err != nil {
		return fmt.Errorf("seeding shipping: %w", err)
	}
	if err := s.seedFlashSales(ctx); err != nil {
		return fmt.Errorf("seeding flash sales: %w", err)
	}
	if err := s.seedDeals(ctx); err != nil {
		return fmt.Errorf("seeding deals: %w", err)
	}
	if err := s.seedAlerts(ctx); err != nil {
		return fmt.Errorf("seeding alerts: %w", err)
	}
	s.log.Info("Demo data seeded")
	return nil
}

func (s *seeder) seedShipping(ctx context.Context) error {
	zone, err := s.shipping.CreateZone(ctx, shippingapp.ZoneRequest{
		Name:      "Domestic",
		Countries: []string{"IN"},
		Priority:  10,
	})
	if err != nil {
		return err
	}
	intl, err := s.shipping.CreateZone(ctx, shippingapp.ZoneRequest{
		Name:      "International",
		Countries: []string{"US", "GB", "DE", "AE", "SG"},
	})
	if err != nil {
		return err
	}

	carrier, err := s.shipping.CreateCarrier(ctx, shippingapp.CarrierRequest{
		Code:                  "BLUEDART",
		Name:                  "Blue Dart",
		TrackingEnabled:       true,
		InternationalShipping: true,
	})
	if err != nil {
		return err
	}

	methods := []shippingapp.MethodRequest{
		{
			CarrierID: carrier.ID, Code: "BD-STD", Name: "Standard", ServiceType: "standard",
			MinDays: 3, MaxDays: 5, BaseRate: decimal.NewFromInt(49),
			FreeShippingThreshold: decimal.NewFromInt(999),
			WeightMultiplier:      decimal.NewFromInt(10),
			AvailableZones:        []uuid.UUID{zone.ID},
		},
		{
			CarrierID: carrier.ID, Code: "BD-EXP", Name: "Express", ServiceType: "express",
			MinDays: 1, MaxDays: 2, BaseRate: decimal.NewFromInt(149),
			WeightMultiplier: decimal.NewFromInt(25),
			AvailableZones:   []uuid.UUID{zone.ID},
		},
		{
			CarrierID: carrier.ID, Code: "BD-INTL", Name: "International Priority", ServiceType: "express",
			MinDays: 4, MaxDays: 9, BaseRate: decimal.NewFromInt(1999),
			WeightMultiplier: decimal.NewFromInt(300),
			AvailableZones:   []uuid.UUID{intl.ID},
		},
	}
	for _, m := range methods {
		if _, err := s.shipping.CreateMethod(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedFlashSales(ctx context.Context) error {
	now := time.Now().UTC()
	auto := true
	windows := []struct {
		start, end time.Time
	}{
		{now.Add(-time.Hour), now.Add(3 * time.Hour)},
		{now.Add(30 * time.Minute), now.Add(6 * time.Hour)},
		{now.Add(24 * time.Hour), now.Add(48 * time.Hour)},
	}
	for _, w := range windows {
		created, err := s.flashSales.Create(ctx, flashsaleapp.CreateFlashSaleRequest{
			Title:                  s.faker.ProductName() + " Flash Sale",
			Description:            s.faker.Sentence(12),
			StartTime:              w.start,
			EndTime:                w.end,
			DiscountType:           "percentage",
			DiscountValue:          decimal.NewFromInt(int64(s.faker.Number(10, 60))),
			TotalInventory:         s.faker.Number(50, 500),
			MaxQuantityPerCustomer: s.faker.Number(1, 5),
			IsFeatured:             s.faker.Bool(),
			AutoStart:              &auto,
			AutoEnd:                &auto,
		})
		if err != nil {
			return err
		}
		if _, err := s.flashSales.Schedule(ctx, created.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedDeals(ctx context.Context) error {
	now := time.Now().UTC()
	deals := []dealapp.CreateDealRequest{
		{
			Type: "percentage", Value: decimal.NewFromInt(15),
			MinPurchase: decimal.NewFromInt(500), MaxDiscount: decimal.NewFromInt(300),
			UsageLimit: 1000, IsFeatured: true, Tags: []string{"festive"},
		},
		{
			Type: "fixed", Value: decimal.NewFromInt(100),
			MinPurchase: decimal.NewFromInt(999), UsageLimit: 500,
		},
		{
			Type: "buy-x-get-y", Value: decimal.NewFromInt(50),
			Stackable: true, AutoApply: true,
		},
	}
	for i := range deals {
		d := deals[i]
		d.Title = s.faker.ProductCategory() + " " + s.faker.BuzzWord()
		d.Description = s.faker.Sentence(10)
		d.StartDate = now.Add(-time.Hour)
		d.EndDate = now.Add(time.Duration(7+i) * 24 * time.Hour)
		d.Priority = len(deals) - i
		if _, err := s.deals.Create(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedAlerts(ctx context.Context) error {
	types := []string{"low_stock", "out_of_stock", "reorder_point"}
	for _, alertType := range types {
		stock := s.faker.Number(0, 8)
		if alertType == "out_of_stock" {
			stock = 0
		}
		_, _, err := s.alerts.Raise(ctx, alertapp.RaiseAlertRequest{
			ProductID:    uuid.New(),
			ProductName:  s.faker.ProductName(),
			ProductSku:   fmt.Sprintf("SKU-%06d", s.faker.Number(1, 999999)),
			AlertType:    alertType,
			CurrentStock: stock,
			Threshold:    10,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

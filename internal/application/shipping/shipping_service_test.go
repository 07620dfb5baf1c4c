package shipping

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
	"github.com/destinpq/groow-sub007/internal/infrastructure/persistence"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(persistence.Models()...))

	return NewService(
		persistence.NewGormCarrierRepository(db),
		persistence.NewGormMethodRepository(db),
		persistence.NewGormZoneRepository(db),
		nil,
	)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createCarrier(t *testing.T, svc *Service, code string, countries ...string) *CarrierResponse {
	t.Helper()
	c, err := svc.CreateCarrier(context.Background(), CarrierRequest{
		Code:               code,
		Name:               code + " Logistics",
		TrackingEnabled:    true,
		SupportedCountries: countries,
	})
	require.NoError(t, err)
	return c
}

func TestService_Carriers(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	c := createCarrier(t, svc, "dhl", "us", "ca")
	assert.Equal(t, "DHL", c.Code)
	assert.Equal(t, []string{"US", "CA"}, c.SupportedCountries)
	assert.True(t, c.IsActive)
	assert.True(t, c.TrackingEnabled)

	t.Run("duplicate code", func(t *testing.T) {
		_, err := svc.CreateCarrier(ctx, CarrierRequest{Code: "DHL", Name: "Other"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("update and deactivate", func(t *testing.T) {
		inactive := false
		updated, err := svc.UpdateCarrier(ctx, c.ID, CarrierRequest{Code: "dhl", Name: "DHL Express", IsActive: &inactive})
		require.NoError(t, err)
		assert.Equal(t, "DHL Express", updated.Name)
		assert.False(t, updated.IsActive)
		assert.Empty(t, updated.SupportedCountries)
	})

	t.Run("list", func(t *testing.T) {
		createCarrier(t, svc, "ups")
		list, total, err := svc.ListCarriers(ctx, ListFilter{Search: "ups"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, list, 1)
		assert.Equal(t, "UPS", list[0].Code)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := svc.GetCarrier(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_MethodsAndDelete(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	c := createCarrier(t, svc, "fedex")

	_, err := svc.CreateMethod(ctx, MethodRequest{
		CarrierID: uuid.New(), Code: "x", Name: "X", ServiceType: "standard", BaseRate: dec("1"),
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	m, err := svc.CreateMethod(ctx, MethodRequest{
		CarrierID:        c.ID,
		Code:             "ground",
		Name:             "Ground",
		ServiceType:      "economy",
		MinDays:          3,
		MaxDays:          6,
		BaseRate:         dec("7.5"),
		WeightMultiplier: dec("0.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "GROUND", m.Code)

	_, err = svc.UpdateMethod(ctx, m.ID, MethodRequest{
		CarrierID: c.ID, Code: "ground", Name: "Ground", ServiceType: "economy",
		BaseRate: dec("7.5"), MinimumCharge: dec("10"), MaximumCharge: dec("5"),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	list, total, err := svc.ListMethods(ctx, ListFilter{CarrierID: &c.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	err = svc.DeleteCarrier(ctx, c.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	require.NoError(t, svc.DeleteMethod(ctx, m.ID))
	require.NoError(t, svc.DeleteCarrier(ctx, c.ID))
}

func TestService_Rates(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	dhl := createCarrier(t, svc, "dhl", "US", "CA")
	eu := createCarrier(t, svc, "eupost", "DE")

	zone, err := svc.CreateZone(ctx, ZoneRequest{Name: "North America", Countries: []string{"us", "ca"}, Priority: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "CA"}, zone.Countries)

	_, err = svc.CreateMethod(ctx, MethodRequest{
		CarrierID: dhl.ID, Code: "exp", Name: "Express", ServiceType: "express",
		MinDays: 1, MaxDays: 2, BaseRate: dec("20"), AvailableZones: []uuid.UUID{zone.ID},
	})
	require.NoError(t, err)
	_, err = svc.CreateMethod(ctx, MethodRequest{
		CarrierID: dhl.ID, Code: "std", Name: "Standard", ServiceType: "standard",
		MinDays: 3, MaxDays: 5, BaseRate: dec("6"), WeightMultiplier: dec("1"),
		FreeShippingThreshold: dec("100"),
	})
	require.NoError(t, err)
	_, err = svc.CreateMethod(ctx, MethodRequest{
		CarrierID: eu.ID, Code: "eu", Name: "EU Post", ServiceType: "standard",
		MinDays: 2, MaxDays: 4, BaseRate: dec("4"),
	})
	require.NoError(t, err)

	t.Run("cheapest first", func(t *testing.T) {
		resp, err := svc.Rates(ctx, RatesRequest{Country: "us", WeightKg: dec("2"), OrderTotal: dec("50")})
		require.NoError(t, err)
		assert.Equal(t, "US", resp.Country)
		require.Equal(t, 2, resp.Count)
		assert.Equal(t, "STD", resp.Rates[0].MethodCode)
		assert.True(t, dec("8").Equal(resp.Rates[0].Cost))
		assert.Equal(t, "EXP", resp.Rates[1].MethodCode)
		assert.Equal(t, "North America", resp.Rates[1].ZoneName)
	})

	t.Run("free shipping above threshold", func(t *testing.T) {
		resp, err := svc.Rates(ctx, RatesRequest{Country: "CA", WeightKg: dec("2"), OrderTotal: dec("150")})
		require.NoError(t, err)
		require.NotEmpty(t, resp.Rates)
		assert.True(t, resp.Rates[0].FreeShipping)
	})

	t.Run("unsupported country", func(t *testing.T) {
		resp, err := svc.Rates(ctx, RatesRequest{Country: "JP", WeightKg: dec("1")})
		require.NoError(t, err)
		assert.Zero(t, resp.Count)
		assert.NotNil(t, resp.Rates)
	})
}

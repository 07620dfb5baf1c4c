package shipping

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustCarrier(t *testing.T, code string, countries ...string) Carrier {
	t.Helper()
	c, err := NewCarrier(code, code+" Express", countries)
	require.NoError(t, err)
	return *c
}

func mustMethod(t *testing.T, carrier Carrier, code string, st ServiceType, minDays int, base string) Method {
	t.Helper()
	m, err := NewMethod(carrier.ID, code, code, st, minDays, minDays+2, d(base))
	require.NoError(t, err)
	return *m
}

func TestMethod_Cost(t *testing.T) {
	carrier := mustCarrier(t, "dhl")
	m := mustMethod(t, carrier, "std", ServiceStandard, 3, "5")
	m.WeightMultiplier = d("1.5")

	assert.True(t, d("8").Equal(m.Cost(d("2"), d("10"))))

	m.FreeShippingThreshold = d("100")
	assert.True(t, m.Cost(d("2"), d("100")).IsZero())
	assert.True(t, d("8").Equal(m.Cost(d("2"), d("99.99"))))

	m.MinimumCharge = d("9")
	assert.True(t, d("9").Equal(m.Cost(d("2"), d("10"))))

	m.MaximumCharge = d("12")
	assert.True(t, d("12").Equal(m.Cost(d("20"), d("10"))))
}

func TestNewMethod_Validation(t *testing.T) {
	_, err := NewMethod(uuid.Nil, "A", "A", ServiceStandard, 1, 2, d("1"))
	assert.Error(t, err)

	_, err = NewMethod(uuid.New(), "A", "A", "teleport", 1, 2, d("1"))
	assert.Error(t, err)

	_, err = NewMethod(uuid.New(), "A", "A", ServiceStandard, 3, 2, d("1"))
	assert.Error(t, err)

	_, err = NewMethod(uuid.New(), "A", "A", ServiceStandard, 1, 2, d("-1"))
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	dhl := mustCarrier(t, "dhl", "us", "ca")
	local := mustCarrier(t, "local", "US")
	eu := mustCarrier(t, "eupost", "DE", "FR")

	express := mustMethod(t, dhl, "exp", ServiceExpress, 1, "25")
	standard := mustMethod(t, dhl, "std", ServiceStandard, 4, "8")
	ground := mustMethod(t, local, "ground", ServiceEconomy, 6, "8")
	euStd := mustMethod(t, eu, "eu", ServiceStandard, 3, "4")

	carriers := []Carrier{dhl, local, eu}
	methods := []Method{express, standard, ground, euStd}

	t.Run("filters by country and sorts by cost then speed", func(t *testing.T) {
		rates, err := Quote(QuoteRequest{Country: "us", WeightKg: d("1"), OrderTotal: d("50")}, carriers, methods, nil)
		require.NoError(t, err)
		require.Len(t, rates, 3)

		assert.Equal(t, "STD", rates[0].MethodCode)
		assert.Equal(t, "GROUND", rates[1].MethodCode)
		assert.Equal(t, "EXP", rates[2].MethodCode)
		assert.Equal(t, "DHL", rates[0].CarrierCode)
	})

	t.Run("inactive carriers and methods are skipped", func(t *testing.T) {
		inactive := dhl
		inactive.IsActive = false
		off := ground
		off.IsActive = false

		rates, err := Quote(QuoteRequest{Country: "US"}, []Carrier{inactive, local}, []Method{express, off}, nil)
		require.NoError(t, err)
		assert.Empty(t, rates)
	})

	t.Run("weight limit", func(t *testing.T) {
		light := euStd
		light.MaxWeightKg = d("2")

		rates, err := Quote(QuoteRequest{Country: "DE", WeightKg: d("3")}, carriers, []Method{light}, nil)
		require.NoError(t, err)
		assert.Empty(t, rates)
	})

	t.Run("zone restricts methods", func(t *testing.T) {
		zone, err := NewZone("North America", []string{"US", "CA"}, 10)
		require.NoError(t, err)
		lower, err := NewZone("Everywhere US", []string{"US"}, 1)
		require.NoError(t, err)

		zoned := express
		zoned.AvailableZones = []uuid.UUID{zone.ID}
		other := standard
		other.AvailableZones = []uuid.UUID{lower.ID}

		rates, err := Quote(QuoteRequest{Country: "US"}, carriers, []Method{zoned, other, ground}, []Zone{*lower, *zone})
		require.NoError(t, err)
		require.Len(t, rates, 2)
		assert.Equal(t, "GROUND", rates[0].MethodCode)
		assert.Equal(t, "EXP", rates[1].MethodCode)
		assert.Equal(t, "North America", rates[1].ZoneName)
	})

	t.Run("free shipping flag", func(t *testing.T) {
		free := euStd
		free.FreeShippingThreshold = d("40")

		rates, err := Quote(QuoteRequest{Country: "FR", OrderTotal: d("40")}, carriers, []Method{free}, nil)
		require.NoError(t, err)
		require.Len(t, rates, 1)
		assert.True(t, rates[0].FreeShipping)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := Quote(QuoteRequest{}, carriers, methods, nil)
		assert.Error(t, err)

		_, err = Quote(QuoteRequest{Country: "US", WeightKg: d("-1")}, carriers, methods, nil)
		assert.Error(t, err)
	})
}

func TestCarrier_SupportsCountry(t *testing.T) {
	open := mustCarrier(t, "any")
	assert.True(t, open.SupportsCountry("JP"))

	scoped := mustCarrier(t, "scoped", " us ")
	assert.True(t, scoped.SupportsCountry("US"))
	assert.False(t, scoped.SupportsCountry("JP"))
}

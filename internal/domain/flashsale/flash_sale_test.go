package flashsale

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinpq/groow-sub007/internal/domain/shared"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testSchedule() Schedule {
	return Schedule{
		StartTime:     baseTime,
		EndTime:       baseTime.Add(2 * time.Hour),
		DiscountType:  DiscountPercentage,
		DiscountValue: decimal.NewFromInt(20),
	}
}

func createTestFlashSale(t *testing.T) *FlashSale {
	t.Helper()
	fs, err := NewFlashSale("spring-24", "Spring Sale", CampaignFlashSale, testSchedule(), 100)
	require.NoError(t, err)
	return fs
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestNewFlashSale(t *testing.T) {
	t.Run("creates draft campaign", func(t *testing.T) {
		fs := createTestFlashSale(t)

		assert.Equal(t, "SPRING-24", fs.CampaignCode)
		assert.Equal(t, StatusDraft, fs.Status)
		assert.Equal(t, 100, fs.TotalInventory)
		assert.True(t, fs.AutoEnd)
		assert.Len(t, fs.Events(), 1)
	})

	t.Run("defaults campaign type", func(t *testing.T) {
		fs, err := NewFlashSale("X1", "Title", "", testSchedule(), 0)
		require.NoError(t, err)
		assert.Equal(t, CampaignFlashSale, fs.CampaignType)
	})

	tests := []struct {
		name   string
		code   string
		title  string
		mutate func(*Schedule)
		want   string
	}{
		{"empty code", "", "Title", nil, "INVALID_CODE"},
		{"empty title", "C1", "  ", nil, "INVALID_TITLE"},
		{"end before start", "C1", "Title", func(s *Schedule) { s.EndTime = s.StartTime.Add(-time.Minute) }, "INVALID_SCHEDULE"},
		{"percentage over 100", "C1", "Title", func(s *Schedule) { s.DiscountValue = decimal.NewFromInt(101) }, "INVALID_DISCOUNT"},
		{"zero fixed amount", "C1", "Title", func(s *Schedule) {
			s.DiscountType = DiscountFixedAmount
			s.DiscountValue = decimal.Zero
		}, "INVALID_DISCOUNT"},
		{"unsupported type", "C1", "Title", func(s *Schedule) { s.DiscountType = "bundle" }, "INVALID_DISCOUNT_TYPE"},
		{"tiered without tiers", "C1", "Title", func(s *Schedule) { s.DiscountType = DiscountTiered }, "INVALID_DISCOUNT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSchedule()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			fs, err := NewFlashSale(tt.code, tt.title, CampaignFlashSale, s, 10)
			require.Error(t, err)
			assert.Nil(t, fs)

			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.want, de.Code)
		})
	}
}

func TestFlashSale_Lifecycle(t *testing.T) {
	fs := createTestFlashSale(t)
	now := baseTime.Add(time.Minute)

	require.NoError(t, fs.ScheduleCampaign())
	assert.Equal(t, StatusScheduled, fs.Status)

	require.NoError(t, fs.Start(now))
	assert.Equal(t, StatusActive, fs.Status)
	require.NotNil(t, fs.ActualStartTime)

	require.NoError(t, fs.Pause())
	assert.Equal(t, StatusPaused, fs.Status)

	require.NoError(t, fs.Resume(now))
	assert.Equal(t, StatusActive, fs.Status)

	require.NoError(t, fs.End(now.Add(time.Minute)))
	assert.Equal(t, StatusEnded, fs.Status)
	require.NotNil(t, fs.ActualEndTime)

	// created + 5 transitions
	assert.Len(t, fs.Events(), 6)
	last := fs.Events()[5].(*StatusChangedEvent)
	assert.Equal(t, StatusActive, last.From)
	assert.Equal(t, StatusEnded, last.To)
}

func TestFlashSale_InvalidTransitions(t *testing.T) {
	now := baseTime.Add(time.Minute)

	t.Run("cannot pause draft", func(t *testing.T) {
		fs := createTestFlashSale(t)
		err := fs.Pause()
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("cannot schedule twice", func(t *testing.T) {
		fs := createTestFlashSale(t)
		require.NoError(t, fs.ScheduleCampaign())
		assert.Error(t, fs.ScheduleCampaign())
	})

	t.Run("cannot start after end time", func(t *testing.T) {
		fs := createTestFlashSale(t)
		assert.Error(t, fs.Start(fs.EndTime))
	})

	t.Run("cannot resume after end time", func(t *testing.T) {
		fs := createTestFlashSale(t)
		require.NoError(t, fs.Start(now))
		require.NoError(t, fs.Pause())
		assert.Error(t, fs.Resume(fs.EndTime.Add(time.Second)))
	})

	t.Run("cannot cancel ended", func(t *testing.T) {
		fs := createTestFlashSale(t)
		require.NoError(t, fs.Start(now))
		require.NoError(t, fs.End(now))
		assert.Error(t, fs.Cancel(now))
	})

	t.Run("cannot reschedule active", func(t *testing.T) {
		fs := createTestFlashSale(t)
		require.NoError(t, fs.Start(now))
		assert.Error(t, fs.Reschedule(testSchedule()))
	})
}

func TestFlashSale_Cancel(t *testing.T) {
	fs := createTestFlashSale(t)
	now := baseTime.Add(time.Minute)
	require.NoError(t, fs.Start(now))
	require.NoError(t, fs.Reserve(5, now))

	require.NoError(t, fs.Cancel(now))

	assert.Equal(t, StatusCancelled, fs.Status)
	assert.Equal(t, 0, fs.ReservedQuantity)
	assert.NotNil(t, fs.ActualEndTime)
}

func TestFlashSale_Extend(t *testing.T) {
	t.Run("extends active campaign", func(t *testing.T) {
		fs := createTestFlashSale(t)
		require.NoError(t, fs.Start(baseTime))
		end := fs.EndTime

		require.NoError(t, fs.Extend(30))
		assert.Equal(t, end.Add(30*time.Minute), fs.EndTime)
	})

	t.Run("rejects draft", func(t *testing.T) {
		fs := createTestFlashSale(t)
		assert.Error(t, fs.Extend(30))
	})

	t.Run("rejects non-positive minutes", func(t *testing.T) {
		fs := createTestFlashSale(t)
		require.NoError(t, fs.ScheduleCampaign())
		assert.Error(t, fs.Extend(0))
	})
}

func TestFlashSale_Duplicate(t *testing.T) {
	fs := createTestFlashSale(t)
	fs.MaxQuantityPerCustomer = 2
	require.NoError(t, fs.Start(baseTime))
	require.NoError(t, fs.Reserve(2, baseTime))

	dup, err := fs.Duplicate("spring-25")
	require.NoError(t, err)

	assert.NotEqual(t, fs.ID, dup.ID)
	assert.Equal(t, "SPRING-25", dup.CampaignCode)
	assert.Equal(t, StatusDraft, dup.Status)
	assert.Equal(t, 0, dup.ReservedQuantity)
	assert.Equal(t, 2, dup.MaxQuantityPerCustomer)
	assert.Equal(t, "Spring Sale (copy)", dup.Title)
}

func TestFlashSale_EffectiveStatus(t *testing.T) {
	fs := createTestFlashSale(t)
	require.NoError(t, fs.Start(baseTime))

	assert.Equal(t, StatusActive, fs.EffectiveStatus(baseTime.Add(time.Hour)))
	assert.Equal(t, StatusExpired, fs.EffectiveStatus(fs.EndTime))

	require.NoError(t, fs.Pause())
	assert.Equal(t, StatusExpired, fs.EffectiveStatus(fs.EndTime.Add(time.Hour)))

	draft := createTestFlashSale(t)
	assert.Equal(t, StatusDraft, draft.EffectiveStatus(draft.EndTime.Add(time.Hour)))
}

func TestFlashSale_Reserve(t *testing.T) {
	now := baseTime.Add(time.Minute)

	t.Run("reserves within stock", func(t *testing.T) {
		fs := createTestFlashSale(t)
		require.NoError(t, fs.Start(now))

		require.NoError(t, fs.Reserve(40, now))
		assert.Equal(t, 60, fs.RemainingQuantity())

		require.NoError(t, fs.ConfirmSale(30))
		assert.Equal(t, 30, fs.SoldQuantity)
		assert.Equal(t, 10, fs.ReservedQuantity)
		assert.Equal(t, 60, fs.RemainingQuantity())

		require.NoError(t, fs.Release(10))
		assert.Equal(t, 70, fs.RemainingQuantity())
		assert.InDelta(t, 30.0, fs.SoldPercent(), 0.001)
	})

	t.Run("insufficient inventory", func(t *testing.T) {
		fs := createTestFlashSale(t)
		require.NoError(t, fs.Start(now))
		require.NoError(t, fs.Reserve(95, now))

		err := fs.Reserve(6, now)
		assert.True(t, errors.Is(err, shared.ErrInsufficientInventory))
		assert.Equal(t, 95, fs.ReservedQuantity)
	})

	t.Run("per customer limit", func(t *testing.T) {
		fs := createTestFlashSale(t)
		fs.MaxQuantityPerCustomer = 3
		require.NoError(t, fs.Start(now))

		err := fs.Reserve(4, now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "At most 3")
	})

	t.Run("not live", func(t *testing.T) {
		fs := createTestFlashSale(t)
		assert.Error(t, fs.Reserve(1, now))

		require.NoError(t, fs.Start(now))
		assert.Error(t, fs.Reserve(1, fs.EndTime))
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		fs := createTestFlashSale(t)
		require.NoError(t, fs.Start(now))
		assert.Error(t, fs.Reserve(0, now))
	})
}

func TestFlashSale_RemainingQuantityNeverNegative(t *testing.T) {
	fs := createTestFlashSale(t)
	fs.SoldQuantity = 150

	assert.Equal(t, 0, fs.RemainingQuantity())
}

func TestFlashSale_DiscountFor(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*FlashSale)
		amount string
		want   string
	}{
		{"percentage", nil, "250", "50"},
		{"percentage rounds to cents", nil, "10.33", "2.07"},
		{"percentage capped", func(fs *FlashSale) { fs.MaxDiscountAmount = dec("30") }, "250", "30"},
		{"below minimum", func(fs *FlashSale) { fs.MinOrderValue = dec("100") }, "99.99", "0"},
		{"at minimum", func(fs *FlashSale) { fs.MinOrderValue = dec("100") }, "100", "20"},
		{"fixed amount", func(fs *FlashSale) {
			fs.DiscountType = DiscountFixedAmount
			fs.DiscountValue = dec("15")
		}, "40", "15"},
		{"fixed amount never exceeds order", func(fs *FlashSale) {
			fs.DiscountType = DiscountFixedAmount
			fs.DiscountValue = dec("15")
		}, "9.5", "9.5"},
		{"zero order", nil, "0", "0"},
		{"tiered picks highest reached tier", func(fs *FlashSale) {
			fs.DiscountType = DiscountTiered
			fs.Tiers = []DiscountTier{
				{Threshold: dec("0"), DiscountType: DiscountPercentage, DiscountValue: dec("5")},
				{Threshold: dec("100"), DiscountType: DiscountPercentage, DiscountValue: dec("10")},
				{Threshold: dec("500"), DiscountType: DiscountFixedAmount, DiscountValue: dec("75")},
			}
		}, "200", "20"},
		{"tiered fixed tier", func(fs *FlashSale) {
			fs.DiscountType = DiscountTiered
			fs.Tiers = []DiscountTier{
				{Threshold: dec("100"), DiscountType: DiscountPercentage, DiscountValue: dec("10")},
				{Threshold: dec("500"), DiscountType: DiscountFixedAmount, DiscountValue: dec("75")},
			}
		}, "800", "75"},
		{"tiered below first tier", func(fs *FlashSale) {
			fs.DiscountType = DiscountTiered
			fs.Tiers = []DiscountTier{
				{Threshold: dec("100"), DiscountType: DiscountPercentage, DiscountValue: dec("10")},
			}
		}, "50", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := createTestFlashSale(t)
			if tt.setup != nil {
				tt.setup(fs)
			}
			assertDecimal(t, tt.want, fs.DiscountFor(dec(tt.amount)))
		})
	}
}

func TestFlashSale_TiersSortedOnCreate(t *testing.T) {
	s := testSchedule()
	s.DiscountType = DiscountTiered
	s.Tiers = []DiscountTier{
		{Threshold: dec("500"), DiscountType: DiscountFixedAmount, DiscountValue: dec("75")},
		{Threshold: dec("100"), DiscountType: DiscountPercentage, DiscountValue: dec("10")},
	}

	fs, err := NewFlashSale("T1", "Tiered", CampaignSeasonal, s, 10)
	require.NoError(t, err)

	require.Len(t, fs.Tiers, 2)
	assertDecimal(t, "100", fs.Tiers[0].Threshold)
	assertDecimal(t, "75", fs.DiscountFor(dec("600")))
}

func TestFlashSale_Countdown(t *testing.T) {
	fs := createTestFlashSale(t)
	fs.SoldQuantity = 25

	before := fs.Countdown(baseTime.Add(-90 * time.Second))
	assert.Equal(t, int64(90), before.StartsInSeconds)
	assert.Equal(t, int64(2*3600+90), before.EndsInSeconds)
	assert.Equal(t, StatusDraft, before.Status)
	assert.Equal(t, 75, before.RemainingQuantity)
	assert.InDelta(t, 25.0, before.SoldPercent, 0.001)

	require.NoError(t, fs.Start(baseTime))
	after := fs.Countdown(fs.EndTime.Add(time.Minute))
	assert.Equal(t, int64(0), after.StartsInSeconds)
	assert.Equal(t, int64(0), after.EndsInSeconds)
	assert.Equal(t, StatusExpired, after.Status)
}

func TestFlashSale_SetLimits(t *testing.T) {
	fs := createTestFlashSale(t)
	fs.SoldQuantity = 10

	assert.Error(t, fs.SetLimits(5, 0, decimal.Zero, decimal.Zero))
	require.NoError(t, fs.SetLimits(50, 2, dec("20"), dec("10")))
	assert.Equal(t, 50, fs.TotalInventory)
	assert.Equal(t, 2, fs.MaxQuantityPerCustomer)
}

func TestFlashSale_CanDelete(t *testing.T) {
	fs := createTestFlashSale(t)
	assert.True(t, fs.CanDelete())

	require.NoError(t, fs.Start(baseTime))
	assert.False(t, fs.CanDelete())

	require.NoError(t, fs.Cancel(baseTime))
	assert.True(t, fs.CanDelete())
}

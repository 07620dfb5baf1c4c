package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestOrder(t *testing.T) *Order {
	t.Helper()
	o, ev, err := NewOrder("GR-1001", uuid.New(), decimal.NewFromInt(120), 3, time.Now())
	require.NoError(t, err)
	require.Equal(t, StatusPlaced, ev.Status)
	return o
}

func TestNewOrder_Validation(t *testing.T) {
	_, _, err := NewOrder("", uuid.New(), decimal.Zero, 0, time.Now())
	assert.Error(t, err)
	_, _, err = NewOrder("GR-1", uuid.Nil, decimal.Zero, 0, time.Now())
	assert.Error(t, err)
	_, _, err = NewOrder("GR-1", uuid.New(), decimal.NewFromInt(-1), 0, time.Now())
	assert.Error(t, err)
}

func TestOrder_Advance(t *testing.T) {
	now := time.Now()

	t.Run("moves forward through milestones", func(t *testing.T) {
		o := createTestOrder(t)

		ev, err := o.Advance(StatusConfirmed, "", "", now)
		require.NoError(t, err)
		assert.Equal(t, "Order confirmed", ev.Description)
		assert.Equal(t, o.ID, ev.OrderID)

		_, err = o.Ship("UPS", "1Z999", nil, now)
		require.NoError(t, err)
		assert.Equal(t, StatusShipped, o.Status)
		assert.Equal(t, "1Z999", o.TrackingNumber)

		_, err = o.Advance(StatusDelivered, "Front door", "", now)
		require.NoError(t, err)
		assert.NotNil(t, o.DeliveredAt)
		assert.Equal(t, 100, o.Progress())
	})

	t.Run("cannot go backwards", func(t *testing.T) {
		o := createTestOrder(t)
		_, err := o.Advance(StatusProcessing, "", "", now)
		require.NoError(t, err)

		_, err = o.Advance(StatusConfirmed, "", "", now)
		assert.Error(t, err)
		_, err = o.Advance(StatusProcessing, "", "", now)
		assert.Error(t, err)
	})

	t.Run("cancel before shipping only", func(t *testing.T) {
		o := createTestOrder(t)
		_, err := o.Advance(StatusCancelled, "", "", now)
		require.NoError(t, err)
		assert.Equal(t, 0, o.Progress())

		_, err = o.Advance(StatusConfirmed, "", "", now)
		assert.Error(t, err)

		shipped := createTestOrder(t)
		_, err = shipped.Ship("DHL", "JD01", nil, now)
		require.NoError(t, err)
		_, err = shipped.Advance(StatusCancelled, "", "", now)
		assert.Error(t, err)
	})

	t.Run("ship requires carrier details", func(t *testing.T) {
		o := createTestOrder(t)
		_, err := o.Ship("", "x", nil, now)
		assert.Error(t, err)
	})

	t.Run("unknown status", func(t *testing.T) {
		o := createTestOrder(t)
		_, err := o.Advance("lost", "", "", now)
		assert.Error(t, err)
	})
}

func TestOrder_Progress(t *testing.T) {
	o := createTestOrder(t)
	assert.Equal(t, 0, o.Progress())

	o.Status = StatusShipped
	assert.Equal(t, 60, o.Progress())
}

func TestOrder_Tracking(t *testing.T) {
	o := createTestOrder(t)
	t0 := time.Now().Add(-time.Hour)
	events := []TrackingEvent{
		{OrderID: o.ID, Status: StatusPlaced, OccurredAt: t0},
		{OrderID: o.ID, Status: StatusConfirmed, OccurredAt: t0.Add(time.Minute)},
	}

	tr := o.Tracking(events)

	assert.Equal(t, "GR-1001", tr.OrderNumber)
	require.Len(t, tr.Updates, 2)
	assert.Equal(t, StatusConfirmed, tr.Updates[0].Status)
	assert.Equal(t, StatusPlaced, events[0].Status)
}

func TestParseRef(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, Ref{ID: id}, ParseRef(id.String()))
	assert.Equal(t, Ref{Number: "GR-1001"}, ParseRef(" GR-1001 "))
}

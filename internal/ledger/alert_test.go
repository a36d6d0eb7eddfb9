package ledger

import (
	"context"
	"testing"

	"matstock-backend/internal/models"
	"matstock-backend/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextAlert(t *testing.T) {
	cases := []struct {
		name    string
		qty     string
		min     string
		alerted bool
		want    alertTransition
	}{
		{"drops below", "8", "10", false, alertFire},
		{"equal counts as low", "10", "10", false, alertFire},
		{"stays low", "5", "10", true, alertNone},
		{"recovers", "11", "10", true, alertClear},
		{"stays high", "20", "10", false, alertNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextAlert(dec(tc.qty), dec(tc.min), tc.alerted))
		})
	}
}

func TestAlertHysteresis(t *testing.T) {
	svc, db, sink := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Film", "12", "10")

	require.NoError(t, svc.CheckAlerts(ctx))
	assert.Zero(t, sink.count(notify.CategoryLowStock))

	// 12 -> 8
	_, err := svc.AddAdjustment(ctx, m.ID, dec("-4"))
	require.NoError(t, err)
	assert.Equal(t, 1, sink.count(notify.CategoryLowStock))
	mat, err := svc.GetMaterial(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, mat.Alerted)

	// still low, repeated checks stay quiet
	require.NoError(t, svc.CheckAlerts(ctx))
	require.NoError(t, svc.CheckAlerts(ctx, m.ID))
	_, err = svc.AddAdjustment(ctx, m.ID, dec("-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, sink.count(notify.CategoryLowStock))

	// 7 -> 11 clears silently
	_, err = svc.AddAdjustment(ctx, m.ID, dec("4"))
	require.NoError(t, err)
	assert.Equal(t, 1, sink.count(notify.CategoryLowStock))
	mat, err = svc.GetMaterial(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, mat.Alerted)

	// 11 -> 8 fires again
	_, err = svc.AddAdjustment(ctx, m.ID, dec("-3"))
	require.NoError(t, err)
	assert.Equal(t, 2, sink.count(notify.CategoryLowStock))
}

func TestUpdateMinQtyChecksAlertsImmediately(t *testing.T) {
	svc, db, sink := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Glue", "5", "1")

	mat, err := svc.UpdateMinQty(ctx, m.ID, dec("6"))
	require.NoError(t, err)
	assert.True(t, mat.Alerted)
	requireQty(t, "6", mat.MinQty)
	assert.Equal(t, 1, sink.count(notify.CategoryLowStock))

	mat, err = svc.UpdateMinQty(ctx, m.ID, dec("2"))
	require.NoError(t, err)
	assert.False(t, mat.Alerted)
	assert.Equal(t, 1, sink.count(notify.CategoryLowStock))

	_, err = svc.UpdateMinQty(ctx, 404, dec("1"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLowStockText(t *testing.T) {
	text := LowStockText(StockLevel{Name: "Film", Unit: "m", Qty: dec("3"), MinQty: dec("5")})
	assert.Contains(t, text, "Film")
	assert.Contains(t, text, "3")
	assert.Contains(t, text, "5 m")
}

func TestAlertFiresWhenFractionalMovementsLandOnThreshold(t *testing.T) {
	svc, db, sink := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Laminat", "0", "0.3")
	moves := []models.StockMovement{
		{MaterialID: m.ID, Qty: dec("0.1")},
		{MaterialID: m.ID, Qty: dec("0.2")},
	}
	require.NoError(t, db.Create(&moves).Error)

	qty, err := svc.CurrentQty(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.3", qty.String())

	require.NoError(t, svc.CheckAlerts(ctx))
	assert.Equal(t, 1, sink.count(notify.CategoryLowStock))

	got, err := svc.GetMaterial(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.Alerted)
}

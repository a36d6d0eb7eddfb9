package ledger

import (
	"context"
	"sync"
	"testing"

	"matstock-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertOrderReplacesMovements(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Film A roll", "100", "0")
	seedRule(t, db, "Film A", m.ID, "2")

	_, err := svc.UpsertOrder(ctx, snapshot(1, line("Film A", 3)))
	require.NoError(t, err)

	moves := orderMovements(t, db, 1)
	require.Len(t, moves, 1)
	assert.Equal(t, m.ID, moves[0].MaterialID)
	requireQty(t, "-6", moves[0].Qty)

	_, err = svc.UpsertOrder(ctx, snapshot(1, line("Film A", 5)))
	require.NoError(t, err)

	moves = orderMovements(t, db, 1)
	require.Len(t, moves, 1)
	requireQty(t, "-10", moves[0].Qty)
	assert.Equal(t, int64(1), countMovements(t, db))

	qty, err := svc.CurrentQty(ctx, m.ID)
	require.NoError(t, err)
	requireQty(t, "90", qty)
}

func TestUpsertOrderIsIdempotent(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	a := seedMaterial(t, db, "Film", "0", "0")
	b := seedMaterial(t, db, "Glue", "0", "0")
	seedRule(t, db, "film", a.ID, "1")
	seedRule(t, db, "film", b.ID, "0.5")

	snap := snapshot(42, line("Film X", 2), line("Film Y", 1), line("Sticker", 9))
	_, err := svc.UpsertOrder(ctx, snap)
	require.NoError(t, err)
	first := orderMovements(t, db, 42)

	order, err := svc.UpsertOrder(ctx, snap)
	require.NoError(t, err)
	second := orderMovements(t, db, 42)

	require.Len(t, second, len(first))
	assert.Len(t, second, 4)
	for i := range first {
		assert.Equal(t, first[i].MaterialID, second[i].MaterialID)
		requireQty(t, first[i].Qty.String(), second[i].Qty)
	}

	var lines []models.OrderLine
	require.NoError(t, db.Where("order_id = ?", 42).Find(&lines).Error)
	assert.Len(t, lines, 3)
	assert.Len(t, order.Lines, 3)
}

func TestUpsertOrderPreservesLatches(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpsertOrder(ctx, snapshot(7, line("Film", 1)))
	require.NoError(t, err)

	ok, err := svc.ClaimNotification(ctx, 7, LatchClient)
	require.NoError(t, err)
	require.True(t, ok)

	snap := snapshot(7, line("Film", 2))
	snap.Customer = "Another Name"
	order, err := svc.UpsertOrder(ctx, snap)
	require.NoError(t, err)
	assert.True(t, order.ClientNotified)
	assert.False(t, order.ReadyNotified)
	assert.Equal(t, "Another Name", order.Customer)

	var stored models.Order
	require.NoError(t, db.Take(&stored, "id = ?", 7).Error)
	assert.True(t, stored.ClientNotified)
	assert.Equal(t, "Another Name", stored.Customer)
}

func TestUpsertOrderIgnoredSnapshot(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Film", "10", "0")
	seedRule(t, db, "Film", m.ID, "1")

	snap := snapshot(3, line("Film", 4))
	snap.Ignored = boolPtr(true)
	_, err := svc.UpsertOrder(ctx, snap)
	require.NoError(t, err)
	assert.Empty(t, orderMovements(t, db, 3))

	snap.Ignored = boolPtr(false)
	_, err = svc.UpsertOrder(ctx, snap)
	require.NoError(t, err)
	require.Len(t, orderMovements(t, db, 3), 1)
	requireQty(t, "-4", materialSum(t, db, m.ID))
}

func TestUpsertOrderKeepsStoredIgnoredWhenSourceIsSilent(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Film", "10", "0")
	seedRule(t, db, "Film", m.ID, "1")

	_, err := svc.UpsertOrder(ctx, snapshot(5, line("Film", 2)))
	require.NoError(t, err)
	changed, err := svc.SetIgnored(ctx, 5, true)
	require.NoError(t, err)
	require.True(t, changed)
	requireQty(t, "0", materialSum(t, db, m.ID))

	// Re-import with changed lines while ignored: net effect stays zero.
	order, err := svc.UpsertOrder(ctx, snapshot(5, line("Film", 9)))
	require.NoError(t, err)
	assert.True(t, order.Ignored)
	requireQty(t, "0", materialSum(t, db, m.ID))

	// Restore applies the latest lines; the next import changes nothing.
	_, err = svc.SetIgnored(ctx, 5, false)
	require.NoError(t, err)
	requireQty(t, "-9", materialSum(t, db, m.ID))
	_, err = svc.UpsertOrder(ctx, snapshot(5, line("Film", 9)))
	require.NoError(t, err)
	requireQty(t, "-9", materialSum(t, db, m.ID))
}

func TestUpsertOrderUnignoreViaSnapshotAfterManualIgnore(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Film", "0", "-100")
	seedRule(t, db, "Film", m.ID, "1")

	_, err := svc.UpsertOrder(ctx, snapshot(8, line("Film", 2)))
	require.NoError(t, err)
	_, err = svc.SetIgnored(ctx, 8, true)
	require.NoError(t, err)

	snap := snapshot(8, line("Film", 3))
	snap.Ignored = boolPtr(false)
	order, err := svc.UpsertOrder(ctx, snap)
	require.NoError(t, err)
	assert.False(t, order.Ignored)
	requireQty(t, "-3", materialSum(t, db, m.ID))
}

func TestSetIgnoredRoundTrip(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	a := seedMaterial(t, db, "Film", "50", "0")
	b := seedMaterial(t, db, "Glue", "50", "0")
	seedRule(t, db, "Film", a.ID, "2")
	seedRule(t, db, "Film", b.ID, "1")

	_, err := svc.UpsertOrder(ctx, snapshot(11, line("Film", 3)))
	require.NoError(t, err)
	sumA, sumB := materialSum(t, db, a.ID), materialSum(t, db, b.ID)
	rows := countMovements(t, db)
	original := orderMovements(t, db, 11)

	changed, err := svc.SetIgnored(ctx, 11, true)
	require.NoError(t, err)
	assert.True(t, changed)
	requireQty(t, "0", materialSum(t, db, a.ID))
	requireQty(t, "0", materialSum(t, db, b.ID))

	changed, err = svc.SetIgnored(ctx, 11, false)
	require.NoError(t, err)
	assert.True(t, changed)

	requireQty(t, sumA.String(), materialSum(t, db, a.ID))
	requireQty(t, sumB.String(), materialSum(t, db, b.ID))
	assert.Equal(t, rows+4, countMovements(t, db))
	// original rows are untouched
	after := orderMovements(t, db, 11)
	require.Len(t, after, 2)
	assert.Equal(t, original[0].ID, after[0].ID)
	assert.Equal(t, original[1].ID, after[1].ID)

	order, err := svc.GetOrder(ctx, 11)
	require.NoError(t, err)
	assert.False(t, order.Ignored)
}

func TestSetIgnoredRestoreAppliesLinesChangedWhileIgnored(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Film", "100", "0")
	seedRule(t, db, "film a", m.ID, "2")

	_, err := svc.UpsertOrder(ctx, snapshot(21, line("Film A", 3)))
	require.NoError(t, err)
	_, err = svc.SetIgnored(ctx, 21, true)
	require.NoError(t, err)
	_, err = svc.UpsertOrder(ctx, snapshot(21, line("Film A", 5)))
	require.NoError(t, err)

	qty, err := svc.CurrentQty(ctx, m.ID)
	require.NoError(t, err)
	requireQty(t, "100", qty)

	changed, err := svc.SetIgnored(ctx, 21, false)
	require.NoError(t, err)
	require.True(t, changed)

	qty, err = svc.CurrentQty(ctx, m.ID)
	require.NoError(t, err)
	requireQty(t, "90", qty)
	moves := orderMovements(t, db, 21)
	require.Len(t, moves, 1)
	requireQty(t, "-10", moves[0].Qty)

	// a re-import of the same lines leaves the quantity alone
	_, err = svc.UpsertOrder(ctx, snapshot(21, line("Film A", 5)))
	require.NoError(t, err)
	qty, err = svc.CurrentQty(ctx, m.ID)
	require.NoError(t, err)
	requireQty(t, "90", qty)
}

func TestSetIgnoredRestoreOfOrderImportedIgnored(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Film", "20", "0")
	seedRule(t, db, "Film", m.ID, "1")

	snap := snapshot(22, line("Film", 4))
	snap.Ignored = boolPtr(true)
	_, err := svc.UpsertOrder(ctx, snap)
	require.NoError(t, err)
	assert.Empty(t, orderMovements(t, db, 22))

	_, err = svc.SetIgnored(ctx, 22, false)
	require.NoError(t, err)

	qty, err := svc.CurrentQty(ctx, m.ID)
	require.NoError(t, err)
	requireQty(t, "16", qty)
	assert.Len(t, orderMovements(t, db, 22), 1)
}

func TestSetIgnoredTwiceIsNoop(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Film", "50", "0")
	seedRule(t, db, "Film", m.ID, "1")
	_, err := svc.UpsertOrder(ctx, snapshot(12, line("Film", 1)))
	require.NoError(t, err)

	_, err = svc.SetIgnored(ctx, 12, true)
	require.NoError(t, err)
	rows := countMovements(t, db)

	changed, err := svc.SetIgnored(ctx, 12, true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, rows, countMovements(t, db))
}

func TestSetIgnoredMissingOrder(t *testing.T) {
	svc, db, _ := newTestService(t)

	_, err := svc.SetIgnored(context.Background(), 999, true)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, countMovements(t, db))
}

func TestConcurrentUpsertsOfSameOrder(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Film", "0", "-1000")
	seedRule(t, db, "Film", m.ID, "2")

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			_, err := svc.UpsertOrder(ctx, snapshot(77, line("Film", qty)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var lines []models.OrderLine
	require.NoError(t, db.Where("order_id = ?", 77).Find(&lines).Error)
	require.Len(t, lines, 1)

	moves := orderMovements(t, db, 77)
	require.Len(t, moves, 1)
	requireQty(t, dec("-2").Mul(dec(itoa(lines[0].Quantity))).String(), moves[0].Qty)
}

func TestAddAdjustment(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	m := seedMaterial(t, db, "Film", "5", "0")

	mv, err := svc.AddAdjustment(ctx, m.ID, dec("-2.5"))
	require.NoError(t, err)
	assert.Nil(t, mv.OrderID)

	qty, err := svc.CurrentQty(ctx, m.ID)
	require.NoError(t, err)
	requireQty(t, "2.5", qty)

	_, err = svc.AddAdjustment(ctx, 404, dec("1"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClaimNotificationOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.UpsertOrder(ctx, snapshot(9))
	require.NoError(t, err)

	ok, err := svc.ClaimNotification(ctx, 9, LatchReady)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.ClaimNotification(ctx, 9, LatchReady)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.ClaimNotification(ctx, 9, LatchClient)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.ClaimNotification(ctx, 9, Latch("bogus"))
	require.ErrorIs(t, err, ErrInvalidInput)
}

package ledger

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"matstock-backend/internal/database"
	"matstock-backend/internal/models"
	"matstock-backend/internal/notify"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type recordingSink struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recordingSink) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recordingSink) count(c notify.Category) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.Category == c {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *recordingSink) {
	t.Helper()
	db := database.OpenTest(t)
	sink := &recordingSink{}
	return NewService(db, sink, zaptest.NewLogger(t)), db, sink
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireQty(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func seedMaterial(t *testing.T, db *gorm.DB, name, base, min string) models.Material {
	t.Helper()
	m := models.Material{Name: name, Unit: "m", BaseQty: dec(base), MinQty: dec(min)}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func seedRule(t *testing.T, db *gorm.DB, pattern string, materialID uint, qty string) models.MaterialRule {
	t.Helper()
	r := models.MaterialRule{Pattern: pattern, MaterialID: materialID, Qty: dec(qty)}
	require.NoError(t, db.Omit("Material").Create(&r).Error)
	return r
}

func snapshot(id int64, lines ...LineSnapshot) OrderSnapshot {
	return OrderSnapshot{
		ID:         id,
		Number:     "N-" + strconv.FormatInt(id, 10),
		Customer:   "Ivan Petrov",
		CreatedAt:  time.Date(2025, 6, 22, 23, 31, 27, 0, time.UTC),
		TotalPrice: dec("1500"),
		Status:     "novyy",
		Lines:      lines,
	}
}

func line(title string, qty int) LineSnapshot {
	return LineSnapshot{ProductID: 1, Title: title, Quantity: qty}
}

func orderMovements(t *testing.T, db *gorm.DB, orderID int64) []models.StockMovement {
	t.Helper()
	var out []models.StockMovement
	require.NoError(t, db.Where("order_id = ?", orderID).Order("id").Find(&out).Error)
	return out
}

func materialSum(t *testing.T, db *gorm.DB, materialID uint) decimal.Decimal {
	t.Helper()
	var moves []models.StockMovement
	require.NoError(t, db.Where("material_id = ?", materialID).Find(&moves).Error)
	sum := decimal.Zero
	for _, mv := range moves {
		sum = sum.Add(mv.Qty)
	}
	return sum
}

func countMovements(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&n).Error)
	return n
}

func boolPtr(b bool) *bool { return &b }

func itoa(n int) string { return strconv.Itoa(n) }

func newTestDB(t *testing.T) *gorm.DB { return database.OpenTest(t) }

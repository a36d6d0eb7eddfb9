package ledger

import (
	"context"
	"time"

	"matstock-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockLevel bir malzemenin tek sorguda hesaplanmış anlık durumu.
type StockLevel struct {
	ID      uint            `json:"id"`
	Name    string          `json:"name"`
	Unit    string          `json:"unit"`
	MinQty  decimal.Decimal `json:"min_qty"`
	Alerted bool            `json:"alerted"`
	Qty     decimal.Decimal `json:"qty"`
}

// qtyScale numeric(14,3) kolonlarının ondalık hanesi. SQLite bu kolonları
// REAL saklar; toplamlar bu haneye yuvarlanmadan eşik karşılaştırılmaz.
const qtyScale = 3

const stockLevelsSQL = `
SELECT m.id, m.name, m.unit, m.min_qty, m.alerted,
       m.base_qty + COALESCE(SUM(sm.qty), 0) AS qty
FROM materials m
LEFT JOIN stock_movements sm ON sm.material_id = m.id`

// CurrentQty base_qty + Σ hareket. Hesap tek bir SELECT ile yapılır; yazma
// tarafı her siparişin sil+ekle adımlarını tek transaction'da yaptığından
// okuyucu yarım uygulanmış bir değişiklik görmez.
func (s *Service) CurrentQty(ctx context.Context, materialID uint) (decimal.Decimal, error) {
	levels, err := stockLevels(s.db.WithContext(ctx), []uint{materialID})
	if err != nil {
		return decimal.Zero, err
	}
	if len(levels) == 0 {
		return decimal.Zero, ErrNotFound
	}
	return levels[0].Qty, nil
}

// StockLevels tüm malzemelerin anlık miktarını isim sırasıyla döner.
func (s *Service) StockLevels(ctx context.Context) ([]StockLevel, error) {
	return stockLevels(s.db.WithContext(ctx), nil)
}

func stockLevels(db *gorm.DB, ids []uint) ([]StockLevel, error) {
	query := stockLevelsSQL
	var args []any
	if len(ids) > 0 {
		query += "\nWHERE m.id IN ?"
		args = append(args, ids)
	}
	query += "\nGROUP BY m.id, m.name, m.unit, m.min_qty, m.alerted, m.base_qty\nORDER BY m.name"

	var levels []StockLevel
	if err := db.Raw(query, args...).Scan(&levels).Error; err != nil {
		return nil, err
	}
	for i := range levels {
		levels[i].Qty = levels[i].Qty.Round(qtyScale)
		levels[i].MinQty = levels[i].MinQty.Round(qtyScale)
	}
	return levels, nil
}

// HistoryEntry malzeme geçmişindeki tek satır; manuel hareketlerde sipariş bilgisi boştur.
type HistoryEntry struct {
	ID          uint            `json:"id"`
	OrderID     *int64          `json:"order_id"`
	OrderNumber *string         `json:"order_number"`
	Qty         decimal.Decimal `json:"qty"`
	CreatedAt   time.Time       `json:"dt"`
}

// History malzemenin son hareketlerini yeniden eskiye döner.
func (s *Service) History(ctx context.Context, materialID uint, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Material{}).Where("id = ?", materialID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	var out []HistoryEntry
	err := db.Table("stock_movements AS sm").
		Select("sm.id, sm.order_id, o.number AS order_number, sm.qty, sm.created_at").
		Joins("LEFT JOIN orders o ON o.id = sm.order_id").
		Where("sm.material_id = ?", materialID).
		Order("sm.created_at DESC, sm.id DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Qty = out[i].Qty.Round(qtyScale)
	}
	return out, nil
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockMovement: malzeme defterine işlenen işaretli miktar.
// OrderID nil ise manuel düzeltme veya telafi kaydıdır.
type StockMovement struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	MaterialID uint            `gorm:"index;not null" json:"material_id"`
	OrderID    *int64          `gorm:"index" json:"order_id"`
	Qty        decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"qty"`
	CreatedAt  time.Time       `gorm:"index;not null" json:"created_at"`
}

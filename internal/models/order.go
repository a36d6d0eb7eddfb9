package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order: dış mağazadan gelen sipariş. ID harici sipariş numarasıdır ve
// tekrar eden importlarda değişmez.
type Order struct {
	ID             int64           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Number         string          `gorm:"size:64;index;not null" json:"number"`
	Customer       string          `gorm:"size:255" json:"customer"`
	Status         string          `gorm:"size:64" json:"status"`
	Source         string          `gorm:"size:128" json:"source"`
	CreatedAt      time.Time       `gorm:"index;not null" json:"created_at"`
	Ignored        bool            `gorm:"not null;default:false" json:"ignored"`
	TotalPrice     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_price"`
	ReadyNotified  bool            `gorm:"not null;default:false" json:"ready_notified"`
	ClientNotified bool            `gorm:"not null;default:false" json:"client_notified"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Lines []OrderLine `gorm:"constraint:OnDelete:CASCADE" json:"lines"`
}

// OrderLine: her upsert'te siparişin tüm satırları silinip yeniden yazılır.
type OrderLine struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	OrderID      int64  `gorm:"index;not null" json:"-"`
	ProductID    int64  `gorm:"not null" json:"product_id"`
	ProductTitle string `gorm:"size:512;not null" json:"product_title"`
	Quantity     int    `gorm:"not null" json:"quantity"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material: takip edilen sarf malzemesi. Anlık miktar saklanmaz,
// BaseQty + hareketlerin toplamı olarak hesaplanır.
type Material struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Unit      string          `gorm:"size:20;not null;default:adet" json:"unit"`
	BaseQty   decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"base_qty"`
	MinQty    decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"min_qty"`
	Alerted   bool            `gorm:"not null;default:false" json:"alerted"` // low-stock bildirimi bu düşüşte gönderildi mi
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MaterialRule: ürün başlığında geçen alt dizeye göre malzeme düşümü.
type MaterialRule struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Pattern    string          `gorm:"size:255;not null" json:"pattern"`
	MaterialID uint            `gorm:"index;not null" json:"material_id"`
	Material   Material        `gorm:"constraint:OnDelete:CASCADE" json:"material"`
	Qty        decimal.Decimal `gorm:"type:numeric(14,3);not null;default:1" json:"qty"` // satır adedi başına tüketim
	CreatedAt  time.Time       `json:"created_at"`
}

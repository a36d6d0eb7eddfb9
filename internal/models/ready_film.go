package models

import "time"

// ReadyFilm: hazır ürün siparişindeki satırların anlık kopyası.
// Her döngüde tamamen yenilenir, bakiye tutmaz.
type ReadyFilm struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	SKU       string    `gorm:"size:128" json:"sku"`
	Title     string    `gorm:"size:512;not null;index" json:"title"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

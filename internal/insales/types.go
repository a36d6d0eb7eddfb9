package insales

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"matstock-backend/internal/ledger"

	"github.com/shopspring/decimal"
)

// Order InSales admin API'sinin döndürdüğü siparişin kullandığımız alanları.
type Order struct {
	ID           int64           `json:"id"`
	Number       flexString      `json:"number"`
	Client       *OrderClient    `json:"client"`
	CreatedAt    time.Time       `json:"created_at"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	CustomStatus *CustomStatus   `json:"custom_status"`
	Source       string          `json:"source"`
	OrderLines   []OrderLine     `json:"order_lines"`
}

type OrderClient struct {
	FullName string `json:"full_name"`
}

type CustomStatus struct {
	Permalink string `json:"permalink"`
	Title     string `json:"title"`
}

type OrderLine struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	SKU       string `json:"sku"`
}

// flexString hem "1001" hem 1001 olarak gelen alanları kabul eder.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Status özel durumun permalink'i; tanımlı değilse boş.
func (o Order) Status() string {
	if o.CustomStatus == nil {
		return ""
	}
	return o.CustomStatus.Permalink
}

func (o Order) Customer() string {
	if o.Client == nil {
		return ""
	}
	return strings.TrimSpace(o.Client.FullName)
}

// Lines satırları mutabakat girdisine çevirir.
func (o Order) Lines() []ledger.LineSnapshot {
	out := make([]ledger.LineSnapshot, 0, len(o.OrderLines))
	for _, ln := range o.OrderLines {
		qty := ln.Quantity
		if qty < 0 {
			qty = 0
		}
		out = append(out, ledger.LineSnapshot{
			ProductID: ln.ProductID,
			SKU:       ln.SKU,
			Title:     ln.Title,
			Quantity:  qty,
		})
	}
	return out
}

// Snapshot siparişi Reconciler'ın beklediği hale getirir. InSales "ignored"
// bilgisi taşımadığı için Ignored nil bırakılır; kayıtlı değer korunur.
func (o Order) Snapshot() ledger.OrderSnapshot {
	number := string(o.Number)
	if number == "" {
		number = strconv.FormatInt(o.ID, 10)
	}
	return ledger.OrderSnapshot{
		ID:         o.ID,
		Number:     number,
		Customer:   o.Customer(),
		CreatedAt:  o.CreatedAt.UTC(),
		TotalPrice: o.TotalPrice,
		Status:     o.Status(),
		Source:     o.Source,
		Lines:      o.Lines(),
	}
}

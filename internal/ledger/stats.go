package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ConsumptionTotal struct {
	Material string          `json:"material"`
	Spent    decimal.Decimal `json:"spent"`
}

// StatsWindow year/month verilirse o takvim ayını, verilmezse bir yıl önceki
// ayın ilk gününden yarına kadar olan aralığı döner.
func StatsWindow(now time.Time, year, month int) (time.Time, time.Time) {
	now = now.UTC()
	if year > 0 && month >= 1 && month <= 12 {
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start := time.Date(now.Year()-1, now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return start, end
}

// Totals aralıktaki net tüketimi malzeme bazında verir: max(0, -Σqty).
// İade ve telafi kayıtları da toplama dahildir.
func (s *Service) Totals(ctx context.Context, from, to time.Time) ([]ConsumptionTotal, error) {
	var rows []struct {
		Name   string
		SumQty decimal.Decimal
	}
	err := s.db.WithContext(ctx).
		Table("stock_movements AS sm").
		Select("m.name AS name, SUM(sm.qty) AS sum_qty").
		Joins("JOIN materials m ON m.id = sm.material_id").
		Where("sm.created_at >= ? AND sm.created_at < ?", from.UTC(), to.UTC()).
		Group("m.name").
		Order("m.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]ConsumptionTotal, 0, len(rows))
	for _, r := range rows {
		spent := r.SumQty.Round(qtyScale).Neg()
		if spent.IsNegative() {
			spent = decimal.Zero
		}
		out = append(out, ConsumptionTotal{Material: r.Name, Spent: spent})
	}
	return out, nil
}

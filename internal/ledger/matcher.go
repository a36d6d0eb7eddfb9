package ledger

import (
	"strings"

	"matstock-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Deduction kural eşleşmesinden doğan tek bir stok hareketi adayıdır.
type Deduction struct {
	MaterialID uint
	Qty        decimal.Decimal
}

// Match her satırı her kuralla karşılaştırır. Kural deseni (küçük harfe
// çevrilmiş) ürün başlığında geçiyorsa -(rule.Qty * line.Quantity) kadar
// düşüm üretir. Öncelik yoktur; eşleşen her kural ayrı hareket üretir.
func Match(lines []models.OrderLine, rules []models.MaterialRule) []Deduction {
	if len(lines) == 0 || len(rules) == 0 {
		return nil
	}

	patterns := make([]string, len(rules))
	for i, r := range rules {
		patterns[i] = strings.ToLower(r.Pattern)
	}

	var out []Deduction
	for _, ln := range lines {
		title := strings.ToLower(ln.ProductTitle)
		for i, r := range rules {
			if !strings.Contains(title, patterns[i]) {
				continue
			}
			out = append(out, Deduction{
				MaterialID: r.MaterialID,
				Qty:        r.Qty.Mul(decimal.NewFromInt(int64(ln.Quantity))).Neg(),
			})
		}
	}
	return out
}

// MatchOrder yok sayılan siparişler için boş kural kümesiyle eşleştirir.
func MatchOrder(lines []models.OrderLine, rules []models.MaterialRule, ignored bool) []Deduction {
	if ignored {
		return nil
	}
	return Match(lines, rules)
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matstock-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderSnapshot dış kaynaktan (veya manuel olarak) gelen siparişin son hali.
type OrderSnapshot struct {
	ID         int64
	Number     string
	Customer   string
	CreatedAt  time.Time
	Ignored    *bool // nil: kaynak bilgi vermiyor, kayıtlı değer korunur
	TotalPrice decimal.Decimal
	Status     string // custom_status.permalink
	Source     string
	Lines      []LineSnapshot
}

type LineSnapshot struct {
	ProductID int64
	SKU       string
	Title     string
	Quantity  int
}

// UpsertOrder siparişi son hâline getirir: alanları günceller, satırları
// ve siparişe bağlı hareketleri tamamen silip yeniden yazar. Aynı snapshot
// ile tekrar çağrılması sonucu değiştirmez. Bildirim bayrakları korunur.
func (s *Service) UpsertOrder(ctx context.Context, snap OrderSnapshot) (*models.Order, error) {
	if snap.ID == 0 {
		return nil, fmt.Errorf("%w: sipariş id boş", ErrInvalidInput)
	}

	unlock := s.locks.lock(snap.ID)
	defer unlock()

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", snap.ID).Take(&order).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		wasIgnored := found && order.Ignored
		ignored := wasIgnored
		if snap.Ignored != nil {
			ignored = *snap.Ignored
		}

		if !found {
			order = models.Order{
				ID:         snap.ID,
				Number:     snap.Number,
				Customer:   snap.Customer,
				Status:     snap.Status,
				Source:     snap.Source,
				CreatedAt:  snap.CreatedAt,
				Ignored:    ignored,
				TotalPrice: snap.TotalPrice,
			}
			if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
				return fmt.Errorf("sipariş oluşturulamadı: %w", err)
			}
		} else {
			// Bayraklar (ready/client_notified) bilinçli olarak güncellenmez.
			fields := map[string]any{
				"customer":    snap.Customer,
				"status":      snap.Status,
				"source":      snap.Source,
				"ignored":     ignored,
				"total_price": snap.TotalPrice,
				"updated_at":  s.now(),
			}
			if !snap.CreatedAt.IsZero() {
				fields["created_at"] = snap.CreatedAt
				order.CreatedAt = snap.CreatedAt
			}
			if err := tx.Model(&models.Order{}).Where("id = ?", snap.ID).Updates(fields).Error; err != nil {
				return fmt.Errorf("sipariş güncellenemedi: %w", err)
			}
			order.Customer = snap.Customer
			order.Status = snap.Status
			order.Source = snap.Source
			order.Ignored = ignored
			order.TotalPrice = snap.TotalPrice
		}

		lines, err := replaceLines(tx, snap)
		if err != nil {
			return err
		}
		order.Lines = lines

		switch {
		case wasIgnored && ignored:
			// Bağlı hareketler telafi kayıtlarıyla zaten sıfırlanmış durumda;
			// silinirlerse telafi kayıtları tek başına kalır.
			return nil
		case wasIgnored && !ignored:
			if err := compensate(tx, snap.ID, false, s.now()); err != nil {
				return err
			}
		}
		return s.replaceMovements(tx, snap.ID, lines, ignored)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func replaceLines(tx *gorm.DB, snap OrderSnapshot) ([]models.OrderLine, error) {
	if err := tx.Where("order_id = ?", snap.ID).Delete(&models.OrderLine{}).Error; err != nil {
		return nil, fmt.Errorf("sipariş satırları silinemedi: %w", err)
	}
	lines := make([]models.OrderLine, 0, len(snap.Lines))
	for _, ln := range snap.Lines {
		lines = append(lines, models.OrderLine{
			OrderID:      snap.ID,
			ProductID:    ln.ProductID,
			ProductTitle: ln.Title,
			Quantity:     ln.Quantity,
		})
	}
	if len(lines) > 0 {
		if err := tx.Create(&lines).Error; err != nil {
			return nil, fmt.Errorf("sipariş satırları yazılamadı: %w", err)
		}
	}
	return lines, nil
}

func (s *Service) replaceMovements(tx *gorm.DB, orderID int64, lines []models.OrderLine, ignored bool) error {
	deductions, err := deductionsFor(tx, lines, ignored)
	if err != nil {
		return err
	}
	return s.writeMovements(tx, orderID, deductions)
}

func deductionsFor(tx *gorm.DB, lines []models.OrderLine, ignored bool) ([]Deduction, error) {
	var rules []models.MaterialRule
	if err := tx.Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("kurallar okunamadı: %w", err)
	}
	return MatchOrder(lines, rules, ignored), nil
}

// writeMovements siparişe bağlı hareketleri verilen düşümlerle değiştirir.
func (s *Service) writeMovements(tx *gorm.DB, orderID int64, deductions []Deduction) error {
	if err := tx.Where("order_id = ?", orderID).Delete(&models.StockMovement{}).Error; err != nil {
		return fmt.Errorf("eski hareketler silinemedi: %w", err)
	}
	if len(deductions) == 0 {
		return nil
	}

	now := s.now()
	moves := make([]models.StockMovement, 0, len(deductions))
	for _, d := range deductions {
		id := orderID
		moves = append(moves, models.StockMovement{
			MaterialID: d.MaterialID,
			OrderID:    &id,
			Qty:        d.Qty,
			CreatedAt:  now,
		})
	}
	if err := tx.Create(&moves).Error; err != nil {
		return fmt.Errorf("hareketler yazılamadı: %w", err)
	}
	return nil
}

// compensate siparişe bağlı her hareket için order_id'siz bir telafi kaydı
// ekler. Yok sayarken etkiyi geri alır, geri açarken etkiyi tekrar uygular;
// böylece iki yönlü geçiş net toplamı değiştirmez. Orijinal kayıtlara dokunmaz.
func compensate(tx *gorm.DB, orderID int64, ignore bool, now time.Time) error {
	var tied []models.StockMovement
	if err := tx.Where("order_id = ?", orderID).Order("id").Find(&tied).Error; err != nil {
		return fmt.Errorf("siparişe bağlı hareketler okunamadı: %w", err)
	}
	if len(tied) == 0 {
		return nil
	}

	comps := make([]models.StockMovement, 0, len(tied))
	for _, mv := range tied {
		qty := mv.Qty
		if ignore {
			qty = qty.Neg()
		}
		comps = append(comps, models.StockMovement{
			MaterialID: mv.MaterialID,
			Qty:        qty,
			CreatedAt:  now,
		})
	}
	if err := tx.Create(&comps).Error; err != nil {
		return fmt.Errorf("telafi hareketleri yazılamadı: %w", err)
	}
	return nil
}

// SetIgnored siparişi stok etkisinden çıkarır (ignore=true) veya geri alır.
// Sipariş zaten istenen durumdaysa hiçbir şey yazmaz. Geri alırken bağlı
// hareketler güncel satırların kural çıktısıyla aynı değilse (yok sayılıyken
// yeniden import edilmiş sipariş) güncel satırlardan yeniden yazılır.
// Etkilenen malzemeler için alarm kontrolü commit sonrası çalışır.
func (s *Service) SetIgnored(ctx context.Context, orderID int64, ignore bool) (bool, error) {
	unlock := s.locks.lock(orderID)
	defer unlock()

	changed := false
	var materialIDs []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("id = ?", orderID).Take(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if order.Ignored == ignore {
			return nil
		}

		var tied []models.StockMovement
		if err := tx.Where("order_id = ?", orderID).Find(&tied).Error; err != nil {
			return fmt.Errorf("siparişe bağlı hareketler okunamadı: %w", err)
		}
		for _, mv := range tied {
			materialIDs = append(materialIDs, mv.MaterialID)
		}

		if err := compensate(tx, orderID, ignore, s.now()); err != nil {
			return err
		}
		if !ignore {
			rebuilt, err := s.refreshTied(tx, orderID, tied)
			if err != nil {
				return err
			}
			materialIDs = append(materialIDs, rebuilt...)
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).
			Updates(map[string]any{"ignored": ignore, "updated_at": s.now()}).Error; err != nil {
			return fmt.Errorf("sipariş güncellenemedi: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.log.Info("Sipariş durumu değişti",
			zap.Int64("order_id", orderID),
			zap.Bool("ignored", ignore),
			zap.Int("materials", len(materialIDs)))
		s.checkAlertsQuietly(ctx, materialIDs...)
	}
	return changed, nil
}

// refreshTied bağlı hareketler güncel satırların kural çıktısından farklıysa
// onları yeniden yazar ve yeni hareketlerin malzemelerini döner. Aynıysa
// orijinal kayıtlara dokunmaz.
func (s *Service) refreshTied(tx *gorm.DB, orderID int64, tied []models.StockMovement) ([]uint, error) {
	var lines []models.OrderLine
	if err := tx.Where("order_id = ?", orderID).Order("id").Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("sipariş satırları okunamadı: %w", err)
	}
	want, err := deductionsFor(tx, lines, false)
	if err != nil {
		return nil, err
	}
	if sameDeductions(tied, want) {
		return nil, nil
	}
	if err := s.writeMovements(tx, orderID, want); err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(want))
	for _, d := range want {
		ids = append(ids, d.MaterialID)
	}
	return ids, nil
}

// sameDeductions iki kümeyi (material_id, qty) çoklu kümesi olarak karşılaştırır.
func sameDeductions(tied []models.StockMovement, want []Deduction) bool {
	if len(tied) != len(want) {
		return false
	}
	counts := make(map[string]int, len(want))
	for _, d := range want {
		counts[deductionKey(d.MaterialID, d.Qty)]++
	}
	for _, mv := range tied {
		k := deductionKey(mv.MaterialID, mv.Qty)
		if counts[k] == 0 {
			return false
		}
		counts[k]--
	}
	return true
}

func deductionKey(materialID uint, qty decimal.Decimal) string {
	return fmt.Sprintf("%d:%s", materialID, qty.Round(qtyScale).String())
}

// AddAdjustment malzemeye order_id'siz manuel hareket ekler.
func (s *Service) AddAdjustment(ctx context.Context, materialID uint, delta decimal.Decimal) (*models.StockMovement, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Material{}).Where("id = ?", materialID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	mv := models.StockMovement{
		MaterialID: materialID,
		Qty:        delta,
		CreatedAt:  s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&mv).Error; err != nil {
		return nil, fmt.Errorf("düzeltme kaydedilemedi: %w", err)
	}

	s.checkAlertsQuietly(ctx, materialID)
	return &mv, nil
}

// ClaimNotification bayrağı atomik olarak false'tan true'ya çeker. true
// dönerse bildirimi gönderme hakkı çağırana aittir.
func (s *Service) ClaimNotification(ctx context.Context, orderID int64, latch Latch) (bool, error) {
	column, err := latch.column()
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND "+column+" = ?", orderID, false).
		Update(column, true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type Latch string

const (
	LatchReady  Latch = "ready"
	LatchClient Latch = "client"
)

func (l Latch) column() (string, error) {
	switch l {
	case LatchReady:
		return "ready_notified", nil
	case LatchClient:
		return "client_notified", nil
	}
	return "", fmt.Errorf("%w: bilinmeyen bildirim bayrağı %q", ErrInvalidInput, string(l))
}

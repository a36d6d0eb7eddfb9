package ledger

import (
	"context"
	"fmt"

	"matstock-backend/internal/models"
	"matstock-backend/internal/notify"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type alertTransition int

const (
	alertNone alertTransition = iota
	alertFire
	alertClear
)

// nextAlert kenar tetiklemeli eşik kuralı: eşiğin altına her inişte bir kez
// bildirim, tekrar yükselişte sessizce sıfırlama.
func nextAlert(qty, min decimal.Decimal, alerted bool) alertTransition {
	switch {
	case qty.LessThanOrEqual(min) && !alerted:
		return alertFire
	case qty.GreaterThan(min) && alerted:
		return alertClear
	default:
		return alertNone
	}
}

// CheckAlerts verilen malzemeler (boşsa tümü) için alarm durumunu günceller.
// Bayrak koşullu UPDATE ile çevrilir; eşzamanlı iki kontrol aynı düşüş için
// iki bildirim gönderemez.
func (s *Service) CheckAlerts(ctx context.Context, materialIDs ...uint) error {
	levels, err := stockLevels(s.db.WithContext(ctx), materialIDs)
	if err != nil {
		return fmt.Errorf("stok seviyeleri okunamadı: %w", err)
	}

	for _, lv := range levels {
		switch nextAlert(lv.Qty, lv.MinQty, lv.Alerted) {
		case alertFire:
			claimed, err := s.flipAlerted(ctx, lv.ID, true)
			if err != nil {
				return err
			}
			if !claimed {
				continue
			}
			s.log.Info("Düşük stok alarmı",
				zap.String("material", lv.Name),
				zap.String("qty", lv.Qty.String()),
				zap.String("min_qty", lv.MinQty.String()))
			if err := s.notifier.Send(ctx, notify.Message{
				Category: notify.CategoryLowStock,
				Text:     LowStockText(lv),
			}); err != nil {
				s.log.Error("Düşük stok bildirimi gönderilemedi", zap.Error(err))
			}
		case alertClear:
			if _, err := s.flipAlerted(ctx, lv.ID, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) flipAlerted(ctx context.Context, materialID uint, to bool) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Material{}).
		Where("id = ? AND alerted = ?", materialID, !to).
		Update("alerted", to)
	if res.Error != nil {
		return false, fmt.Errorf("alarm bayrağı güncellenemedi: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *Service) checkAlertsQuietly(ctx context.Context, materialIDs ...uint) {
	if len(materialIDs) == 0 {
		return
	}
	if err := s.CheckAlerts(ctx, materialIDs...); err != nil {
		s.log.Error("Alarm kontrolü başarısız", zap.Error(err))
	}
}

func LowStockText(lv StockLevel) string {
	return fmt.Sprintf("⚠️ «%s» stoku minimuma ulaştı (%s ≤ %s %s)",
		lv.Name, lv.Qty.String(), lv.MinQty.String(), lv.Unit)
}

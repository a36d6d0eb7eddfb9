package ledger

import (
	"context"
	"fmt"
	"time"

	"matstock-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sweeper saklama süresini aşan stok hareketlerini periyodik olarak siler.
// Sipariş, malzeme ve kurallara dokunmaz; mutabakattan bağımsız çalışır.
type Sweeper struct {
	db        *gorm.DB
	log       *zap.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewSweeper(db *gorm.DB, retentionDays int, interval time.Duration, log *zap.Logger) *Sweeper {
	if retentionDays <= 0 {
		retentionDays = 365
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{
		db:        db,
		log:       log.Named("sweeper"),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce kesim tarihinden eski hareketleri siler ve silinen satır sayısını döner.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.StockMovement{})
	if res.Error != nil {
		return 0, fmt.Errorf("eski hareketler silinemedi: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Run ctx iptal edilene kadar temizlik yapar; iki temizlik arasında en az
// interval kadar bekler.
func (s *Sweeper) Run(ctx context.Context) {
	for {
		s.sweep(ctx)

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Temizlik döngüsünde panic", zap.Any("panic", r))
		}
	}()

	n, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error("Temizlik başarısız", zap.Error(err))
		return
	}
	s.log.Info("Eski hareketler temizlendi", zap.Int64("deleted", n))
}

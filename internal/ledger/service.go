package ledger

import (
	"time"

	"matstock-backend/internal/notify"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service malzeme defterinin tek yazma noktasıdır: sipariş mutabakatı,
// manuel düzeltmeler, miktar hesapları ve düşük stok alarmları buradan geçer.
type Service struct {
	db       *gorm.DB
	notifier notify.Sink
	log      *zap.Logger
	locks    *orderLocks
	now      func() time.Time
}

func NewService(db *gorm.DB, notifier notify.Sink, log *zap.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		db:       db,
		notifier: notifier,
		log:      log.Named("ledger"),
		locks:    newOrderLocks(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) DB() *gorm.DB { return s.db }

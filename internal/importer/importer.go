package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"matstock-backend/internal/insales"
	"matstock-backend/internal/ledger"
	"matstock-backend/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderSource dış sipariş kaynağı (InSales).
type OrderSource interface {
	FetchRecentOrders(ctx context.Context, limit int) ([]insales.Order, error)
	FetchOrderByID(ctx context.Context, id int64) (*insales.Order, error)
}

type Options struct {
	Limit             int
	Interval          time.Duration
	ReadyOrderID      int64
	ClientOrderStatus string
}

// Importer arka planda siparişleri çekip deftere işler, sipariş bildirimlerini
// gönderir ve döngü sonunda alarm kontrolünü çalıştırır.
type Importer struct {
	source   OrderSource
	ledger   *ledger.Service
	notifier notify.Sink
	opts     Options
	log      *zap.Logger

	runMu sync.Mutex // manuel import ile arka plan döngüsü aynı anda çalışmaz

	mu     sync.RWMutex
	status Status
}

func New(source OrderSource, svc *ledger.Service, notifier notify.Sink, opts Options, log *zap.Logger) *Importer {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Importer{
		source:   source,
		ledger:   svc,
		notifier: notifier,
		opts:     opts,
		log:      log.Named("importer"),
		status:   Status{Phase: PhaseIdle},
	}
}

// Run ctx iptal edilene kadar döngüyü çalıştırır. Tek bir döngünün hatası
// veya panic'i loglanır, bekleme sonrası yeniden denenir. Bekleme her
// döngü bittikten sonra başlar; uzun süren bir döngü beklemeyi kısaltmaz.
func (im *Importer) Run(ctx context.Context) {
	im.log.Info("Import döngüsü başladı",
		zap.Duration("interval", im.opts.Interval),
		zap.Int("limit", im.opts.Limit))

	for {
		im.safeCycle(ctx)

		im.setPhase(PhaseSleeping)
		timer := time.NewTimer(im.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			im.setPhase(PhaseIdle)
			im.log.Info("Import döngüsü durdu")
			return
		case <-timer.C:
		}
	}
}

func (im *Importer) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			im.finish(Result{}, err)
			im.log.Error("Import döngüsünde panic", zap.Any("panic", r))
		}
	}()
	if _, err := im.RunOnce(ctx); err != nil {
		im.log.Error("Import döngüsü başarısız", zap.Error(err))
	}
}

// Result tek bir döngünün özeti.
type Result struct {
	Orders         int `json:"orders"`
	Failed         int `json:"failed"`
	ReadyFilms     int `json:"ready_films"`
	ClientNotified int `json:"client_notified"`
	ReadyNotified  int `json:"ready_notified"`
}

// RunOnce tam bir döngü çalıştırır: hazır film snapshot'ı, son siparişler,
// bildirim bayrakları ve alarm kontrolü.
func (im *Importer) RunOnce(ctx context.Context) (Result, error) {
	im.runMu.Lock()
	defer im.runMu.Unlock()

	im.start()
	var res Result

	im.setPhase(PhaseFetching)
	readyCount, err := im.refreshReadyFilms(ctx)
	if err != nil {
		// hazır film listesi alınamasa da siparişler işlenir; eski liste kullanılır
		im.log.Warn("Hazır film siparişi alınamadı", zap.Error(err))
	}
	res.ReadyFilms = readyCount

	readyTitles, err := im.ledger.ReadyTitles(ctx)
	if err != nil {
		im.finish(res, err)
		return res, fmt.Errorf("hazır film listesi okunamadı: %w", err)
	}

	orders, err := im.source.FetchRecentOrders(ctx, im.opts.Limit)
	if err != nil {
		im.finish(res, err)
		return res, err
	}

	im.setPhase(PhaseReconciling)
	for _, o := range orders {
		if im.isReadyOrder(o) {
			continue
		}
		snap := o.Snapshot()
		if _, err := im.ledger.UpsertOrder(ctx, snap); err != nil {
			res.Failed++
			im.log.Error("Sipariş işlenemedi", zap.Int64("order_id", snap.ID), zap.Error(err))
			continue
		}
		res.Orders++

		im.setPhase(PhaseNotifying)
		im.notifyOrder(ctx, snap, readyTitles, &res)
		im.setPhase(PhaseReconciling)
	}

	if err := im.ledger.CheckAlerts(ctx); err != nil {
		im.finish(res, err)
		return res, fmt.Errorf("alarm kontrolü başarısız: %w", err)
	}

	im.finish(res, nil)
	im.log.Info("Import döngüsü tamamlandı",
		zap.Int("orders", res.Orders),
		zap.Int("failed", res.Failed),
		zap.Int("ready_films", res.ReadyFilms),
		zap.Int("client_notified", res.ClientNotified),
		zap.Int("ready_notified", res.ReadyNotified))
	return res, nil
}

// ImportRecent manuel import: son siparişleri çekip deftere işler, bildirim
// göndermez. Kaynak erişilemezse hata çağırana döner.
func (im *Importer) ImportRecent(ctx context.Context) (int, error) {
	im.runMu.Lock()
	defer im.runMu.Unlock()

	orders, err := im.source.FetchRecentOrders(ctx, im.opts.Limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, o := range orders {
		if im.isReadyOrder(o) {
			continue
		}
		if _, err := im.ledger.UpsertOrder(ctx, o.Snapshot()); err != nil {
			return n, fmt.Errorf("sipariş %d işlenemedi: %w", o.ID, err)
		}
		n++
	}
	if err := im.ledger.CheckAlerts(ctx); err != nil {
		im.log.Error("Alarm kontrolü başarısız", zap.Error(err))
	}
	return n, nil
}

func (im *Importer) isReadyOrder(o insales.Order) bool {
	if im.opts.ReadyOrderID == 0 {
		return false
	}
	return o.ID == im.opts.ReadyOrderID || string(o.Number) == strconv.FormatInt(im.opts.ReadyOrderID, 10)
}

func (im *Importer) refreshReadyFilms(ctx context.Context) (int, error) {
	if im.opts.ReadyOrderID == 0 {
		return 0, nil
	}
	ready, err := im.source.FetchOrderByID(ctx, im.opts.ReadyOrderID)
	if err != nil {
		return 0, err
	}
	if ready == nil {
		im.log.Warn("Hazır film siparişi bulunamadı", zap.Int64("order_id", im.opts.ReadyOrderID))
		return 0, nil
	}
	lines := ready.Lines()
	if err := im.ledger.ReplaceReadyFilms(ctx, lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

func (im *Importer) notifyOrder(ctx context.Context, snap ledger.OrderSnapshot, readyTitles map[string]struct{}, res *Result) {
	if im.opts.ClientOrderStatus != "" && snap.Status == im.opts.ClientOrderStatus {
		if im.claim(ctx, snap.ID, ledger.LatchClient) {
			im.send(ctx, notify.CategoryClientOrder, ClientOrderText(snap))
			res.ClientNotified++
		}
	}

	hits := readyHits(snap.Lines, readyTitles)
	if len(hits) > 0 && im.claim(ctx, snap.ID, ledger.LatchReady) {
		im.send(ctx, notify.CategoryReadyStock, ReadyStockText(snap, hits))
		res.ReadyNotified++
	}
}

func (im *Importer) claim(ctx context.Context, orderID int64, latch ledger.Latch) bool {
	ok, err := im.ledger.ClaimNotification(ctx, orderID, latch)
	if err != nil {
		im.log.Error("Bildirim bayrağı alınamadı",
			zap.Int64("order_id", orderID),
			zap.String("latch", string(latch)),
			zap.Error(err))
		return false
	}
	return ok
}

func (im *Importer) send(ctx context.Context, c notify.Category, text string) {
	if err := im.notifier.Send(ctx, notify.Message{Category: c, Text: text}); err != nil {
		im.log.Error("Bildirim gönderilemedi", zap.String("category", string(c)), zap.Error(err))
	}
}

func readyHits(lines []ledger.LineSnapshot, titles map[string]struct{}) []string {
	if len(titles) == 0 {
		return nil
	}
	var hits []string
	for _, ln := range lines {
		if _, ok := titles[ln.Title]; ok {
			hits = append(hits, ln.Title)
		}
	}
	return hits
}

func ClientOrderText(snap ledger.OrderSnapshot) string {
	customer := snap.Customer
	if customer == "" {
		customer = "bilinmeyen müşteri"
	}
	return fmt.Sprintf("📞 Yeni müşteri siparişi #%s, %s, tutar %s", snap.Number, customer, snap.TotalPrice.String())
}

func ReadyStockText(snap ledger.OrderSnapshot, hits []string) string {
	source := snap.Source
	if source == "" {
		source = "bilinmiyor"
	}
	return fmt.Sprintf("✅ #%s siparişinde hazır film var (%s): %s", snap.Number, source, strings.Join(hits, ", "))
}

func newRunID() string { return uuid.NewString() }

package cli

import (
	"fmt"
	"os"

	"matstock-backend/internal/config"
	"matstock-backend/internal/database"
	"matstock-backend/internal/importer"
	"matstock-backend/internal/insales"
	"matstock-backend/internal/ledger"
	"matstock-backend/internal/logger"
	"matstock-backend/internal/notify"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewRootCommand matstock komut ağacını kurar.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "matstock",
		Short:         "Malzeme stok defteri ve InSales sipariş mutabakatı",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newImportCommand())
	cmd.AddCommand(newSweepCommand())
	cmd.AddCommand(newCreateUserCommand())
	return cmd
}

// Execute main'den çağrılır.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hata:", err)
		os.Exit(1)
	}
}

// app komutların paylaştığı bağımlılıklar.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	notifier notify.Sink
	ledger   *ledger.Service
}

func bootstrap() (*app, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger başlatılamadı: %w", err)
	}

	db, err := database.Init(cfg, log)
	if err != nil {
		return nil, err
	}

	notifier := notify.NewTelegram(notify.TelegramConfig{
		Token:      cfg.Telegram.Token,
		StockChat:  cfg.Telegram.StockChat,
		FilmChat:   cfg.Telegram.FilmChat,
		ClientChat: cfg.Telegram.ClientChat,
	}, log)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		notifier: notifier,
		ledger:   ledger.NewService(db, notifier, log),
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

func (a *app) importer() *importer.Importer {
	c := a.cfg.InSales
	client := insales.NewClient(insales.Config{
		BaseURL:        c.BaseURL(),
		APIKey:         c.APIKey,
		APIPassword:    c.APIPassword,
		ConnectTimeout: c.ConnectTimeout,
		ReadTimeout:    c.ReadTimeout,
		Retries:        c.Retries,
		RetryPause:     c.RetryPause,
	}, a.log)

	return importer.New(client, a.ledger, a.notifier, importer.Options{
		Limit:             a.cfg.Import.Limit,
		Interval:          a.cfg.Import.Interval,
		ReadyOrderID:      a.cfg.Import.ReadyOrderID,
		ClientOrderStatus: a.cfg.Import.ClientOrderStatus,
	}, a.log)
}

func (a *app) sweeper() *ledger.Sweeper {
	return ledger.NewSweeper(a.db, a.cfg.RetentionDays, a.cfg.RetentionInterval, a.log)
}

package cli

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"matstock-backend/internal/notify"
	"matstock-backend/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	var noBackground bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTP API'yi, import döngüsünü ve temizlik görevini başlatır",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), a, !noBackground)
		},
	}
	cmd.Flags().BoolVar(&noBackground, "no-background", false, "import döngüsünü ve temizlik görevini çalıştırma")
	return cmd
}

func serve(parent context.Context, a *app, background bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	im := a.importer()
	httpApp := server.New(server.Deps{
		Config:   a.cfg,
		Ledger:   a.ledger,
		Importer: im,
		Log:      a.log,
	})

	var wg sync.WaitGroup
	if background {
		wg.Add(2)
		go func() {
			defer wg.Done()
			im.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			a.sweeper().Run(ctx)
		}()
	}

	if err := a.notifier.Send(ctx, notify.Message{
		Category: notify.CategoryInfo,
		Text:     "🔔 Bildirimler aktif, stok takibi başladı",
	}); err != nil {
		a.log.Warn("Başlangıç mesajı gönderilemedi", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP sunucusu başlıyor", zap.String("port", a.cfg.HTTPPort))
		errCh <- httpApp.Listen(":" + a.cfg.HTTPPort)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info("Kapatma sinyali alındı")
	case serveErr = <-errCh:
		stop()
	}

	if err := httpApp.ShutdownWithTimeout(10 * time.Second); err != nil {
		a.log.Error("HTTP sunucusu düzgün kapatılamadı", zap.Error(err))
	}
	wg.Wait()

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	a.log.Info("Sunucu durdu")
	return nil
}

package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const telegramAPI = "https://api.telegram.org"

type TelegramConfig struct {
	Token      string
	StockChat  string // düşük stok ve bilgi mesajları
	FilmChat   string // hazır film bildirimleri
	ClientChat string // yeni müşteri siparişleri
	BaseURL    string // test için; boşsa api.telegram.org
}

// Telegram mesajları kategoriye göre üç sohbetten birine yollar.
// Token veya sohbet tanımlı değilse mesaj loglanıp atlanır.
type Telegram struct {
	cfg        TelegramConfig
	httpClient *http.Client
	log        *zap.Logger
}

func NewTelegram(cfg TelegramConfig, log *zap.Logger) *Telegram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = telegramAPI
	}
	return &Telegram{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.Named("telegram"),
	}
}

func (t *Telegram) chatFor(c Category) string {
	switch c {
	case CategoryReadyStock:
		return t.cfg.FilmChat
	case CategoryClientOrder:
		return t.cfg.ClientChat
	default:
		return t.cfg.StockChat
	}
}

// Send gönderim hatalarını loglar ve yutar; bildirim kanalı düşük olsa da
// çağıran tarafın akışı bozulmaz.
func (t *Telegram) Send(ctx context.Context, msg Message) error {
	if t.cfg.Token == "" {
		t.log.Warn("TG_BOT_TOKEN tanımlı değil, mesaj atlandı", zap.String("category", string(msg.Category)))
		return nil
	}
	chatID := t.chatFor(msg.Category)
	if chatID == "" {
		t.log.Warn("chat_id tanımlı değil, mesaj atlandı", zap.String("category", string(msg.Category)))
		return nil
	}

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", msg.Text)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.cfg.BaseURL, "/"), t.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		t.log.Error("Telegram isteği oluşturulamadı", zap.Error(err))
		return nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.log.Error("Telegram gönderimi başarısız", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		t.log.Error("Telegram hata döndü",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
	}
	return nil
}

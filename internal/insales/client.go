package insales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUpstreamUnavailable geçici hatalar deneme sayısı boyunca sürdüğünde döner.
var ErrUpstreamUnavailable = errors.New("InSales API erişilemiyor")

// StatusError InSales'in 2xx dışı yanıtı.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("InSales HTTP %d: %s", e.StatusCode, e.Body)
}

// Temporary yalnızca ağ geçidi hataları için true döner; 4xx tekrar denenmez.
func (e *StatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

type Config struct {
	BaseURL        string // https://{shop}/admin
	APIKey         string
	APIPassword    string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Retries        int
	RetryPause     time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 40 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RetryPause < 0 {
		cfg.RetryPause = 0
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout
	transport.ResponseHeaderTimeout = cfg.ReadTimeout

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.ConnectTimeout + cfg.ReadTimeout,
		},
		log: log.Named("insales"),
	}
}

// Configured mağaza adresi tanımlı mı.
func (c *Client) Configured() bool {
	return c.cfg.BaseURL != ""
}

// FetchRecentOrders son limit kadar siparişi getirir.
func (c *Client) FetchRecentOrders(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var orders []Order
	if err := c.getJSON(ctx, fmt.Sprintf("/orders.json?per_page=%d", limit), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// FetchOrderByID tek siparişi getirir; sipariş yoksa (nil, nil) döner.
func (c *Client) FetchOrderByID(ctx context.Context, id int64) (*Order, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, fmt.Sprintf("/orders/%d.json", id), &raw)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	// Bazı hesaplarda yanıt {"order": {...}} şeklinde sarılı gelir.
	var wrapped struct {
		Order *Order `json:"order"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Order != nil {
		return wrapped.Order, nil
	}
	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("InSales yanıtı çözümlenemedi: %w", err)
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

// getJSON geçici hatalarda sabit aralıkla tekrar dener.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if !c.Configured() {
		return fmt.Errorf("%w: mağaza adresi tanımlı değil", ErrUpstreamUnavailable)
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
		err := c.doGet(ctx, path, out)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
		c.log.Warn("InSales isteği başarısız",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.cfg.Retries),
			zap.Error(err))

		if attempt == c.cfg.Retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.RetryPause):
		}
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
}

func (c *Client) doGet(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("istek oluşturulamadı: %w", err)
	}
	req.SetBasicAuth(c.cfg.APIKey, c.cfg.APIPassword)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("InSales yanıtı çözümlenemedi: %w", err)
	}
	return nil
}

// isTransient zaman aşımı, bağlantı hatası ve 502/503/504 için true döner.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

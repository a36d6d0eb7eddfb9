package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=matstock port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	CORSOrigins string
	JWTSecret   string

	DatabaseDriver string // postgres | sqlite
	DatabaseDSN    string

	LogLevel  string
	LogFormat string

	InSales  InSalesConfig
	Import   ImportConfig
	Telegram TelegramConfig

	RetentionDays     int
	RetentionInterval time.Duration
}

type InSalesConfig struct {
	Shop           string
	APIKey         string
	APIPassword    string
	APIURL         string // boşsa https://{Shop}/admin
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Retries        int
	RetryPause     time.Duration
}

type ImportConfig struct {
	Limit             int
	Interval          time.Duration
	ReadyOrderID      int64  // hazır film stoğunu tutan "depo" siparişi
	ClientOrderStatus string // yeni müşteri siparişi durumu (permalink)
}

type TelegramConfig struct {
	Token      string
	StockChat  string
	FilmChat   string
	ClientChat string
}

// Load ortam değişkenlerinden (varsa .env dosyasıyla birlikte) konfigürasyonu okur.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] .env okunamadı: %v", err)
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		DatabaseDriver: getEnv("DB_DRIVER", "postgres"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		InSales: InSalesConfig{
			Shop:           getEnv("INSALES_SHOP", ""),
			APIKey:         getEnv("INSALES_API_KEY", ""),
			APIPassword:    getEnv("INSALES_API_PWD", ""),
			APIURL:         getEnv("INSALES_API_URL", ""),
			ConnectTimeout: getEnvDuration("INSALES_CONNECT_TIMEOUT", 5*time.Second),
			ReadTimeout:    getEnvDuration("INSALES_READ_TIMEOUT", 40*time.Second),
			Retries:        getEnvInt("INSALES_RETRIES", 3),
			RetryPause:     getEnvDuration("INSALES_RETRY_PAUSE", 3*time.Second),
		},
		Import: ImportConfig{
			Limit:             getEnvInt("IMPORT_LIMIT", 50),
			Interval:          getEnvDuration("IMPORT_INTERVAL", time.Minute),
			ReadyOrderID:      int64(getEnvInt("READY_ORDER_ID", 109704738)),
			ClientOrderStatus: getEnv("CLIENT_ORDER_STATUS", "novyy"),
		},
		Telegram: TelegramConfig{
			Token:      getEnv("TG_BOT_TOKEN", ""),
			StockChat:  getEnv("TG_CHAT_ID", ""),
			FilmChat:   getEnv("TG_FILM_CHAT_ID", ""),
			ClientChat: getEnv("TG_CLIENT_CHAT_ID", ""),
		},
		RetentionDays:     getEnvInt("RETENTION_DAYS", 365),
		RetentionInterval: getEnvDuration("RETENTION_INTERVAL", 24*time.Hour),
	}

	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için kendi bağlantı bilgini tanımla.")
	}
	if cfg.InSales.Shop == "" && cfg.InSales.APIURL == "" {
		log.Println("[WARN] INSALES_SHOP tanımlanmamış, sipariş importu çalışmayacak.")
	}

	return cfg
}

// Validate HTTP sunucusu için zorunlu ayarları kontrol eder.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment değişkeni tanımlanmamış")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET en az 32 karakter olmalıdır")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return errors.New("DB_DRIVER postgres veya sqlite olmalıdır")
	}
	return nil
}

// BaseURL InSales admin API adresini döner.
func (c InSalesConfig) BaseURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	if c.Shop == "" {
		return ""
	}
	return "https://" + c.Shop + "/admin"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] %s geçersiz (%q), varsayılan %d kullanılıyor", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[WARN] %s geçersiz (%q), varsayılan %s kullanılıyor", key, v, def)
		return def
	}
	return d
}

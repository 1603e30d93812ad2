package config

import (
	"fmt"
	"strings"
	"time"

	"bazaar/internal/models"
	"bazaar/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds the settings read at startup.
type Config struct {
	AppPort     string
	DBDriver    string
	DatabaseDSN string
	JWTSecret   string

	RabbitMQURL string
	PushQueue   string

	RedisURL       string
	DeviceTokenTTL time.Duration

	FCMEndpoint  string
	FCMServerKey string

	NotifyWorkers        int
	NotifyQueueSize      int
	NotifyEnqueueTimeout time.Duration
	NotifySendTimeout    time.Duration

	Pricing                pricing.Policy
	OrderNumberMaxAttempts int
	DefaultCity            string
	EarnedStatuses         []models.OrderStatus
	CurrencySymbol         string
	SeedDemoData           bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:bazaar.db?_foreign_keys=on")
	v.SetDefault("JWT_SECRET", "supersecretjwtkey")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("PUSH_QUEUE", "push_notifications")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("DEVICE_TOKEN_TTL", "10m")
	v.SetDefault("FCM_ENDPOINT", "")
	v.SetDefault("FCM_SERVER_KEY", "")
	v.SetDefault("NOTIFY_WORKERS", 4)
	v.SetDefault("NOTIFY_QUEUE_SIZE", 256)
	v.SetDefault("NOTIFY_ENQUEUE_TIMEOUT", "100ms")
	v.SetDefault("NOTIFY_SEND_TIMEOUT", "5s")
	v.SetDefault("PRICING_VERSION", "v1")
	v.SetDefault("PRICING_DEFAULT_COMMISSION_RATE", "0.15")
	v.SetDefault("PRICING_COD_FEE", "50")
	v.SetDefault("PRICING_COD_THRESHOLD", "500")
	v.SetDefault("ORDER_NUMBER_MAX_ATTEMPTS", 5)
	v.SetDefault("DEFAULT_CITY", "Bhimavaram")
	v.SetDefault("EARNED_STATUSES", "delivered")
	v.SetDefault("CURRENCY_SYMBOL", "₹")
	v.SetDefault("SEED_DEMO_DATA", false)
}

// Load reads configuration from environment variables and, when present, a
// config.yaml in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:                v.GetString("APP_PORT"),
		DBDriver:               strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:            v.GetString("DATABASE_DSN"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		RabbitMQURL:            v.GetString("RABBITMQ_URL"),
		PushQueue:              v.GetString("PUSH_QUEUE"),
		RedisURL:               v.GetString("REDIS_URL"),
		DeviceTokenTTL:         v.GetDuration("DEVICE_TOKEN_TTL"),
		FCMEndpoint:            v.GetString("FCM_ENDPOINT"),
		FCMServerKey:           v.GetString("FCM_SERVER_KEY"),
		NotifyWorkers:          v.GetInt("NOTIFY_WORKERS"),
		NotifyQueueSize:        v.GetInt("NOTIFY_QUEUE_SIZE"),
		NotifyEnqueueTimeout:   v.GetDuration("NOTIFY_ENQUEUE_TIMEOUT"),
		NotifySendTimeout:      v.GetDuration("NOTIFY_SEND_TIMEOUT"),
		OrderNumberMaxAttempts: v.GetInt("ORDER_NUMBER_MAX_ATTEMPTS"),
		DefaultCity:            v.GetString("DEFAULT_CITY"),
		CurrencySymbol:         v.GetString("CURRENCY_SYMBOL"),
		SeedDemoData:           v.GetBool("SEED_DEMO_DATA"),
	}

	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.OrderNumberMaxAttempts < 1 {
		return nil, fmt.Errorf("ORDER_NUMBER_MAX_ATTEMPTS must be at least 1, got %d", cfg.OrderNumberMaxAttempts)
	}

	policy, err := pricingPolicy(v)
	if err != nil {
		return nil, err
	}
	cfg.Pricing = policy

	earned, err := parseStatuses(v.GetString("EARNED_STATUSES"))
	if err != nil {
		return nil, err
	}
	cfg.EarnedStatuses = earned

	return cfg, nil
}

func pricingPolicy(v *viper.Viper) (pricing.Policy, error) {
	var p pricing.Policy
	p.Version = v.GetString("PRICING_VERSION")

	fields := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"PRICING_DEFAULT_COMMISSION_RATE", &p.DefaultCommissionRate},
		{"PRICING_COD_FEE", &p.CODFlatFee},
		{"PRICING_COD_THRESHOLD", &p.CODThreshold},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(v.GetString(f.key))
		if err != nil {
			return pricing.Policy{}, fmt.Errorf("invalid %s: %w", f.key, err)
		}
		*f.dst = d
	}

	if err := p.Validate(); err != nil {
		return pricing.Policy{}, fmt.Errorf("invalid pricing policy: %w", err)
	}
	return p, nil
}

// parseStatuses reads a comma-separated status list. Cancelled orders never
// earn, so listing them is an error.
func parseStatuses(raw string) ([]models.OrderStatus, error) {
	var out []models.OrderStatus
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		status, err := models.ParseOrderStatus(part)
		if err != nil {
			return nil, fmt.Errorf("invalid EARNED_STATUSES: %w", err)
		}
		if status == models.StatusCancelled {
			return nil, fmt.Errorf("invalid EARNED_STATUSES: cancelled orders cannot be earned")
		}
		out = append(out, status)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("EARNED_STATUSES must name at least one status")
	}
	return out, nil
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL        string
	RedisURL           string
	OrderEventsChannel string
	UpdateDedupTTL     int

	BotToken              string
	TelegramAPIURL        string
	TelegramMode          string // polling, webhook
	TelegramWebhookURL    string
	TelegramWebhookSecret string
	WebAppURL             string
	AdminChatID           int64

	ServerPort string
	LogLevel   string
	LogFormat  string

	Shop Shop

	PosterixURL     string
	PosterixToken   string
	PosterixCompany int
}

// Shop describes the coffee shop shown in /about.
type Shop struct {
	Name           string
	Address        string
	Phone          string
	WorkingHours   string
	DeliveryFee    float64
	MinOrder       float64
	Timezone       string
	CurrencySymbol string
}

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

var defaults = map[string]any{
	"DATABASE_URL":            "coffee_shop.db",
	"REDIS_URL":               "",
	"ORDER_EVENTS_CHANNEL":    "coffee_shop:orders",
	"UPDATE_DEDUP_TTL":        86400,
	"BOT_TOKEN":               "",
	"TELEGRAM_API_URL":        "https://api.telegram.org",
	"TELEGRAM_MODE":           ModePolling,
	"TELEGRAM_WEBHOOK_URL":    "",
	"TELEGRAM_WEBHOOK_SECRET": "",
	"WEBAPP_URL":              "https://yourdomain.com/webapp",
	"ADMIN_CHAT_ID":           0,
	"SERVER_PORT":             "8080",
	"LOG_LEVEL":               "info",
	"LOG_FORMAT":              "text",
	"SHOP_NAME":               "Cozy Coffee",
	"SHOP_ADDRESS":            "15 Coffee St.",
	"SHOP_PHONE":              "+7 (999) 123-45-67",
	"SHOP_WORKING_HOURS":      "8:00 - 22:00",
	"SHOP_DELIVERY_FEE":       150,
	"SHOP_MIN_ORDER":          300,
	"SHOP_TIMEZONE":           "Europe/Moscow",
	"CURRENCY_SYMBOL":         "₽",
	"POSTERIX_URL":            "http://api.posterix.pro/v2",
	"POSTERIX_TOKEN":          "",
	"POSTERIX_COMPANY":        0,
}

// Load reads configuration from the environment, a .env file in the working
// directory and, when CONFIG_FILE is set, that file. Environment variables win.
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		DatabaseURL:        v.GetString("DATABASE_URL"),
		RedisURL:           v.GetString("REDIS_URL"),
		OrderEventsChannel: v.GetString("ORDER_EVENTS_CHANNEL"),
		UpdateDedupTTL:     v.GetInt("UPDATE_DEDUP_TTL"),

		BotToken:              v.GetString("BOT_TOKEN"),
		TelegramAPIURL:        v.GetString("TELEGRAM_API_URL"),
		TelegramMode:          strings.ToLower(v.GetString("TELEGRAM_MODE")),
		TelegramWebhookURL:    v.GetString("TELEGRAM_WEBHOOK_URL"),
		TelegramWebhookSecret: v.GetString("TELEGRAM_WEBHOOK_SECRET"),
		WebAppURL:             v.GetString("WEBAPP_URL"),
		AdminChatID:           v.GetInt64("ADMIN_CHAT_ID"),

		ServerPort: v.GetString("SERVER_PORT"),
		LogLevel:   v.GetString("LOG_LEVEL"),
		LogFormat:  v.GetString("LOG_FORMAT"),

		Shop: Shop{
			Name:           v.GetString("SHOP_NAME"),
			Address:        v.GetString("SHOP_ADDRESS"),
			Phone:          v.GetString("SHOP_PHONE"),
			WorkingHours:   v.GetString("SHOP_WORKING_HOURS"),
			DeliveryFee:    v.GetFloat64("SHOP_DELIVERY_FEE"),
			MinOrder:       v.GetFloat64("SHOP_MIN_ORDER"),
			Timezone:       v.GetString("SHOP_TIMEZONE"),
			CurrencySymbol: v.GetString("CURRENCY_SYMBOL"),
		},

		PosterixURL:     v.GetString("POSTERIX_URL"),
		PosterixToken:   v.GetString("POSTERIX_TOKEN"),
		PosterixCompany: v.GetInt("POSTERIX_COMPANY"),
	}

	return cfg, nil
}

// ValidateServer checks the settings only the bot server depends on. Other
// commands sharing this configuration do not call it.
func (c *Config) ValidateServer() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	switch c.TelegramMode {
	case ModePolling:
	case ModeWebhook:
		if c.TelegramWebhookURL == "" {
			return errors.New("TELEGRAM_WEBHOOK_URL is required in webhook mode")
		}
	default:
		return fmt.Errorf("unknown TELEGRAM_MODE %q", c.TelegramMode)
	}
	return nil
}

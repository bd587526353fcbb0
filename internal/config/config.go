package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	GatewayWhatsApp = "whatsapp"
	GatewayTelegram = "telegram"
)

type Config struct {
	BotNumber    string
	Prefix       string
	LogLevel     string
	AllowedChats []string

	DatabaseURL            string
	DatabaseConnectTimeout time.Duration

	Gateway             string
	WhatsAppSessionPath string
	TelegramToken       string

	OpenRouterAPIKey string
	OpenRouterModel  string
	SystemPrompt     string

	HandlerTimeout   time.Duration
	RejectDuplicates bool
	MetricsAddress   string
}

var defaults = map[string]any{
	"bot.number":                "27813419702",
	"bot.prefix":                "!",
	"bot.log_level":             "info",
	"database.url":              "",
	"database.connect_timeout":  "10s",
	"gateway.kind":              GatewayWhatsApp,
	"whatsapp.session_path":     "./auth_info/session.db",
	"telegram.bot_token":        "",
	"openrouter.api_key":        "",
	"openrouter.model":          "openai/gpt-4.1-mini",
	"chat.system_prompt":        "You are a helpful assistant in a group chat. Keep answers short.",
	"handler.timeout":           "0s",
	"plugins.reject_duplicates": false,
	"metrics.listen_address":    "",
}

var env = map[string]string{
	"bot.number":             "BOT_NUMBER",
	"bot.prefix":             "PREFIX",
	"bot.log_level":          "LOG_LEVEL",
	"database.url":           "DATABASE_URL",
	"gateway.kind":           "GATEWAY",
	"whatsapp.session_path":  "WHATSAPP_SESSION_PATH",
	"telegram.bot_token":     "TELEGRAM_BOT_TOKEN",
	"openrouter.api_key":     "OPENROUTER_API_KEY",
	"handler.timeout":        "HANDLER_TIMEOUT",
	"metrics.listen_address": "METRICS_ADDR",
}

// Load reads config.toml from the working directory if present and applies environment overrides.
func Load() (*Config, error) {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	for key, name := range env {
		if err := viper.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	connectTimeout, err := time.ParseDuration(viper.GetString("database.connect_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid database connect timeout: %w", err)
	}

	handlerTimeout, err := time.ParseDuration(viper.GetString("handler.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid handler timeout: %w", err)
	}

	cfg := &Config{
		BotNumber:              viper.GetString("bot.number"),
		Prefix:                 viper.GetString("bot.prefix"),
		LogLevel:               viper.GetString("bot.log_level"),
		AllowedChats:           viper.GetStringSlice("bot.allowed_chats"),
		DatabaseURL:            viper.GetString("database.url"),
		DatabaseConnectTimeout: connectTimeout,
		Gateway:                strings.ToLower(viper.GetString("gateway.kind")),
		WhatsAppSessionPath:    viper.GetString("whatsapp.session_path"),
		TelegramToken:          viper.GetString("telegram.bot_token"),
		OpenRouterAPIKey:       viper.GetString("openrouter.api_key"),
		OpenRouterModel:        viper.GetString("openrouter.model"),
		SystemPrompt:           viper.GetString("chat.system_prompt"),
		HandlerTimeout:         handlerTimeout,
		RejectDuplicates:       viper.GetBool("plugins.reject_duplicates"),
		MetricsAddress:         viper.GetString("metrics.listen_address"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Prefix == "" {
		return errors.New("command prefix must not be empty")
	}

	if c.HandlerTimeout < 0 {
		return errors.New("handler timeout must not be negative")
	}

	switch c.Gateway {
	case GatewayWhatsApp:
		if c.WhatsAppSessionPath == "" {
			return errors.New("whatsapp session path is required")
		}
	case GatewayTelegram:
		if c.TelegramToken == "" {
			return errors.New("telegram bot token is required")
		}
	default:
		return fmt.Errorf("unknown gateway %q", c.Gateway)
	}

	return nil
}

func (c *Config) ZerologLevel() zerolog.Level {
	switch c.LogLevel {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

const defaultSystemPrompt = "You are a helpful assistant in a Telegram chat. " +
	"Answer clearly and briefly in the user's language. " +
	"When the user sends text extracted from a document or a photo, work with that text."

var (
	ErrMissingToken      = errors.New("TELEGRAM_BOT_TOKEN is not set")
	ErrMissingAPIKey     = errors.New("OPENAI_API_KEY is not set")
	ErrMissingWebhookURL = errors.New("WEBHOOK_URL is required when USE_WEBHOOK is on")
)

// Config is read once at startup.
type Config struct {
	BotToken string
	AdminID  int64

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAIVisionModel string
	Temperature       float32
	SystemPrompt      string

	UseWebhook bool
	WebhookURL string
	Port       string

	DatabaseURL string

	SearchAPIKey string
	SearchCX     string

	MaxAttachmentBytes int
	MetricsNamespace   string
}

// Load reads environment variables and applies defaults.
func Load() (Config, error) {
	cfg := Config{
		BotToken:          trimmed("TELEGRAM_BOT_TOKEN"),
		OpenAIAPIKey:      trimmed("OPENAI_API_KEY"),
		OpenAIBaseURL:     trimmed("OPENAI_BASE_URL"),
		OpenAIModel:       envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIVisionModel: trimmed("OPENAI_VISION_MODEL"),
		SystemPrompt:      envOrDefault("SYSTEM_PROMPT", defaultSystemPrompt),
		WebhookURL:        strings.TrimRight(trimmed("WEBHOOK_URL"), "/"),
		Port:              envOrDefault("PORT", "8080"),
		DatabaseURL:       trimmed("DATABASE_URL"),
		SearchAPIKey:      trimmed("GOOGLE_SEARCH_API_KEY"),
		SearchCX:          trimmed("GOOGLE_SEARCH_CX"),
		MetricsNamespace:  envOrDefault("METRICS_NAMESPACE", "docbot"),
	}
	if cfg.OpenAIVisionModel == "" {
		cfg.OpenAIVisionModel = cfg.OpenAIModel
	}

	var err error
	if cfg.AdminID, err = int64FromEnv("ADMIN_ID", 0); err != nil {
		return Config{}, err
	}
	if cfg.Temperature, err = float32FromEnv("OPENAI_TEMPERATURE", 0.7); err != nil {
		return Config{}, err
	}
	if cfg.UseWebhook, err = boolFromEnv("USE_WEBHOOK", false); err != nil {
		return Config{}, err
	}
	if cfg.MaxAttachmentBytes, err = intFromEnv("MAX_ATTACHMENT_BYTES", 20<<20); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.BotToken == "" {
		return ErrMissingToken
	}
	if c.OpenAIAPIKey == "" {
		return ErrMissingAPIKey
	}
	if c.UseWebhook {
		if c.WebhookURL == "" {
			return ErrMissingWebhookURL
		}
		u, err := url.Parse(c.WebhookURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("WEBHOOK_URL must be an absolute https URL, got %q", c.WebhookURL)
		}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be within [0, 2]")
	}
	if c.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("MAX_ATTACHMENT_BYTES must be positive")
	}
	return nil
}

// WebhookPath is the route Telegram posts updates to. The token makes
// it hard to guess.
func (c Config) WebhookPath() string {
	return "/" + c.BotToken
}

func (c Config) SearchEnabled() bool {
	return c.SearchAPIKey != "" && c.SearchCX != ""
}

func envOrDefault(key, fallback string) string {
	if v := trimmed(key); v != "" {
		return v
	}
	return fallback
}

func trimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func int64FromEnv(key string, fallback int64) (int64, error) {
	v := trimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func float32FromEnv(key string, fallback float32) (float32, error) {
	v := trimmed(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return float32(f), nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s parse error: invalid bool %q", key, v)
}

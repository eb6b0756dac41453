package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/wacloud/pkg/clients/whatsapp"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	WhatsApp WhatsAppConfig
	Webhook  WebhookConfig
	Monitor  MonitorConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken       string
	PhoneNumberID     string
	BusinessAccountID string
	VerifyToken       string
	BaseURL           string
	APIVersion        string
	Timeout           time.Duration
}

// WebhookConfig controls how inbound notifications are processed.
type WebhookConfig struct {
	EmitSentStatuses bool
	MarkAsRead       bool
}

// MonitorConfig holds the phone number check schedule. An empty schedule
// disables the check.
type MonitorConfig struct {
	CronSchedule string
}

// LoggingConfig holds logger options.
type LoggingConfig struct {
	Level string
}

// ClientConfig converts the settings into the client's value object.
func (c WhatsAppConfig) ClientConfig() whatsapp.Config {
	return whatsapp.Config{
		AccessToken:       c.AccessToken,
		PhoneNumberID:     c.PhoneNumberID,
		BusinessAccountID: c.BusinessAccountID,
		BaseURL:           c.BaseURL,
		APIVersion:        c.APIVersion,
		Timeout:           c.Timeout,
	}
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config for the webhook server.
func Load(envFile string) (*Config, error) {
	cfg, err := read(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClient is like Load but only requires what an API client needs.
func LoadClient(envFile string) (*Config, error) {
	cfg, err := read(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateClient(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	timeout, err := getenvDuration("WHATSAPP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	emitSent, err := getenvBool("WEBHOOK_EMIT_SENT", true)
	if err != nil {
		return nil, err
	}
	markRead, err := getenvBool("WEBHOOK_MARK_READ", false)
	if err != nil {
		return nil, err
	}

	schedule, ok := os.LookupEnv("PHONE_CHECK_SCHEDULE")
	if !ok {
		schedule = "@every 1h"
	}

	return &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:       os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:     os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BusinessAccountID: os.Getenv("WHATSAPP_BUSINESS_ACCOUNT_ID"),
			VerifyToken:       os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:           getenvWithDefault("WHATSAPP_BASE_URL", whatsapp.DefaultBaseURL),
			APIVersion:        getenvWithDefault("WHATSAPP_API_VERSION", whatsapp.DefaultAPIVersion),
			Timeout:           timeout,
		},
		Webhook: WebhookConfig{
			EmitSentStatuses: emitSent,
			MarkAsRead:       markRead,
		},
		Monitor: MonitorConfig{
			CronSchedule: strings.TrimSpace(schedule),
		},
		Logging: LoggingConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if err := c.ValidateClient(); err != nil {
		return err
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.WhatsApp.VerifyToken == "" {
		return errors.New("META_VERIFY_TOKEN must be provided")
	}
	return nil
}

// ValidateClient checks the settings needed to call the API.
func (c *Config) ValidateClient() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch {
	case c.WhatsApp.AccessToken == "":
		return errors.New("WHATSAPP_TOKEN must be provided")
	case c.WhatsApp.PhoneNumberID == "":
		return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
	}

	if c.WhatsApp.BaseURL == "" {
		return errors.New("WHATSAPP_BASE_URL must not be empty")
	}

	if c.WhatsApp.APIVersion == "" {
		return errors.New("WHATSAPP_API_VERSION must not be empty")
	}

	if c.WhatsApp.Timeout <= 0 {
		return errors.New("WHATSAPP_TIMEOUT must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return parsed, nil
}

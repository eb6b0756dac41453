package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_PORT",
	"WHATSAPP_TOKEN",
	"WHATSAPP_PHONE_NUMBER_ID",
	"WHATSAPP_BUSINESS_ACCOUNT_ID",
	"META_VERIFY_TOKEN",
	"WHATSAPP_BASE_URL",
	"WHATSAPP_API_VERSION",
	"WHATSAPP_TIMEOUT",
	"WEBHOOK_EMIT_SENT",
	"WEBHOOK_MARK_READ",
	"PHONE_CHECK_SCHEDULE",
	"LOG_LEVEL",
}

// clearEnv blanks every key for the test and unsets it so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "PHONE_ID")
	t.Setenv("META_VERIFY_TOKEN", "verify")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://graph.facebook.com", cfg.WhatsApp.BaseURL)
	assert.Equal(t, "v21.0", cfg.WhatsApp.APIVersion)
	assert.Equal(t, 30*time.Second, cfg.WhatsApp.Timeout)
	assert.True(t, cfg.Webhook.EmitSentStatuses)
	assert.False(t, cfg.Webhook.MarkAsRead)
	assert.Equal(t, "@every 1h", cfg.Monitor.CronSchedule)
	assert.Equal(t, "info", cfg.Logging.Level)

	client := cfg.WhatsApp.ClientConfig()
	assert.Equal(t, "token", client.AccessToken)
	assert.Equal(t, "PHONE_ID", client.PhoneNumberID)
	assert.NoError(t, client.Validate())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "PHONE_ID")
	t.Setenv("META_VERIFY_TOKEN", "verify")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("WHATSAPP_API_VERSION", "v20.0")
	t.Setenv("WHATSAPP_TIMEOUT", "5s")
	t.Setenv("WEBHOOK_EMIT_SENT", "false")
	t.Setenv("WEBHOOK_MARK_READ", "true")
	t.Setenv("PHONE_CHECK_SCHEDULE", "")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "v20.0", cfg.WhatsApp.APIVersion)
	assert.Equal(t, 5*time.Second, cfg.WhatsApp.Timeout)
	assert.False(t, cfg.Webhook.EmitSentStatuses)
	assert.True(t, cfg.Webhook.MarkAsRead)
	assert.Empty(t, cfg.Monitor.CronSchedule)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "WHATSAPP_TOKEN=file-token\nWHATSAPP_PHONE_NUMBER_ID=FILE_PHONE\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("WHATSAPP_TOKEN")
		_ = os.Unsetenv("WHATSAPP_PHONE_NUMBER_ID")
	})

	cfg, err := LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.WhatsApp.AccessToken)
	assert.Equal(t, "FILE_PHONE", cfg.WhatsApp.PhoneNumberID)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		err  string
	}{
		{
			name: "missing token",
			env:  map[string]string{"WHATSAPP_PHONE_NUMBER_ID": "P", "META_VERIFY_TOKEN": "v"},
			err:  "WHATSAPP_TOKEN",
		},
		{
			name: "missing phone number id",
			env:  map[string]string{"WHATSAPP_TOKEN": "t", "META_VERIFY_TOKEN": "v"},
			err:  "WHATSAPP_PHONE_NUMBER_ID",
		},
		{
			name: "missing verify token",
			env:  map[string]string{"WHATSAPP_TOKEN": "t", "WHATSAPP_PHONE_NUMBER_ID": "P"},
			err:  "META_VERIFY_TOKEN",
		},
		{
			name: "bad timeout",
			env:  map[string]string{"WHATSAPP_TOKEN": "t", "WHATSAPP_PHONE_NUMBER_ID": "P", "META_VERIFY_TOKEN": "v", "WHATSAPP_TIMEOUT": "soon"},
			err:  "WHATSAPP_TIMEOUT",
		},
		{
			name: "negative timeout",
			env:  map[string]string{"WHATSAPP_TOKEN": "t", "WHATSAPP_PHONE_NUMBER_ID": "P", "META_VERIFY_TOKEN": "v", "WHATSAPP_TIMEOUT": "-1s"},
			err:  "WHATSAPP_TIMEOUT",
		},
		{
			name: "bad boolean",
			env:  map[string]string{"WHATSAPP_TOKEN": "t", "WHATSAPP_PHONE_NUMBER_ID": "P", "META_VERIFY_TOKEN": "v", "WEBHOOK_MARK_READ": "maybe"},
			err:  "WEBHOOK_MARK_READ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := Load(missingEnvFile(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestLoadClientSkipsServerFields(t *testing.T) {
	clearEnv(t)
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "PHONE_ID")

	_, err := LoadClient(missingEnvFile(t))
	assert.NoError(t, err)

	_, err = Load(missingEnvFile(t))
	assert.Error(t, err)
}

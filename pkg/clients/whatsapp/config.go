package whatsapp

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Graph API host serving the WhatsApp Cloud API.
	DefaultBaseURL = "https://graph.facebook.com"
	// DefaultAPIVersion is the Graph API version used when none is configured.
	DefaultAPIVersion = "v21.0"

	defaultTimeout = 30 * time.Second
)

// Config carries the credentials and endpoint settings of a single client.
// A Client copies it on construction and never mutates it afterwards.
type Config struct {
	AccessToken       string
	PhoneNumberID     string
	BusinessAccountID string
	BaseURL           string
	APIVersion        string
	Timeout           time.Duration
}

// Validate ensures the fields required to reach the API are populated.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.AccessToken) == "":
		return errors.New("whatsapp: access token must be provided")
	case strings.TrimSpace(c.PhoneNumberID) == "":
		return errors.New("whatsapp: phone number id must be provided")
	}
	return nil
}

// String renders the config without the access token.
func (c Config) String() string {
	return fmt.Sprintf("whatsapp.Config{phone_number_id=%s business_account_id=%s base_url=%s api_version=%s timeout=%s}",
		c.PhoneNumberID, c.BusinessAccountID, c.BaseURL, c.APIVersion, c.Timeout)
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.APIVersion = strings.Trim(strings.TrimSpace(c.APIVersion), "/")
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

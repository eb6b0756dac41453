package whatsapp

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const phoneNumberFields = "verified_name,display_phone_number,quality_rating,code_verification_status,platform_type,throughput"

func (c *APIClient) GetPhoneNumber(ctx context.Context) (*PhoneNumber, error) {
	return Call[PhoneNumber](ctx, c, http.MethodGet, c.PhonePath("")+"?fields="+phoneNumberFields, nil)
}

// ListPhoneNumbers lists the numbers registered under a business account. An
// empty businessAccountID falls back to the configured one.
func (c *APIClient) ListPhoneNumbers(ctx context.Context, businessAccountID string) (*PhoneNumbersResponse, error) {
	if strings.TrimSpace(businessAccountID) == "" {
		businessAccountID = c.cfg.BusinessAccountID
	}
	if strings.TrimSpace(businessAccountID) == "" {
		return nil, errors.New("whatsapp: business account id must be provided")
	}
	return Call[PhoneNumbersResponse](ctx, c, http.MethodGet, AccountPath(businessAccountID, "phone_numbers"), nil)
}

package whatsapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrorKind is the closed failure taxonomy returned by the transport.
type ErrorKind int

const (
	KindProviderError ErrorKind = iota
	KindAuthenticationFailed
	KindRateLimited
	KindValidationFailed
	KindTransportFailure
	KindDecodeFailure
)

// Sentinels usable with errors.Is against any *APIError.
var (
	ErrProviderError        = errors.New("whatsapp: provider error")
	ErrAuthenticationFailed = errors.New("whatsapp: authentication failed")
	ErrRateLimited          = errors.New("whatsapp: rate limited")
	ErrValidationFailed     = errors.New("whatsapp: validation failed")
	ErrTransportFailure     = errors.New("whatsapp: transport failure")
	ErrDecodeFailure        = errors.New("whatsapp: decode failure")
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindRateLimited:
		return "rate_limited"
	case KindValidationFailed:
		return "validation_failed"
	case KindTransportFailure:
		return "transport_failure"
	case KindDecodeFailure:
		return "decode_failure"
	default:
		return "provider_error"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindAuthenticationFailed:
		return ErrAuthenticationFailed
	case KindRateLimited:
		return ErrRateLimited
	case KindValidationFailed:
		return ErrValidationFailed
	case KindTransportFailure:
		return ErrTransportFailure
	case KindDecodeFailure:
		return ErrDecodeFailure
	default:
		return ErrProviderError
	}
}

// ErrorEnvelope is the body Meta returns for failed calls.
type ErrorEnvelope struct {
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail mirrors the "error" object of the envelope.
type ErrorDetail struct {
	Message        string          `json:"message"`
	Type           string          `json:"type"`
	Code           int             `json:"code"`
	ErrorSubcode   int             `json:"error_subcode"`
	ErrorUserTitle string          `json:"error_user_title"`
	ErrorUserMsg   string          `json:"error_user_msg"`
	FBTraceID      string          `json:"fbtrace_id"`
	ErrorData      json.RawMessage `json:"error_data,omitempty"`
}

// APIError is returned by every failing call. Kind selects the variant;
// the remaining fields are populated when the failure carried them.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Code       int
	Subcode    int
	Type       string
	Message    string
	UserTitle  string
	UserMsg    string
	TraceID    string
	Data       json.RawMessage
	// Body holds the raw response when it could not be decoded.
	Body    string
	Timeout bool
	Err     error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindTransportFailure:
		if e.Timeout {
			return fmt.Sprintf("whatsapp: transport failure (timeout): %s", e.Message)
		}
		return fmt.Sprintf("whatsapp: transport failure: %s", e.Message)
	case KindDecodeFailure:
		return fmt.Sprintf("whatsapp: decode failure: %s (status: %d)", e.Message, e.StatusCode)
	}
	if e.Subcode != 0 {
		return fmt.Sprintf("whatsapp: %s: %s (code: %d, subcode: %d)", e.Kind, e.Message, e.Code, e.Subcode)
	}
	return fmt.Sprintf("whatsapp: %s: %s (code: %d)", e.Kind, e.Message, e.Code)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's Kind.
func (e *APIError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// IsTimeout reports whether the call hit a deadline before completing.
func (e *APIError) IsTimeout() bool {
	return e.Kind == KindTransportFailure && e.Timeout
}

// Details extracts error_data.details when present.
func (e *APIError) Details() string {
	if len(e.Data) == 0 {
		return ""
	}
	var data struct {
		Details string `json:"details"`
	}
	if err := json.Unmarshal(e.Data, &data); err == nil {
		return data.Details
	}
	var text string
	if err := json.Unmarshal(e.Data, &text); err == nil {
		return text
	}
	return ""
}

// Retryable reports whether repeating the same call later may succeed.
// The client itself never retries.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindTransportFailure:
		return true
	case KindProviderError:
		return transientCodes[e.Code] || e.StatusCode >= http.StatusInternalServerError
	case KindDecodeFailure:
		return e.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// ToServiceError maps the failure onto a go-errors envelope.
func (e *APIError) ToServiceError() *goerrors.Error {
	category, status, textCode := serviceMapping(e)

	metadata := map[string]any{"kind": e.Kind.String()}
	if e.StatusCode != 0 {
		metadata["status_code"] = e.StatusCode
	}
	if e.Code != 0 {
		metadata["provider_code"] = e.Code
	}
	if e.Subcode != 0 {
		metadata["provider_subcode"] = e.Subcode
	}
	if strings.TrimSpace(e.TraceID) != "" {
		metadata["fbtrace_id"] = e.TraceID
	}

	var rich *goerrors.Error
	if e.Err != nil {
		rich = goerrors.Wrap(e.Err, category, e.Error())
	} else {
		rich = goerrors.New(e.Error(), category)
	}
	return rich.
		WithCode(status).
		WithTextCode(textCode).
		WithMetadata(metadata)
}

// ServiceError maps any send failure onto a go-errors envelope. Errors that
// do not carry an APIError map to a 502 with WHATSAPP_SEND_FAILED.
func ServiceError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ToServiceError()
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, "whatsapp send failed").
		WithCode(http.StatusBadGateway).
		WithTextCode("WHATSAPP_SEND_FAILED")
}

func serviceMapping(e *APIError) (goerrors.Category, int, string) {
	switch e.Kind {
	case KindAuthenticationFailed:
		return goerrors.CategoryAuth, http.StatusUnauthorized, "WHATSAPP_AUTHENTICATION_FAILED"
	case KindRateLimited:
		return goerrors.CategoryRateLimit, http.StatusTooManyRequests, "WHATSAPP_RATE_LIMITED"
	case KindValidationFailed:
		return goerrors.CategoryValidation, http.StatusBadRequest, "WHATSAPP_VALIDATION_FAILED"
	case KindTransportFailure:
		if e.Timeout {
			return goerrors.CategoryExternal, http.StatusGatewayTimeout, "WHATSAPP_TRANSPORT_TIMEOUT"
		}
		return goerrors.CategoryExternal, http.StatusBadGateway, "WHATSAPP_TRANSPORT_FAILURE"
	case KindDecodeFailure:
		return goerrors.CategoryExternal, http.StatusBadGateway, "WHATSAPP_DECODE_FAILURE"
	default:
		return goerrors.CategoryExternal, http.StatusBadGateway, "WHATSAPP_PROVIDER_ERROR"
	}
}

var authCodes = map[int]bool{
	10:     true, // permission denied
	102:    true, // session key invalid
	190:    true, // access token expired or invalid
	131005: true, // access denied
}

var rateLimitCodes = map[int]bool{
	4:      true,
	17:     true,
	32:     true,
	613:    true,
	80007:  true,
	130429: true,
	131048: true,
	131056: true,
	133016: true,
}

var validationCodes = map[int]bool{
	100:    true,
	131008: true,
	131009: true,
	131021: true,
	131026: true,
	131051: true,
	131052: true,
	131053: true,
	133010: true,
	135000: true,
}

var transientCodes = map[int]bool{
	1:      true,
	2:      true,
	131000: true,
	131016: true,
	133004: true,
}

// Classify maps a provider error envelope onto the failure taxonomy. It is
// total: codes it does not recognize become KindProviderError with the
// provider code and message preserved.
func Classify(statusCode int, envelope ErrorEnvelope) *APIError {
	if envelope.Error == nil {
		return &APIError{
			Kind:       kindForStatus(statusCode),
			StatusCode: statusCode,
			Code:       statusCode,
			Message:    http.StatusText(statusCode),
		}
	}

	detail := envelope.Error
	kind := kindForCode(detail.Code)
	if kind == KindProviderError {
		kind = kindForStatus(statusCode)
	}

	return &APIError{
		Kind:       kind,
		StatusCode: statusCode,
		Code:       detail.Code,
		Subcode:    detail.ErrorSubcode,
		Type:       detail.Type,
		Message:    detail.Message,
		UserTitle:  detail.ErrorUserTitle,
		UserMsg:    detail.ErrorUserMsg,
		TraceID:    detail.FBTraceID,
		Data:       detail.ErrorData,
	}
}

func kindForCode(code int) ErrorKind {
	switch {
	case authCodes[code], code >= 200 && code <= 299:
		return KindAuthenticationFailed
	case rateLimitCodes[code]:
		return KindRateLimited
	case validationCodes[code], code >= 132000 && code <= 132999:
		return KindValidationFailed
	default:
		return KindProviderError
	}
}

func kindForStatus(statusCode int) ErrorKind {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthenticationFailed
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindProviderError
	}
}

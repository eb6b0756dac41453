package whatsapp

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(code int, message string) ErrorEnvelope {
	return ErrorEnvelope{Error: &ErrorDetail{Code: code, Message: message, Type: "OAuthException"}}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   int
		want   ErrorKind
	}{
		{name: "expired token", status: http.StatusUnauthorized, code: 190, want: KindAuthenticationFailed},
		{name: "permission range", status: http.StatusForbidden, code: 200, want: KindAuthenticationFailed},
		{name: "permission denied", status: http.StatusBadRequest, code: 10, want: KindAuthenticationFailed},
		{name: "access denied", status: http.StatusBadRequest, code: 131005, want: KindAuthenticationFailed},
		{name: "app rate limit", status: http.StatusBadRequest, code: 4, want: KindRateLimited},
		{name: "pair rate limit", status: http.StatusBadRequest, code: 131056, want: KindRateLimited},
		{name: "spam rate limit", status: http.StatusBadRequest, code: 131048, want: KindRateLimited},
		{name: "cloud api throughput", status: http.StatusTooManyRequests, code: 130429, want: KindRateLimited},
		{name: "invalid parameter", status: http.StatusBadRequest, code: 100, want: KindValidationFailed},
		{name: "required parameter missing", status: http.StatusBadRequest, code: 131008, want: KindValidationFailed},
		{name: "template range", status: http.StatusBadRequest, code: 132001, want: KindValidationFailed},
		{name: "unknown code", status: http.StatusBadRequest, code: 987654, want: KindProviderError},
		{name: "unknown code on 429", status: http.StatusTooManyRequests, code: 987654, want: KindRateLimited},
		{name: "unknown code on 401", status: http.StatusUnauthorized, code: 987654, want: KindAuthenticationFailed},
		{name: "service unavailable", status: http.StatusServiceUnavailable, code: 131016, want: KindProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.status, envelope(tt.code, "boom"))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.Equal(t, "boom", got.Message)
		})
	}
}

func TestClassifyPreservesDetail(t *testing.T) {
	got := Classify(http.StatusBadRequest, ErrorEnvelope{Error: &ErrorDetail{
		Message:        "(#131009) Parameter value is not valid",
		Type:           "OAuthException",
		Code:           131009,
		ErrorSubcode:   2494010,
		ErrorUserTitle: "Invalid parameter",
		ErrorUserMsg:   "Check the recipient",
		FBTraceID:      "Az8or2yhqkZfEZ-_4Qn_Bam",
		ErrorData:      []byte(`{"messaging_product":"whatsapp","details":"Recipient not on allow list"}`),
	}})

	assert.Equal(t, KindValidationFailed, got.Kind)
	assert.Equal(t, 2494010, got.Subcode)
	assert.Equal(t, "OAuthException", got.Type)
	assert.Equal(t, "Invalid parameter", got.UserTitle)
	assert.Equal(t, "Check the recipient", got.UserMsg)
	assert.Equal(t, "Az8or2yhqkZfEZ-_4Qn_Bam", got.TraceID)
	assert.Equal(t, "Recipient not on allow list", got.Details())
	assert.Contains(t, got.Error(), "subcode: 2494010")
}

func TestClassifyWithoutDetail(t *testing.T) {
	got := Classify(http.StatusTooManyRequests, ErrorEnvelope{})
	assert.Equal(t, KindRateLimited, got.Kind)
	assert.Equal(t, http.StatusTooManyRequests, got.Code)

	got = Classify(http.StatusInternalServerError, ErrorEnvelope{})
	assert.Equal(t, KindProviderError, got.Kind)
	assert.True(t, got.Retryable())
}

func TestClassifyIsTotal(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	statuses := []int{400, 401, 403, 404, 429, 500, 503}

	for range 1000 {
		code := r.Intn(200000) - 100
		status := statuses[r.Intn(len(statuses))]

		got := Classify(status, envelope(code, "msg"))
		require.NotNil(t, got)
		assert.Equal(t, code, got.Code)
		assert.Equal(t, "msg", got.Message)
		assert.GreaterOrEqual(t, int(got.Kind), int(KindProviderError))
		assert.LessOrEqual(t, int(got.Kind), int(KindDecodeFailure))
	}
}

func TestAPIErrorSentinels(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		sentinel error
	}{
		{KindProviderError, ErrProviderError},
		{KindAuthenticationFailed, ErrAuthenticationFailed},
		{KindRateLimited, ErrRateLimited},
		{KindValidationFailed, ErrValidationFailed},
		{KindTransportFailure, ErrTransportFailure},
		{KindDecodeFailure, ErrDecodeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			var err error = &APIError{Kind: tt.kind}
			assert.ErrorIs(t, err, tt.sentinel)

			for _, other := range tests {
				if other.kind != tt.kind {
					assert.NotErrorIs(t, err, other.sentinel)
				}
			}
		})
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &APIError{Kind: KindTransportFailure, Message: cause.Error(), Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrTransportFailure)
	assert.False(t, err.IsTimeout())
}

func TestAPIErrorRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want bool
	}{
		{name: "rate limited", err: &APIError{Kind: KindRateLimited}, want: true},
		{name: "transport", err: &APIError{Kind: KindTransportFailure}, want: true},
		{name: "transient provider code", err: &APIError{Kind: KindProviderError, Code: 131000, StatusCode: 400}, want: true},
		{name: "server error", err: &APIError{Kind: KindProviderError, Code: 1234, StatusCode: 502}, want: true},
		{name: "plain provider error", err: &APIError{Kind: KindProviderError, Code: 1234, StatusCode: 400}, want: false},
		{name: "decode on 5xx", err: &APIError{Kind: KindDecodeFailure, StatusCode: 500}, want: true},
		{name: "decode on 2xx", err: &APIError{Kind: KindDecodeFailure, StatusCode: 200}, want: false},
		{name: "auth", err: &APIError{Kind: KindAuthenticationFailed}, want: false},
		{name: "validation", err: &APIError{Kind: KindValidationFailed}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Retryable())
		})
	}
}

func TestAPIErrorToServiceError(t *testing.T) {
	tests := []struct {
		err      *APIError
		code     int
		textCode string
	}{
		{err: &APIError{Kind: KindAuthenticationFailed, Code: 190}, code: 401, textCode: "WHATSAPP_AUTHENTICATION_FAILED"},
		{err: &APIError{Kind: KindRateLimited, Code: 4}, code: 429, textCode: "WHATSAPP_RATE_LIMITED"},
		{err: &APIError{Kind: KindValidationFailed, Code: 100}, code: 400, textCode: "WHATSAPP_VALIDATION_FAILED"},
		{err: &APIError{Kind: KindTransportFailure, Timeout: true}, code: 504, textCode: "WHATSAPP_TRANSPORT_TIMEOUT"},
		{err: &APIError{Kind: KindTransportFailure, Err: errors.New("refused")}, code: 502, textCode: "WHATSAPP_TRANSPORT_FAILURE"},
		{err: &APIError{Kind: KindDecodeFailure, StatusCode: 200}, code: 502, textCode: "WHATSAPP_DECODE_FAILURE"},
		{err: &APIError{Kind: KindProviderError, Code: 131000}, code: 502, textCode: "WHATSAPP_PROVIDER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.textCode, func(t *testing.T) {
			mapped := tt.err.ToServiceError()
			require.NotNil(t, mapped)
			assert.Equal(t, tt.code, mapped.Code)
			assert.Equal(t, tt.textCode, mapped.TextCode)
		})
	}
}

func TestServiceError(t *testing.T) {
	assert.Nil(t, ServiceError(nil))

	wrapped := fmt.Errorf("send outbound: %w", &APIError{Kind: KindRateLimited, Code: 4})
	mapped := ServiceError(wrapped)
	require.NotNil(t, mapped)
	assert.Equal(t, http.StatusTooManyRequests, mapped.Code)
	assert.Equal(t, "WHATSAPP_RATE_LIMITED", mapped.TextCode)

	plain := ServiceError(errors.New("recipient must be provided"))
	require.NotNil(t, plain)
	assert.Equal(t, http.StatusBadGateway, plain.Code)
	assert.Equal(t, "WHATSAPP_SEND_FAILED", plain.TextCode)
}

package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client exposes WhatsApp Cloud API operations used by the application.
type Client interface {
	SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*MessageResponse, error)
	SendReaction(ctx context.Context, req SendReactionRequest) (*MessageResponse, error)
	MarkAsRead(ctx context.Context, messageID string) (*SuccessResponse, error)
	ShowTyping(ctx context.Context, to string) (*SuccessResponse, error)
	GetPhoneNumber(ctx context.Context) (*PhoneNumber, error)
	ListPhoneNumbers(ctx context.Context, businessAccountID string) (*PhoneNumbersResponse, error)
	GetMediaURL(ctx context.Context, mediaID string) (*MediaURLResponse, error)
	DeleteMedia(ctx context.Context, mediaID string) (*SuccessResponse, error)
}

// APIClient is a resty-backed implementation of Client. Every resource call
// goes through Execute.
type APIClient struct {
	cfg        Config
	httpClient *resty.Client
	logger     *zap.Logger
}

// Option customizes an APIClient at construction time.
type Option func(*clientOptions)

type clientOptions struct {
	logger     *zap.Logger
	httpClient *http.Client
}

// WithLogger sets the logger used for per-call debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithHTTPClient replaces the underlying net/http client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

var validate = validator.New()

// NewClient builds a WhatsApp API client using the provided configuration values.
func NewClient(cfg Config, opts ...Option) *APIClient {
	cfg = cfg.withDefaults()

	var o clientOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	restyClient := resty.New()
	if o.httpClient != nil {
		// resty sets the timeout on the client it wraps; keep the caller's untouched.
		hc := *o.httpClient
		restyClient = resty.NewWithClient(&hc)
	}
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/%s", cfg.BaseURL, cfg.APIVersion)).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &APIClient{
		cfg:        cfg,
		httpClient: restyClient,
		logger:     o.logger,
	}
}

// PhoneNumberID returns the phone number the client sends from.
func (c *APIClient) PhoneNumberID() string {
	return c.cfg.PhoneNumberID
}

// APIVersion returns the Graph API version in use.
func (c *APIClient) APIVersion() string {
	return c.cfg.APIVersion
}

// PhonePath returns a path scoped to the configured phone number.
func (c *APIClient) PhonePath(resource string) string {
	return joinPath(c.cfg.PhoneNumberID, resource)
}

// BusinessPath returns a path scoped to the configured business account.
func (c *APIClient) BusinessPath(resource string) string {
	return AccountPath(c.cfg.BusinessAccountID, resource)
}

// AccountPath returns a path scoped to the given business account.
func AccountPath(businessAccountID, resource string) string {
	return joinPath(businessAccountID, resource)
}

// EndpointURL returns the absolute URL for a path relative to the versioned base.
func (c *APIClient) EndpointURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.cfg.BaseURL, c.cfg.APIVersion, strings.TrimPrefix(path, "/"))
}

// Execute issues an authenticated call against path, relative to the
// versioned base endpoint. body may be nil, a pre-encoded []byte or any value
// that marshals to JSON. On success the response is decoded into result when
// result is non-nil. Every failure is returned as an *APIError.
func (c *APIClient) Execute(ctx context.Context, method, path string, body, result any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	path = strings.TrimPrefix(path, "/")

	req := c.httpClient.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	started := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		apiErr := &APIError{
			Kind:    KindTransportFailure,
			Message: err.Error(),
			Timeout: isTimeout(err),
			Err:     err,
		}
		c.logger.Debug("whatsapp call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Bool("timeout", apiErr.Timeout),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err))
		return apiErr
	}

	status := resp.StatusCode()
	c.logger.Debug("whatsapp call completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(started)))

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return decodeFailure(status, resp.Body())
	}
	if result == nil {
		return nil
	}
	if apiErr := decodeSuccess(status, resp.Body(), result); apiErr != nil {
		return apiErr
	}
	return nil
}

// Call executes a request and decodes the success body into a new T.
func Call[T any](ctx context.Context, c *APIClient, method, path string, body any) (*T, error) {
	result := new(T)
	if err := c.Execute(ctx, method, path, body, result); err != nil {
		return nil, err
	}
	return result, nil
}

func decodeSuccess(status int, raw []byte, result any) *APIError {
	if len(raw) == 0 {
		return &APIError{
			Kind:       KindDecodeFailure,
			StatusCode: status,
			Message:    "empty response body",
		}
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return &APIError{
			Kind:       KindDecodeFailure,
			StatusCode: status,
			Message:    "decode response body",
			Body:       string(raw),
			Err:        err,
		}
	}
	if err := validate.Struct(result); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return &APIError{
			Kind:       KindDecodeFailure,
			StatusCode: status,
			Message:    "response does not match expected shape",
			Body:       string(raw),
			Err:        err,
		}
	}
	return nil
}

func decodeFailure(status int, raw []byte) *APIError {
	var envelope ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error == nil {
		return &APIError{
			Kind:       KindDecodeFailure,
			StatusCode: status,
			Code:       status,
			Message:    "unparsable error response",
			Body:       string(raw),
			Err:        err,
		}
	}
	return Classify(status, envelope)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func joinPath(scope, resource string) string {
	scope = strings.Trim(scope, "/")
	resource = strings.TrimPrefix(resource, "/")
	if resource == "" {
		return scope
	}
	return scope + "/" + resource
}

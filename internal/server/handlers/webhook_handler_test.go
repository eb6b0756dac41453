package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/wacloud/internal/config"
	service "github.com/mamadbah2/wacloud/internal/service/whatsapp"
	client "github.com/mamadbah2/wacloud/pkg/clients/whatsapp"
	"github.com/mamadbah2/wacloud/pkg/webhook"
)

type stubService struct {
	events    []webhook.Event
	outbound  []service.OutboundMessageRequest
	handleErr error
	sendErr   error
}

func (s *stubService) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if mode == "subscribe" && token == "secret" {
		return challenge, nil
	}
	return "", assert.AnError
}

func (s *stubService) HandleWebhook(_ context.Context, events []webhook.Event) error {
	s.events = append(s.events, events...)
	return s.handleErr
}

func (s *stubService) SendOutbound(_ context.Context, req service.OutboundMessageRequest) (string, error) {
	s.outbound = append(s.outbound, req)
	if s.sendErr != nil {
		return "", s.sendErr
	}
	return "wamid.OUT", nil
}

func newEngine(svc service.MessagingService, hooks config.WebhookConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(svc, hooks, nil)

	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
	r.POST("/send-message", h.SendMessage)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const statusBody = `{"entry":[{"id":"W","changes":[{"field":"messages","value":{"statuses":[
  {"id":"s1","status":"sent","recipient_id":"1","timestamp":"1"},
  {"id":"s2","status":"read","recipient_id":"1","timestamp":"2"}
]}}]}]}`

func TestVerify(t *testing.T) {
	r := newEngine(&stubService{}, config.WebhookConfig{})

	w := serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=42", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())

	w = serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReceive(t *testing.T) {
	svc := &stubService{}
	r := newEngine(svc, config.WebhookConfig{EmitSentStatuses: true})

	w := serve(r, http.MethodPost, "/webhook", statusBody)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.events, 2)
	assert.Equal(t, webhook.KindMessageSent, svc.events[0].Kind())
	assert.Equal(t, webhook.KindMessageRead, svc.events[1].Kind())
}

func TestReceiveSkipsSentStatuses(t *testing.T) {
	svc := &stubService{}
	r := newEngine(svc, config.WebhookConfig{EmitSentStatuses: false})

	w := serve(r, http.MethodPost, "/webhook", statusBody)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.events, 1)
	assert.Equal(t, webhook.KindMessageRead, svc.events[0].Kind())
}

func TestReceiveRejectsMalformedPayload(t *testing.T) {
	svc := &stubService{}
	r := newEngine(svc, config.WebhookConfig{})

	for _, body := range []string{`not json`, `{"object":"whatsapp_business_account"}`, `{"entry":{}}`} {
		w := serve(r, http.MethodPost, "/webhook", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Empty(t, svc.events)
}

func TestReceiveServiceFailure(t *testing.T) {
	r := newEngine(&stubService{handleErr: assert.AnError}, config.WebhookConfig{})

	w := serve(r, http.MethodPost, "/webhook", statusBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSendMessage(t *testing.T) {
	svc := &stubService{}
	r := newEngine(svc, config.WebhookConfig{})

	w := serve(r, http.MethodPost, "/send-message", `{"to":"15551234567","message":"hello","reply_to":"wamid.IN"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"message_id":"wamid.OUT"}`, w.Body.String())

	require.Len(t, svc.outbound, 1)
	assert.Equal(t, "wamid.IN", svc.outbound[0].ReplyTo)

	w = serve(r, http.MethodPost, "/send-message", `{"to":"15551234567"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     int
		textCode string
	}{
		{name: "rate limited", err: &client.APIError{Kind: client.KindRateLimited}, want: http.StatusTooManyRequests, textCode: "WHATSAPP_RATE_LIMITED"},
		{name: "validation", err: &client.APIError{Kind: client.KindValidationFailed}, want: http.StatusBadRequest, textCode: "WHATSAPP_VALIDATION_FAILED"},
		{name: "auth", err: &client.APIError{Kind: client.KindAuthenticationFailed, Code: 190}, want: http.StatusUnauthorized, textCode: "WHATSAPP_AUTHENTICATION_FAILED"},
		{name: "timeout", err: &client.APIError{Kind: client.KindTransportFailure, Timeout: true}, want: http.StatusGatewayTimeout, textCode: "WHATSAPP_TRANSPORT_TIMEOUT"},
		{name: "wrapped provider error", err: fmt.Errorf("send: %w", &client.APIError{Kind: client.KindProviderError, Code: 131000}), want: http.StatusBadGateway, textCode: "WHATSAPP_PROVIDER_ERROR"},
		{name: "plain error", err: assert.AnError, want: http.StatusBadGateway, textCode: "WHATSAPP_SEND_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(&stubService{sendErr: tt.err}, config.WebhookConfig{})

			w := serve(r, http.MethodPost, "/send-message", `{"to":"1","message":"x"}`)
			assert.Equal(t, tt.want, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.textCode, body["text_code"])
			assert.Equal(t, "unable to send message", body["error"])
		})
	}
}

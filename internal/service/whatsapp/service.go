package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/config"
	client "github.com/mamadbah2/wacloud/pkg/clients/whatsapp"
	"github.com/mamadbah2/wacloud/pkg/webhook"
)

const outboundTimeout = 10 * time.Second

// OutboundMessageRequest is the payload accepted by the send endpoint.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
	ReplyTo    string `json:"reply_to,omitempty"`
}

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, events []webhook.Event) error
	SendOutbound(ctx context.Context, req OutboundMessageRequest) (string, error)
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
// It implements webhook.Handler, so every event variant has a home.
type MetaWhatsAppService struct {
	cfg      config.WhatsAppConfig
	markRead bool
	client   client.Client
	logger   *zap.Logger
}

var _ webhook.Handler = (*MetaWhatsAppService)(nil)

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, hooks config.WebhookConfig, client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:      cfg,
		markRead: hooks.MarkAsRead,
		client:   client,
		logger:   logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook dispatches every normalized event. A failing event does not
// stop the others; the first error is returned.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, events []webhook.Event) error {
	var firstErr error

	for _, ev := range events {
		if err := webhook.Dispatch(ctx, ev, s); err != nil {
			s.logger.Error("failed to handle webhook event", zap.Error(err), zap.String("kind", string(ev.Kind())))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// SendOutbound lets internal operators push quick notifications via HTTP.
// It returns the provider message id.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req OutboundMessageRequest) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, outboundTimeout)
	defer cancel()

	resp, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
		ReplyTo:    req.ReplyTo,
	})
	if err != nil {
		return "", err
	}
	return resp.MessageID(), nil
}

func (s *MetaWhatsAppService) OnText(ctx context.Context, ev webhook.TextMessage) error {
	s.logger.Info("text message received",
		zap.String("from", ev.From),
		zap.String("profile_name", ev.ProfileName),
		zap.String("message_id", ev.MessageID),
		zap.Int("length", len(ev.Body)))
	return s.acknowledge(ctx, ev.MessageInfo)
}

func (s *MetaWhatsAppService) OnImage(ctx context.Context, ev webhook.ImageMessage) error {
	return s.onMedia(ctx, ev.MessageInfo, ev.Kind(), ev.Media)
}

func (s *MetaWhatsAppService) OnVideo(ctx context.Context, ev webhook.VideoMessage) error {
	return s.onMedia(ctx, ev.MessageInfo, ev.Kind(), ev.Media)
}

func (s *MetaWhatsAppService) OnAudio(ctx context.Context, ev webhook.AudioMessage) error {
	return s.onMedia(ctx, ev.MessageInfo, ev.Kind(), ev.Media)
}

func (s *MetaWhatsAppService) OnDocument(ctx context.Context, ev webhook.DocumentMessage) error {
	return s.onMedia(ctx, ev.MessageInfo, ev.Kind(), ev.Media)
}

func (s *MetaWhatsAppService) OnSticker(ctx context.Context, ev webhook.StickerMessage) error {
	return s.onMedia(ctx, ev.MessageInfo, ev.Kind(), ev.Media)
}

func (s *MetaWhatsAppService) OnLocation(ctx context.Context, ev webhook.LocationMessage) error {
	s.logger.Info("location received",
		zap.String("from", ev.From),
		zap.Float64("latitude", ev.Latitude),
		zap.Float64("longitude", ev.Longitude))
	return s.acknowledge(ctx, ev.MessageInfo)
}

func (s *MetaWhatsAppService) OnContacts(ctx context.Context, ev webhook.ContactsMessage) error {
	s.logger.Info("contacts received", zap.String("from", ev.From), zap.Int("count", len(ev.Contacts)))
	return s.acknowledge(ctx, ev.MessageInfo)
}

func (s *MetaWhatsAppService) OnReaction(_ context.Context, ev webhook.ReactionMessage) error {
	s.logger.Info("reaction received",
		zap.String("from", ev.From),
		zap.String("reacted_message_id", ev.ReactedMessageID),
		zap.String("emoji", ev.Emoji))
	return nil
}

func (s *MetaWhatsAppService) OnButtonReply(ctx context.Context, ev webhook.ButtonReplyEvent) error {
	s.logger.Info("button reply received", zap.String("from", ev.From), zap.String("button_id", ev.ButtonID))
	return s.acknowledge(ctx, ev.MessageInfo)
}

func (s *MetaWhatsAppService) OnListReply(ctx context.Context, ev webhook.ListReplyEvent) error {
	s.logger.Info("list reply received", zap.String("from", ev.From), zap.String("row_id", ev.RowID))
	return s.acknowledge(ctx, ev.MessageInfo)
}

func (s *MetaWhatsAppService) OnSent(_ context.Context, ev webhook.MessageSent) error {
	s.logger.Debug("message sent", zap.String("message_id", ev.MessageID), zap.String("recipient_id", ev.RecipientID))
	return nil
}

func (s *MetaWhatsAppService) OnDelivered(_ context.Context, ev webhook.MessageDelivered) error {
	s.logger.Debug("message delivered", zap.String("message_id", ev.MessageID), zap.String("recipient_id", ev.RecipientID))
	return nil
}

func (s *MetaWhatsAppService) OnRead(_ context.Context, ev webhook.MessageRead) error {
	s.logger.Debug("message read", zap.String("message_id", ev.MessageID), zap.String("recipient_id", ev.RecipientID))
	return nil
}

func (s *MetaWhatsAppService) OnFailed(_ context.Context, ev webhook.MessageFailed) error {
	s.logger.Warn("message delivery failed",
		zap.String("message_id", ev.MessageID),
		zap.String("recipient_id", ev.RecipientID),
		zap.Int("code", ev.Error.Code),
		zap.String("title", ev.Error.Title),
		zap.String("details", ev.Error.Details()))
	return nil
}

func (s *MetaWhatsAppService) OnError(_ context.Context, ev webhook.WebhookError) error {
	s.logger.Warn("webhook reported an error",
		zap.String("phone_number_id", ev.PhoneNumberID),
		zap.Int("code", ev.Error.Code),
		zap.String("title", ev.Error.Title),
		zap.String("details", ev.Error.Details()))
	return nil
}

func (s *MetaWhatsAppService) OnUnknown(_ context.Context, ev webhook.Unknown) error {
	s.logger.Info("unrecognized webhook record",
		zap.String("raw_type", ev.RawType),
		zap.String("phone_number_id", ev.PhoneNumberID))
	return nil
}

func (s *MetaWhatsAppService) onMedia(ctx context.Context, info webhook.MessageInfo, kind webhook.Kind, media webhook.Media) error {
	s.logger.Info("media message received",
		zap.String("kind", string(kind)),
		zap.String("from", info.From),
		zap.String("media_id", media.ID),
		zap.String("mime_type", media.MimeType))
	return s.acknowledge(ctx, info)
}

// acknowledge marks the message as read when enabled.
func (s *MetaWhatsAppService) acknowledge(ctx context.Context, info webhook.MessageInfo) error {
	if !s.markRead || info.MessageID == "" {
		return nil
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, outboundTimeout)
	defer cancel()

	if _, err := s.client.MarkAsRead(ctxWithTimeout, info.MessageID); err != nil {
		return fmt.Errorf("mark %s as read: %w", info.MessageID, err)
	}
	return nil
}

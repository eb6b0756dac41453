package whatsapp

import (
	"context"
	"net/http"
)

const messagingProduct = "whatsapp"

// SendTextMessageRequest represents a simplified text message payload.
// ReplyTo, when set, quotes the referenced message.
type SendTextMessageRequest struct {
	To         string
	Body       string
	PreviewURL bool
	ReplyTo    string
}

// SendReactionRequest reacts to a received message. An empty Emoji removes
// a previous reaction.
type SendReactionRequest struct {
	To        string
	MessageID string
	Emoji     string
}

func (c *APIClient) SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*MessageResponse, error) {
	payload := map[string]any{
		"messaging_product": messagingProduct,
		"recipient_type":    "individual",
		"to":                req.To,
		"type":              "text",
		"text": map[string]any{
			"body":        req.Body,
			"preview_url": req.PreviewURL,
		},
	}
	if req.ReplyTo != "" {
		payload["context"] = map[string]any{"message_id": req.ReplyTo}
	}
	return Call[MessageResponse](ctx, c, http.MethodPost, c.PhonePath("messages"), payload)
}

func (c *APIClient) SendReaction(ctx context.Context, req SendReactionRequest) (*MessageResponse, error) {
	payload := map[string]any{
		"messaging_product": messagingProduct,
		"recipient_type":    "individual",
		"to":                req.To,
		"type":              "reaction",
		"reaction": map[string]any{
			"message_id": req.MessageID,
			"emoji":      req.Emoji,
		},
	}
	return Call[MessageResponse](ctx, c, http.MethodPost, c.PhonePath("messages"), payload)
}

// MarkAsRead flags an inbound message as read, which also marks every
// earlier message in the conversation.
func (c *APIClient) MarkAsRead(ctx context.Context, messageID string) (*SuccessResponse, error) {
	payload := map[string]any{
		"messaging_product": messagingProduct,
		"status":            "read",
		"message_id":        messageID,
	}
	return Call[SuccessResponse](ctx, c, http.MethodPost, c.PhonePath("messages"), payload)
}

// ShowTyping displays a typing indicator to the recipient for up to 25
// seconds or until the next message is sent.
func (c *APIClient) ShowTyping(ctx context.Context, to string) (*SuccessResponse, error) {
	payload := map[string]any{
		"messaging_product": messagingProduct,
		"recipient_type":    "individual",
		"to":                to,
		"status":            "typing",
	}
	return Call[SuccessResponse](ctx, c, http.MethodPost, c.PhonePath("messages"), payload)
}

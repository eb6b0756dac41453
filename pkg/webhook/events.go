package webhook

import "context"

// Kind names an Event variant.
type Kind string

const (
	KindTextMessage      Kind = "text_message"
	KindImageMessage     Kind = "image_message"
	KindVideoMessage     Kind = "video_message"
	KindAudioMessage     Kind = "audio_message"
	KindDocumentMessage  Kind = "document_message"
	KindStickerMessage   Kind = "sticker_message"
	KindLocationMessage  Kind = "location_message"
	KindContactsMessage  Kind = "contacts_message"
	KindReactionMessage  Kind = "reaction_message"
	KindButtonReply      Kind = "button_reply"
	KindListReply        Kind = "list_reply"
	KindMessageSent      Kind = "message_sent"
	KindMessageDelivered Kind = "message_delivered"
	KindMessageRead      Kind = "message_read"
	KindMessageFailed    Kind = "message_failed"
	KindWebhookError     Kind = "webhook_error"
	KindUnknown          Kind = "unknown"
)

// Event is the normalized output unit. The variant set is closed; use
// Dispatch with a Handler to process every variant.
type Event interface {
	Kind() Kind
	Source() Origin
	isEvent()
}

// Origin locates an event inside the delivery.
type Origin struct {
	BusinessAccountID  string `json:"business_account_id,omitempty"`
	Field              string `json:"field,omitempty"`
	PhoneNumberID      string `json:"phone_number_id,omitempty"`
	DisplayPhoneNumber string `json:"display_phone_number,omitempty"`
}

func (o Origin) Source() Origin { return o }

// MessageInfo holds the fields shared by every inbound message event.
type MessageInfo struct {
	Origin
	From        string          `json:"from"`
	ProfileName string          `json:"profile_name,omitempty"`
	MessageID   string          `json:"message_id"`
	Timestamp   Timestamp       `json:"timestamp"`
	Context     *MessageContext `json:"context,omitempty"`
}

// StatusInfo holds the fields shared by every status event.
type StatusInfo struct {
	Origin
	MessageID    string        `json:"message_id"`
	RecipientID  string        `json:"recipient_id"`
	Timestamp    Timestamp     `json:"timestamp"`
	Conversation *Conversation `json:"conversation,omitempty"`
	Pricing      *Pricing      `json:"pricing,omitempty"`
}

// Media is the payload shared by media message events.
type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type TextMessage struct {
	MessageInfo
	Body string `json:"body"`
}

type ImageMessage struct {
	MessageInfo
	Media Media `json:"media"`
}

type VideoMessage struct {
	MessageInfo
	Media Media `json:"media"`
}

type AudioMessage struct {
	MessageInfo
	Media Media `json:"media"`
	Voice bool  `json:"voice,omitempty"`
}

type DocumentMessage struct {
	MessageInfo
	Media    Media  `json:"media"`
	Filename string `json:"filename,omitempty"`
}

type StickerMessage struct {
	MessageInfo
	Media    Media `json:"media"`
	Animated bool  `json:"animated,omitempty"`
}

type LocationMessage struct {
	MessageInfo
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
	URL       string  `json:"url,omitempty"`
}

type ContactsMessage struct {
	MessageInfo
	Contacts []SharedContact `json:"contacts"`
}

// ReactionMessage is an emoji reaction. An empty Emoji removes a reaction.
type ReactionMessage struct {
	MessageInfo
	ReactedMessageID string `json:"reacted_message_id"`
	Emoji            string `json:"emoji"`
}

// ButtonReplyEvent is a pressed reply button, either from an interactive
// message or a template quick reply.
type ButtonReplyEvent struct {
	MessageInfo
	ButtonID string `json:"button_id"`
	Title    string `json:"title"`
}

// ListReplyEvent is a selected row of an interactive list.
type ListReplyEvent struct {
	MessageInfo
	RowID       string `json:"row_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type MessageSent struct {
	StatusInfo
}

type MessageDelivered struct {
	StatusInfo
}

type MessageRead struct {
	StatusInfo
}

// MessageFailed carries the first error attached to the status; Errors keeps
// all of them.
type MessageFailed struct {
	StatusInfo
	Error  Error   `json:"error"`
	Errors []Error `json:"errors,omitempty"`
}

// WebhookError is an error reported at the value level, outside any status.
type WebhookError struct {
	Origin
	Error Error `json:"error"`
}

// Unknown stands in for a record whose type is not recognized or whose
// content does not match its declared type. Exactly one of Message and
// Status is set.
type Unknown struct {
	Origin
	RawType string   `json:"raw_type"`
	Message *Message `json:"message,omitempty"`
	Status  *Status  `json:"status,omitempty"`
}

func (TextMessage) Kind() Kind      { return KindTextMessage }
func (ImageMessage) Kind() Kind     { return KindImageMessage }
func (VideoMessage) Kind() Kind     { return KindVideoMessage }
func (AudioMessage) Kind() Kind     { return KindAudioMessage }
func (DocumentMessage) Kind() Kind  { return KindDocumentMessage }
func (StickerMessage) Kind() Kind   { return KindStickerMessage }
func (LocationMessage) Kind() Kind  { return KindLocationMessage }
func (ContactsMessage) Kind() Kind  { return KindContactsMessage }
func (ReactionMessage) Kind() Kind  { return KindReactionMessage }
func (ButtonReplyEvent) Kind() Kind { return KindButtonReply }
func (ListReplyEvent) Kind() Kind   { return KindListReply }
func (MessageSent) Kind() Kind      { return KindMessageSent }
func (MessageDelivered) Kind() Kind { return KindMessageDelivered }
func (MessageRead) Kind() Kind      { return KindMessageRead }
func (MessageFailed) Kind() Kind    { return KindMessageFailed }
func (WebhookError) Kind() Kind     { return KindWebhookError }
func (Unknown) Kind() Kind          { return KindUnknown }

func (TextMessage) isEvent()      {}
func (ImageMessage) isEvent()     {}
func (VideoMessage) isEvent()     {}
func (AudioMessage) isEvent()     {}
func (DocumentMessage) isEvent()  {}
func (StickerMessage) isEvent()   {}
func (LocationMessage) isEvent()  {}
func (ContactsMessage) isEvent()  {}
func (ReactionMessage) isEvent()  {}
func (ButtonReplyEvent) isEvent() {}
func (ListReplyEvent) isEvent()   {}
func (MessageSent) isEvent()      {}
func (MessageDelivered) isEvent() {}
func (MessageRead) isEvent()      {}
func (MessageFailed) isEvent()    {}
func (WebhookError) isEvent()     {}
func (Unknown) isEvent()          {}

// Handler has one method per Event variant. Implementing it is the
// compile-time guarantee that every variant is handled; OnUnknown is the
// catch-all for records the provider adds later.
type Handler interface {
	OnText(ctx context.Context, ev TextMessage) error
	OnImage(ctx context.Context, ev ImageMessage) error
	OnVideo(ctx context.Context, ev VideoMessage) error
	OnAudio(ctx context.Context, ev AudioMessage) error
	OnDocument(ctx context.Context, ev DocumentMessage) error
	OnSticker(ctx context.Context, ev StickerMessage) error
	OnLocation(ctx context.Context, ev LocationMessage) error
	OnContacts(ctx context.Context, ev ContactsMessage) error
	OnReaction(ctx context.Context, ev ReactionMessage) error
	OnButtonReply(ctx context.Context, ev ButtonReplyEvent) error
	OnListReply(ctx context.Context, ev ListReplyEvent) error
	OnSent(ctx context.Context, ev MessageSent) error
	OnDelivered(ctx context.Context, ev MessageDelivered) error
	OnRead(ctx context.Context, ev MessageRead) error
	OnFailed(ctx context.Context, ev MessageFailed) error
	OnError(ctx context.Context, ev WebhookError) error
	OnUnknown(ctx context.Context, ev Unknown) error
}

// Dispatch routes ev to the matching Handler method.
func Dispatch(ctx context.Context, ev Event, h Handler) error {
	switch e := ev.(type) {
	case TextMessage:
		return h.OnText(ctx, e)
	case ImageMessage:
		return h.OnImage(ctx, e)
	case VideoMessage:
		return h.OnVideo(ctx, e)
	case AudioMessage:
		return h.OnAudio(ctx, e)
	case DocumentMessage:
		return h.OnDocument(ctx, e)
	case StickerMessage:
		return h.OnSticker(ctx, e)
	case LocationMessage:
		return h.OnLocation(ctx, e)
	case ContactsMessage:
		return h.OnContacts(ctx, e)
	case ReactionMessage:
		return h.OnReaction(ctx, e)
	case ButtonReplyEvent:
		return h.OnButtonReply(ctx, e)
	case ListReplyEvent:
		return h.OnListReply(ctx, e)
	case MessageSent:
		return h.OnSent(ctx, e)
	case MessageDelivered:
		return h.OnDelivered(ctx, e)
	case MessageRead:
		return h.OnRead(ctx, e)
	case MessageFailed:
		return h.OnFailed(ctx, e)
	case WebhookError:
		return h.OnError(ctx, e)
	case Unknown:
		return h.OnUnknown(ctx, e)
	case nil:
		return nil
	default:
		return h.OnUnknown(ctx, Unknown{Origin: ev.Source(), RawType: string(ev.Kind())})
	}
}

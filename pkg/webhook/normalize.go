package webhook

import (
	"iter"
	"slices"
)

// Option tunes normalization.
type Option func(*options)

type options struct {
	emitSent bool
}

func newOptions(opts []Option) options {
	o := options{emitSent: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithSentStatuses controls whether "sent" statuses produce MessageSent
// events. They are emitted by default.
func WithSentStatuses(emit bool) Option {
	return func(o *options) {
		o.emitSent = emit
	}
}

// Parse decodes a raw webhook body and normalizes it.
func Parse(data []byte, opts ...Option) ([]Event, error) {
	payload, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Normalize(*payload, opts...), nil
}

// Normalize flattens the payload into events in document order: entries,
// then changes, and within a change messages, then statuses, then errors.
// Slices carried by events are copies; nested pointers such as
// MessageInfo.Context or StatusInfo.Pricing still refer to p.
func Normalize(p Payload, opts ...Option) []Event {
	events := slices.Collect(p.All(opts...))
	if events == nil {
		return []Event{}
	}
	return events
}

// All returns the events of the payload as a sequence. Each iteration walks
// the payload again from the start.
func (p Payload) All(opts ...Option) iter.Seq[Event] {
	o := newOptions(opts)
	return func(yield func(Event) bool) {
		for _, entry := range p.Entry {
			for _, change := range entry.Changes {
				origin := Origin{
					BusinessAccountID:  entry.ID,
					Field:              change.Field,
					PhoneNumberID:      change.Value.Metadata.PhoneNumberID,
					DisplayPhoneNumber: change.Value.Metadata.DisplayPhoneNumber,
				}
				if !yieldValue(change.Value, origin, o, yield) {
					return
				}
			}
		}
	}
}

func yieldValue(v Value, origin Origin, o options, yield func(Event) bool) bool {
	names := profileNames(v.Contacts)

	for i := range v.Messages {
		if !yield(messageEvent(v.Messages[i], origin, names)) {
			return false
		}
	}

	for i := range v.Statuses {
		ev, ok := statusEvent(v.Statuses[i], origin, o)
		if !ok {
			continue
		}
		if !yield(ev) {
			return false
		}
	}

	for _, e := range v.Errors {
		if !yield(WebhookError{Origin: origin, Error: e}) {
			return false
		}
	}
	return true
}

func profileNames(contacts []Contact) map[string]string {
	if len(contacts) == 0 {
		return nil
	}
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		if c.WaID != "" && c.Profile.Name != "" {
			names[c.WaID] = c.Profile.Name
		}
	}
	return names
}

func messageEvent(m Message, origin Origin, names map[string]string) Event {
	if m.Malformed {
		return unknownMessage(m, origin)
	}

	info := MessageInfo{
		Origin:      origin,
		From:        m.From,
		ProfileName: names[m.From],
		MessageID:   m.ID,
		Timestamp:   m.Timestamp,
		Context:     m.Context,
	}

	switch m.Type {
	case "text":
		if m.Text != nil {
			return TextMessage{MessageInfo: info, Body: m.Text.Body}
		}
	case "image":
		if m.Image != nil {
			return ImageMessage{MessageInfo: info, Media: mediaOf(m.Image)}
		}
	case "video":
		if m.Video != nil {
			return VideoMessage{MessageInfo: info, Media: mediaOf(m.Video)}
		}
	case "audio":
		if m.Audio != nil {
			return AudioMessage{MessageInfo: info, Media: mediaOf(m.Audio), Voice: m.Audio.Voice}
		}
	case "document":
		if m.Document != nil {
			return DocumentMessage{MessageInfo: info, Media: mediaOf(m.Document), Filename: m.Document.Filename}
		}
	case "sticker":
		if m.Sticker != nil {
			return StickerMessage{MessageInfo: info, Media: mediaOf(m.Sticker), Animated: m.Sticker.Animated}
		}
	case "location":
		if m.Location != nil {
			return LocationMessage{
				MessageInfo: info,
				Latitude:    m.Location.Latitude,
				Longitude:   m.Location.Longitude,
				Name:        m.Location.Name,
				Address:     m.Location.Address,
				URL:         m.Location.URL,
			}
		}
	case "contacts":
		if len(m.Contacts) > 0 {
			return ContactsMessage{MessageInfo: info, Contacts: slices.Clone(m.Contacts)}
		}
	case "reaction":
		if m.Reaction != nil {
			return ReactionMessage{MessageInfo: info, ReactedMessageID: m.Reaction.MessageID, Emoji: m.Reaction.Emoji}
		}
	case "interactive":
		if ev, ok := interactiveEvent(info, m.Interactive); ok {
			return ev
		}
	case "button":
		if m.Interactive != nil {
			if ev, ok := interactiveEvent(info, m.Interactive); ok {
				return ev
			}
			break
		}
		if m.Button != nil {
			return ButtonReplyEvent{MessageInfo: info, ButtonID: m.Button.Payload, Title: m.Button.Text}
		}
	}
	return unknownMessage(m, origin)
}

func interactiveEvent(info MessageInfo, in *InteractiveContent) (Event, bool) {
	if in == nil {
		return nil, false
	}
	switch in.Type {
	case "button_reply":
		if in.ButtonReply != nil {
			return ButtonReplyEvent{MessageInfo: info, ButtonID: in.ButtonReply.ID, Title: in.ButtonReply.Title}, true
		}
	case "list_reply":
		if in.ListReply != nil {
			return ListReplyEvent{
				MessageInfo: info,
				RowID:       in.ListReply.ID,
				Title:       in.ListReply.Title,
				Description: in.ListReply.Description,
			}, true
		}
	}
	return nil, false
}

func mediaOf(c *MediaContent) Media {
	return Media{ID: c.ID, MimeType: c.MimeType, SHA256: c.SHA256, Caption: c.Caption}
}

func unknownMessage(m Message, origin Origin) Unknown {
	m.Contacts = slices.Clone(m.Contacts)
	m.Errors = slices.Clone(m.Errors)
	return Unknown{Origin: origin, RawType: m.Type, Message: &m}
}

func unknownStatus(s Status, origin Origin) Unknown {
	s.Errors = slices.Clone(s.Errors)
	return Unknown{Origin: origin, RawType: s.Status, Status: &s}
}

func statusEvent(s Status, origin Origin, o options) (Event, bool) {
	if s.Malformed {
		return unknownStatus(s, origin), true
	}

	info := StatusInfo{
		Origin:       origin,
		MessageID:    s.ID,
		RecipientID:  s.RecipientID,
		Timestamp:    s.Timestamp,
		Conversation: s.Conversation,
		Pricing:      s.Pricing,
	}

	switch s.Status {
	case "sent":
		if !o.emitSent {
			return nil, false
		}
		return MessageSent{StatusInfo: info}, true
	case "delivered":
		return MessageDelivered{StatusInfo: info}, true
	case "read":
		return MessageRead{StatusInfo: info}, true
	case "failed":
		failed := MessageFailed{StatusInfo: info, Errors: slices.Clone(s.Errors)}
		if len(s.Errors) > 0 {
			failed.Error = s.Errors[0]
		}
		return failed, true
	default:
		return unknownStatus(s, origin), true
	}
}

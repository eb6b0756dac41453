package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedPayload matches every *DecodeError.
var ErrMalformedPayload = errors.New("webhook: malformed payload")

// DecodeError reports a payload whose envelope could not be decoded.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return "webhook: " + e.Reason + ": " + e.Err.Error()
	}
	return "webhook: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformedPayload
}

// Payload mirrors the structure sent by Meta's WhatsApp Cloud API webhook callbacks.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Malformed reports whether any entry, change or value of the payload was
// only partly readable.
func (p Payload) Malformed() bool {
	for _, entry := range p.Entry {
		if entry.Malformed {
			return true
		}
		for _, change := range entry.Changes {
			if change.Malformed || change.Value.Malformed {
				return true
			}
		}
	}
	return false
}

// Entry represents one business account within the delivery.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`

	Malformed bool `json:"-"`
}

// UnmarshalJSON never fails. An entry that is not an object, or whose changes
// are not an array, is kept with Malformed set and contributes no events.
func (e *Entry) UnmarshalJSON(data []byte) error {
	fields := looseObject(data)
	*e = Entry{ID: looseString(fields["id"])}
	if fields == nil {
		e.Malformed = !isNull(data)
		return nil
	}
	if !decodeMember(fields["changes"], &e.Changes) {
		e.Malformed = true
	}
	return nil
}

// Change captures the actual notification contents.
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`

	Malformed bool `json:"-"`
}

// UnmarshalJSON never fails, see Entry.UnmarshalJSON.
func (c *Change) UnmarshalJSON(data []byte) error {
	fields := looseObject(data)
	*c = Change{Field: looseString(fields["field"])}
	if fields == nil {
		c.Malformed = !isNull(data)
		return nil
	}
	decodeMember(fields["value"], &c.Value)
	return nil
}

// Value holds any combination of messages, statuses and errors.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
	Errors           []Error   `json:"errors,omitempty"`

	// Malformed is set when a member had the wrong shape, for example
	// messages sent as an object. That member is left empty; the others
	// still decode.
	Malformed bool `json:"-"`
}

// UnmarshalJSON decodes member by member and never fails.
func (v *Value) UnmarshalJSON(data []byte) error {
	fields := looseObject(data)
	*v = Value{}
	if fields == nil {
		v.Malformed = !isNull(data)
		return nil
	}

	ok := true
	ok = decodeMember(fields["messaging_product"], &v.MessagingProduct) && ok
	ok = decodeMember(fields["metadata"], &v.Metadata) && ok
	ok = decodeMember(fields["contacts"], &v.Contacts) && ok
	ok = decodeMember(fields["messages"], &v.Messages) && ok
	ok = decodeMember(fields["statuses"], &v.Statuses) && ok
	ok = decodeMember(fields["errors"], &v.Errors) && ok
	v.Malformed = !ok
	return nil
}

// Metadata contains WhatsApp phone identifiers for the business account.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// UnmarshalJSON keeps whichever identifiers are readable.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	type plain Metadata
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err == nil {
		*m = Metadata(decoded)
		return nil
	}

	fields := looseObject(data)
	*m = Metadata{
		DisplayPhoneNumber: looseString(fields["display_phone_number"]),
		PhoneNumberID:      looseString(fields["phone_number_id"]),
	}
	return nil
}

// Contact represents the WhatsApp user initiating the conversation.
type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

// UnmarshalJSON keeps the wa_id and profile name when they are readable.
func (c *Contact) UnmarshalJSON(data []byte) error {
	type plain Contact
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err == nil {
		*c = Contact(decoded)
		return nil
	}

	fields := looseObject(data)
	*c = Contact{
		WaID:    looseString(fields["wa_id"]),
		Profile: ContactProfile{Name: looseString(looseObject(fields["profile"])["name"])},
	}
	return nil
}

// ContactProfile contains the human-friendly contact name.
type ContactProfile struct {
	Name string `json:"name"`
}

// Timestamp is a unix-seconds timestamp. Meta sends it as a string; numbers
// are accepted too.
type Timestamp string

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timestamp(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Timestamp(n.String())
	return nil
}

// Time parses the timestamp. ok is false when it is empty or not numeric.
func (t Timestamp) Time() (time.Time, bool) {
	secs, err := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}

// Message aggregates every inbound WhatsApp message shape. Type selects which
// of the content fields is meaningful.
type Message struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   Timestamp           `json:"timestamp"`
	Type        string              `json:"type"`
	Context     *MessageContext     `json:"context,omitempty"`
	Text        *TextContent        `json:"text,omitempty"`
	Image       *MediaContent       `json:"image,omitempty"`
	Video       *MediaContent       `json:"video,omitempty"`
	Audio       *MediaContent       `json:"audio,omitempty"`
	Document    *MediaContent       `json:"document,omitempty"`
	Sticker     *MediaContent       `json:"sticker,omitempty"`
	Location    *LocationContent    `json:"location,omitempty"`
	Contacts    []SharedContact     `json:"contacts,omitempty"`
	Reaction    *ReactionContent    `json:"reaction,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
	Button      *ButtonContent      `json:"button,omitempty"`
	Referral    *Referral           `json:"referral,omitempty"`
	Errors      []Error             `json:"errors,omitempty"`

	// Malformed is set when the record failed to decode. Only the envelope
	// fields that could be read survive.
	Malformed bool `json:"-"`
}

// UnmarshalJSON never fails: a record that does not fit the schema is kept
// with Malformed set so the rest of the delivery still decodes.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err == nil {
		*m = Message(decoded)
		return nil
	}

	fields := looseObject(data)
	*m = Message{
		From:      looseString(fields["from"]),
		ID:        looseString(fields["id"]),
		Timestamp: Timestamp(looseString(fields["timestamp"])),
		Type:      looseString(fields["type"]),
		Malformed: true,
	}
	return nil
}

// MessageContext is present on replies and forwarded messages.
type MessageContext struct {
	From                string `json:"from,omitempty"`
	ID                  string `json:"id,omitempty"`
	Forwarded           bool   `json:"forwarded,omitempty"`
	FrequentlyForwarded bool   `json:"frequently_forwarded,omitempty"`
}

// TextContent contains text messages body.
type TextContent struct {
	Body string `json:"body"`
}

// MediaContent represents media attachments metadata.
type MediaContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
	Voice    bool   `json:"voice,omitempty"`
	Animated bool   `json:"animated,omitempty"`
}

// LocationContent holds a shared location.
type LocationContent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
	URL       string  `json:"url,omitempty"`
}

// SharedContact is one contact card of a contacts message.
type SharedContact struct {
	Name   ContactName    `json:"name"`
	Phones []ContactPhone `json:"phones,omitempty"`
}

// ContactName holds the name parts of a shared contact.
type ContactName struct {
	FormattedName string `json:"formatted_name"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
}

// ContactPhone is a phone number of a shared contact.
type ContactPhone struct {
	Phone string `json:"phone"`
	Type  string `json:"type,omitempty"`
	WaID  string `json:"wa_id,omitempty"`
}

// ReactionContent references the message reacted to.
type ReactionContent struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// InteractiveContent represents button/list replies.
type InteractiveContent struct {
	Type        string       `json:"type"`
	ButtonReply *ButtonReply `json:"button_reply,omitempty"`
	ListReply   *ListReply   `json:"list_reply,omitempty"`
}

// ButtonReply models a pressed button payload.
type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListReply models a selected list item payload.
type ListReply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ButtonContent is a quick reply button pressed on a template message.
type ButtonContent struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// Referral is attached to messages coming from click-to-WhatsApp ads.
type Referral struct {
	SourceURL  string `json:"source_url"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	Headline   string `json:"headline,omitempty"`
	Body       string `json:"body,omitempty"`
	MediaType  string `json:"media_type,omitempty"`
}

// Status represents delivery/read receipts coming from WhatsApp.
type Status struct {
	ID           string        `json:"id"`
	RecipientID  string        `json:"recipient_id"`
	Status       string        `json:"status"`
	Timestamp    Timestamp     `json:"timestamp"`
	Conversation *Conversation `json:"conversation,omitempty"`
	Pricing      *Pricing      `json:"pricing,omitempty"`
	Errors       []Error       `json:"errors,omitempty"`

	Malformed bool `json:"-"`
}

// UnmarshalJSON never fails, see Message.UnmarshalJSON.
func (s *Status) UnmarshalJSON(data []byte) error {
	type plain Status
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err == nil {
		*s = Status(decoded)
		return nil
	}

	fields := looseObject(data)
	*s = Status{
		ID:          looseString(fields["id"]),
		RecipientID: looseString(fields["recipient_id"]),
		Status:      looseString(fields["status"]),
		Timestamp:   Timestamp(looseString(fields["timestamp"])),
		Malformed:   true,
	}
	return nil
}

// Conversation describes the billing conversation a status belongs to.
type Conversation struct {
	ID                  string              `json:"id"`
	Origin              *ConversationOrigin `json:"origin,omitempty"`
	ExpirationTimestamp Timestamp           `json:"expiration_timestamp,omitempty"`
}

// ConversationOrigin is user_initiated, business_initiated or referral_conversion.
type ConversationOrigin struct {
	Type string `json:"type"`
}

// Pricing information attached to statuses.
type Pricing struct {
	Billable     bool   `json:"billable"`
	PricingModel string `json:"pricing_model"`
	Category     string `json:"category"`
}

// Error exposes errors returned from Meta during webhook notifications.
type Error struct {
	Code      int        `json:"code"`
	Title     string     `json:"title,omitempty"`
	Message   string     `json:"message,omitempty"`
	ErrorData *ErrorData `json:"error_data,omitempty"`
	Href      string     `json:"href,omitempty"`
}

// UnmarshalJSON keeps whatever could be read from a malformed error record.
func (e *Error) UnmarshalJSON(data []byte) error {
	type plain Error
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err == nil {
		*e = Error(decoded)
		return nil
	}

	fields := looseObject(data)
	*e = Error{
		Title:   looseString(fields["title"]),
		Message: looseString(fields["message"]),
	}
	var code int
	if err := json.Unmarshal(fields["code"], &code); err == nil {
		e.Code = code
	}
	return nil
}

// Details returns error_data.details when present.
func (e Error) Details() string {
	if e.ErrorData == nil {
		return ""
	}
	return e.ErrorData.Details
}

// ErrorData carries the human readable error details.
type ErrorData struct {
	Details string `json:"details"`
}

// Decode parses a webhook body. It fails only when the envelope itself is
// unusable: not a JSON object, or no entry array. Anything below that degrades
// instead: unreadable entries, changes and members are flagged Malformed and
// individual malformed records become Unknown events.
func Decode(data []byte) (*Payload, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &DecodeError{Reason: "payload is not a JSON object", Err: err}
	}
	if root == nil {
		return nil, &DecodeError{Reason: "payload is not a JSON object"}
	}

	rawEntry, ok := root["entry"]
	if !ok {
		return nil, &DecodeError{Reason: "missing entry array"}
	}
	if trimmed := bytes.TrimSpace(rawEntry); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &DecodeError{Reason: "entry is not an array"}
	}

	payload := Payload{Object: looseString(root["object"])}
	if err := json.Unmarshal(rawEntry, &payload.Entry); err != nil {
		return nil, &DecodeError{Reason: "malformed entry array", Err: err}
	}
	return &payload, nil
}

// decodeMember decodes an optional member into dst and reports whether it
// had the expected shape. A missing member counts as well formed.
func decodeMember(raw json.RawMessage, dst any) bool {
	if len(raw) == 0 {
		return true
	}
	return json.Unmarshal(raw, dst) == nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func looseObject(data []byte) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	return fields
}

func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

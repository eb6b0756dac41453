package whatsapp

// MessageResponse mirrors the successful response from Meta for outbound messages.
type MessageResponse struct {
	MessagingProduct string        `json:"messaging_product"`
	Contacts         []ContactInfo `json:"contacts"`
	Messages         []MessageInfo `json:"messages" validate:"required,min=1,dive"`
}

// MessageID returns the id of the first accepted message.
func (r *MessageResponse) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

// ContactInfo maps the input number to its WhatsApp id.
type ContactInfo struct {
	Input string `json:"input"`
	WaID  string `json:"wa_id"`
}

// MessageInfo identifies an accepted message.
type MessageInfo struct {
	ID            string `json:"id" validate:"required"`
	MessageStatus string `json:"message_status,omitempty"`
}

// SuccessResponse is returned by endpoints that only acknowledge.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// PhoneNumber describes a business phone number.
type PhoneNumber struct {
	ID                     string      `json:"id" validate:"required"`
	VerifiedName           string      `json:"verified_name"`
	DisplayPhoneNumber     string      `json:"display_phone_number"`
	QualityRating          string      `json:"quality_rating"`
	CodeVerificationStatus string      `json:"code_verification_status,omitempty"`
	PlatformType           string      `json:"platform_type,omitempty"`
	Throughput             *Throughput `json:"throughput,omitempty"`
}

// Throughput holds the messaging throughput level.
type Throughput struct {
	Level string `json:"level"`
}

// PhoneNumbersResponse lists the phone numbers of a business account.
type PhoneNumbersResponse struct {
	Data   []PhoneNumber `json:"data" validate:"dive"`
	Paging *Paging       `json:"paging,omitempty"`
}

// Paging holds cursor based pagination info.
type Paging struct {
	Cursors  *Cursors `json:"cursors,omitempty"`
	Next     string   `json:"next,omitempty"`
	Previous string   `json:"previous,omitempty"`
}

// Cursors for pagination.
type Cursors struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// MediaURLResponse is the metadata returned for an uploaded media object.
type MediaURLResponse struct {
	MessagingProduct string `json:"messaging_product"`
	URL              string `json:"url" validate:"required"`
	MimeType         string `json:"mime_type"`
	SHA256           string `json:"sha256"`
	FileSize         int64  `json:"file_size"`
	ID               string `json:"id"`
}

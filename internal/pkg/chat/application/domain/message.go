package chat

import (
	"encoding/json"
	"strings"
	"time"
)

// AttachmentKind is the media category of an attachment, derived from the
// uploaded file's detected MIME type.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentFile  AttachmentKind = "file"
)

// AttachmentKindFromMIME maps a detected MIME type to a media kind.
// Anything outside the known media families is a generic file.
func AttachmentKindFromMIME(mime string) AttachmentKind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return AttachmentImage
	case strings.HasPrefix(mime, "video/"):
		return AttachmentVideo
	case strings.HasPrefix(mime, "audio/"):
		return AttachmentAudio
	default:
		return AttachmentFile
	}
}

// Attachment references an asset held by the external asset store.
type Attachment struct {
	Kind    AttachmentKind `json:"type"`
	Locator string         `json:"path"`
}

// Content is the tagged union carried by a message: plain text or exactly one
// attachment descriptor. The raw storage form keeps the original convention:
// attachments serialize to a {"type","path"} record, text is stored as-is.
type Content struct {
	Text       string
	Attachment *Attachment
}

func TextContent(text string) Content {
	return Content{Text: text}
}

func AttachmentContent(kind AttachmentKind, locator string) Content {
	return Content{Attachment: &Attachment{Kind: kind, Locator: locator}}
}

func (c Content) IsAttachment() bool { return c.Attachment != nil }

func (c Content) IsEmpty() bool {
	return c.Attachment == nil && strings.TrimSpace(c.Text) == ""
}

// Encode renders the storage/wire form of the content.
func (c Content) Encode() string {
	if c.Attachment != nil {
		raw, err := json.Marshal(c.Attachment)
		if err != nil {
			return ""
		}
		return string(raw)
	}
	return c.Text
}

// ParseContent decodes a stored content field. It attempts the tagged
// attachment parse first and falls back to raw text, so legacy rows and plain
// messages that merely look like JSON both survive.
func ParseContent(raw string) Content {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var att Attachment
		if err := json.Unmarshal([]byte(trimmed), &att); err == nil && att.Kind != "" && att.Locator != "" {
			return Content{Attachment: &att}
		}
	}
	return Content{Text: raw}
}

// Message is an immutable log entry in a chat. Seq is assigned by the
// persistence layer in write order and is the authoritative ordering within a
// chat; CreatedAt is informational.
type Message struct {
	ID        string    `db:"id"`
	Seq       int64     `db:"seq"`
	ChatID    string    `db:"chat_id"`
	SenderID  string    `db:"sender_id"`
	Content   Content   `db:"-"`
	CreatedAt time.Time `db:"created_at"`

	// Hydrated projections.
	Sender *UserSummary `db:"-"`
	Chat   *Chat        `db:"-"`
}

// NewMessage validates and shapes a message ready to persist.
func NewMessage(chatID, senderID string, content Content) (*Message, error) {
	if chatID == "" || senderID == "" {
		return nil, errValidation("chat id and sender id are required")
	}
	if content.IsEmpty() {
		return nil, errValidation("message content is required")
	}
	if content.Attachment == nil {
		content.Text = strings.TrimSpace(content.Text)
	}
	return &Message{ChatID: chatID, SenderID: senderID, Content: content}, nil
}

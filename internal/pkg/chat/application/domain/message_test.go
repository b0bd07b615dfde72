package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentEncodeText(t *testing.T) {
	c := TextContent("hello there")
	require.Equal(t, "hello there", c.Encode())
	require.False(t, c.IsAttachment())
}

func TestContentEncodeAttachment(t *testing.T) {
	c := AttachmentContent(AttachmentImage, "uploads/abc.png")
	require.JSONEq(t, `{"type":"image","path":"uploads/abc.png"}`, c.Encode())
	require.True(t, c.IsAttachment())
}

func TestParseContentRoundTrip(t *testing.T) {
	original := AttachmentContent(AttachmentVideo, "uploads/clip.mp4")
	parsed := ParseContent(original.Encode())
	require.NotNil(t, parsed.Attachment)
	require.Equal(t, AttachmentVideo, parsed.Attachment.Kind)
	require.Equal(t, "uploads/clip.mp4", parsed.Attachment.Locator)
}

func TestParseContentFallsBackToText(t *testing.T) {
	// Text that merely looks like JSON must survive as text.
	for _, raw := range []string{
		"plain words",
		`{"not":"an attachment"}`,
		`{"type":"image"}`,
		`{broken json`,
		"",
	} {
		parsed := ParseContent(raw)
		require.Nil(t, parsed.Attachment, "raw=%q", raw)
		require.Equal(t, raw, parsed.Text)
	}
}

func TestAttachmentKindFromMIME(t *testing.T) {
	require.Equal(t, AttachmentImage, AttachmentKindFromMIME("image/png"))
	require.Equal(t, AttachmentVideo, AttachmentKindFromMIME("video/mp4"))
	require.Equal(t, AttachmentAudio, AttachmentKindFromMIME("audio/ogg"))
	require.Equal(t, AttachmentFile, AttachmentKindFromMIME("application/pdf"))
	require.Equal(t, AttachmentFile, AttachmentKindFromMIME(""))
}

func TestNewMessageTrimsText(t *testing.T) {
	m, err := NewMessage("c1", "u1", TextContent("  hi  "))
	require.NoError(t, err)
	require.Equal(t, "hi", m.Content.Text)
}

func TestNewMessageRejectsEmptyContent(t *testing.T) {
	_, err := NewMessage("c1", "u1", TextContent("   "))
	require.ErrorIs(t, err, ErrValidation)

	_, err = NewMessage("", "u1", TextContent("hi"))
	require.ErrorIs(t, err, ErrValidation)

	_, err = NewMessage("c1", "", TextContent("hi"))
	require.ErrorIs(t, err, ErrValidation)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
)

type messagesFixture struct {
	svc    *MessageService
	dir    *DirectoryService
	chats  *memChats
	msgs   *memMessages
	assets *memAssets
}

func newMessagesFixture(limit int64, users ...chat.User) *messagesFixture {
	f := &messagesFixture{
		chats:  newMemChats(),
		msgs:   &memMessages{},
		assets: newMemAssets(),
	}
	cache := newMemCache()
	userRepo := newMemUsers(users...)
	f.svc = NewMessageService(f.msgs, f.chats, userRepo, f.assets, cache, limit, testLogger())
	f.dir = NewDirectoryService(f.chats, userRepo, f.msgs, cache, f.assets, &memQueue{}, 30*time.Second, testLogger())
	return f
}

func TestSendMessageUpdatesLatestPointer(t *testing.T) {
	f := newMessagesFixture(0, someUsers("alice", "bob")...)
	ctx := context.Background()

	c, err := f.dir.GetOrCreateDirectChat(ctx, "alice", "bob")
	require.NoError(t, err)

	first, err := f.svc.SendMessage(ctx, "alice", c.ID, "hello bob")
	require.NoError(t, err)
	require.Equal(t, "hello bob", first.Content.Text)
	require.NotNil(t, first.Sender)
	require.Equal(t, "alice", first.Sender.ID)

	second, err := f.svc.SendMessage(ctx, "bob", c.ID, "hi alice")
	require.NoError(t, err)
	require.Greater(t, second.Seq, first.Seq)

	reloaded, err := f.dir.GetChat(ctx, "alice", c.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, reloaded.LatestMsgID)
	require.NotNil(t, reloaded.LatestMessage)
	require.Equal(t, "hi alice", reloaded.LatestMessage.Content.Text)
}

func TestSendMessageRequiresMembership(t *testing.T) {
	f := newMessagesFixture(0, someUsers("alice", "bob", "eve")...)
	ctx := context.Background()

	c, err := f.dir.GetOrCreateDirectChat(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, "eve", c.ID, "let me in")
	require.ErrorIs(t, err, chat.ErrAuthorization)

	_, err = f.svc.SendMessage(ctx, "alice", "", "hi")
	require.ErrorIs(t, err, chat.ErrValidation)

	_, err = f.svc.SendMessage(ctx, "alice", c.ID, "   ")
	require.ErrorIs(t, err, chat.ErrValidation)
}

func TestSendAttachmentMessageStoresAssetFirst(t *testing.T) {
	f := newMessagesFixture(1024, someUsers("alice", "bob")...)
	ctx := context.Background()

	c, err := f.dir.GetOrCreateDirectChat(ctx, "alice", "bob")
	require.NoError(t, err)

	m, err := f.svc.SendAttachmentMessage(ctx, "alice", c.ID, []byte("\x89PNG\r\n\x1a\nbytes"))
	require.NoError(t, err)
	require.True(t, m.Content.IsAttachment())
	require.Equal(t, chat.AttachmentImage, m.Content.Attachment.Kind)
	require.Equal(t, 1, f.assets.count())

	// The locator round-trips through the stored wire form.
	parsed := chat.ParseContent(m.Content.Encode())
	require.NotNil(t, parsed.Attachment)
	require.Equal(t, m.Content.Attachment.Locator, parsed.Attachment.Locator)
}

func TestSendAttachmentMessageRejectsOversized(t *testing.T) {
	const limit = 500 * 1024
	f := newMessagesFixture(limit, someUsers("alice", "bob")...)
	ctx := context.Background()

	c, err := f.dir.GetOrCreateDirectChat(ctx, "alice", "bob")
	require.NoError(t, err)

	oversized := make([]byte, 600*1024)
	_, err = f.svc.SendAttachmentMessage(ctx, "alice", c.ID, oversized)
	require.ErrorIs(t, err, chat.ErrValidation)

	// Rejected before any write: no asset, no message, pointer untouched.
	require.Equal(t, 0, f.assets.count())
	msgs, err := f.svc.ListMessages(ctx, "alice", c.ID)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestSendAttachmentMessageUploadFailure(t *testing.T) {
	f := newMessagesFixture(0, someUsers("alice", "bob")...)
	ctx := context.Background()

	c, err := f.dir.GetOrCreateDirectChat(ctx, "alice", "bob")
	require.NoError(t, err)

	f.assets.failPut = true
	_, err = f.svc.SendAttachmentMessage(ctx, "alice", c.ID, []byte("bytes"))
	require.ErrorIs(t, err, chat.ErrTransport)

	// A failed upload must not leave a message referencing a missing asset.
	msgs, err := f.svc.ListMessages(ctx, "alice", c.ID)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestListMessagesKeepsWriteOrderAndResolvesSenders(t *testing.T) {
	f := newMessagesFixture(0, someUsers("alice", "bob")...)
	ctx := context.Background()

	c, err := f.dir.GetOrCreateDirectChat(ctx, "alice", "bob")
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := f.svc.SendMessage(ctx, "alice", c.ID, text)
		require.NoError(t, err)
	}

	msgs, err := f.svc.ListMessages(ctx, "bob", c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i := 1; i < len(msgs); i++ {
		require.Greater(t, msgs[i].Seq, msgs[i-1].Seq)
	}
	require.Equal(t, "User alice", msgs[0].Sender.Name)

	_, err = f.svc.ListMessages(ctx, "eve", c.ID)
	require.ErrorIs(t, err, chat.ErrAuthorization)
}

func TestListMessagesTombstonesDeletedSender(t *testing.T) {
	f := newMessagesFixture(0, someUsers("alice", "bob")...)
	ctx := context.Background()

	c, err := f.dir.GetOrCreateDirectChat(ctx, "alice", "bob")
	require.NoError(t, err)

	// Persist a message whose sender row has since disappeared.
	_, err = f.msgs.SaveMessage(ctx, chat.Message{ChatID: c.ID, SenderID: "ghost", Content: chat.TextContent("still here")})
	require.NoError(t, err)

	msgs, err := f.svc.ListMessages(ctx, "alice", c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "Deleted user", msgs[0].Sender.Name)
}

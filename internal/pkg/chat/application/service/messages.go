package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"

	assetport "github.com/Ahmed3656/iChat/internal/infrastructure/assets/port"
	cacheport "github.com/Ahmed3656/iChat/internal/infrastructure/cache/port"
	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
	repository "github.com/Ahmed3656/iChat/internal/pkg/chat/persistence/repository/port"
)

// MessageService creates messages and keeps the chat's denormalized latest
// message in step with delivery. Membership is checked here, defensively,
// rather than trusted from callers.
type MessageService struct {
	messages   repository.MessageRepository
	chats      repository.ChatRepository
	users      repository.UserRepository
	assets     assetport.Store
	cache      cacheport.Cache
	limitBytes int64
	log        *slog.Logger
}

func NewMessageService(
	messages repository.MessageRepository,
	chats repository.ChatRepository,
	users repository.UserRepository,
	assets assetport.Store,
	cache cacheport.Cache,
	limitBytes int64,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		messages:   messages,
		chats:      chats,
		users:      users,
		assets:     assets,
		cache:      cache,
		limitBytes: limitBytes,
		log:        log,
	}
}

// SendMessage persists a text message and synchronously updates the chat's
// latest-message pointer. The durable message write comes first; a failed
// pointer update is a recoverable inconsistency, not data loss, so the send
// still succeeds.
func (s *MessageService) SendMessage(ctx context.Context, requesterID, chatID, text string) (*chat.Message, error) {
	c, err := s.memberGate(ctx, requesterID, chatID)
	if err != nil {
		return nil, err
	}

	m, err := chat.NewMessage(chatID, requesterID, chat.TextContent(text))
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, c, *m)
}

// SendAttachmentMessage stores the uploaded asset and persists a message
// referencing it. The size limit is enforced before any write; the asset
// write must succeed before the message row exists, so a failed upload never
// leaves a dangling reference.
func (s *MessageService) SendAttachmentMessage(ctx context.Context, requesterID, chatID string, data []byte) (*chat.Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is required", chat.ErrValidation)
	}
	if s.limitBytes > 0 && int64(len(data)) > s.limitBytes {
		return nil, fmt.Errorf("%w: attachment exceeds %d bytes", chat.ErrValidation, s.limitBytes)
	}

	c, err := s.memberGate(ctx, requesterID, chatID)
	if err != nil {
		return nil, err
	}

	mime := mimetype.Detect(data)
	kind := chat.AttachmentKindFromMIME(mime.String())
	key := "uploads/" + uuid.NewString() + mime.Extension()
	if err := s.assets.Put(ctx, key, mime.String(), data); err != nil {
		return nil, fmt.Errorf("%w: attachment upload: %v", chat.ErrTransport, err)
	}

	m, err := chat.NewMessage(chatID, requesterID, chat.AttachmentContent(kind, key))
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, c, *m)
}

// ListMessages returns the full log for a chat in store write order with
// sender identities resolved. Reads only need the membership bit, so the full
// aggregate is never loaded here.
func (s *MessageService) ListMessages(ctx context.Context, requesterID, chatID string) ([]chat.Message, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chatId is required", chat.ErrValidation)
	}
	member, err := s.chats.IsMember(ctx, chatID, requesterID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, fmt.Errorf("%w: requester is not a chat member", chat.ErrAuthorization)
	}

	msgs, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	senderIDs := lo.Uniq(lo.Map(msgs, func(m chat.Message, _ int) string { return m.SenderID }))
	senders, err := s.users.FindByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		summary := chat.DeletedUserSummary(msgs[i].SenderID)
		if u, ok := senders[msgs[i].SenderID]; ok {
			summary = u.Summary()
		}
		msgs[i].Sender = &summary
	}
	return msgs, nil
}

func (s *MessageService) memberGate(ctx context.Context, requesterID, chatID string) (*chat.Chat, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chatId is required", chat.ErrValidation)
	}
	c, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasMember(requesterID) {
		return nil, fmt.Errorf("%w: requester is not a chat member", chat.ErrAuthorization)
	}
	return c, nil
}

func (s *MessageService) persist(ctx context.Context, c *chat.Chat, m chat.Message) (*chat.Message, error) {
	saved, err := s.messages.SaveMessage(ctx, m)
	if err != nil {
		return nil, err
	}

	if err := s.chats.SetLatestMessage(ctx, c.ID, saved.ID); err != nil {
		// The message is durable; the stale pointer heals on the next send.
		s.log.Warn("latest message update failed",
			slog.String("chat_id", c.ID), slog.String("message_id", saved.ID), slog.Any("error", err))
	}

	keys := lo.Map(c.MemberIDs, func(id string, _ int) string { return chatListKey(id) })
	if _, err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn("chat list cache invalidation failed", slog.Any("error", err))
	}

	if sender, err := s.users.FindByID(ctx, saved.SenderID); err == nil {
		summary := sender.Summary()
		saved.Sender = &summary
	} else {
		summary := chat.DeletedUserSummary(saved.SenderID)
		saved.Sender = &summary
	}
	saved.Chat = c
	return saved, nil
}

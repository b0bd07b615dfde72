package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"

	assetport "github.com/Ahmed3656/iChat/internal/infrastructure/assets/port"
	cacheport "github.com/Ahmed3656/iChat/internal/infrastructure/cache/port"
	queueport "github.com/Ahmed3656/iChat/internal/infrastructure/queue/port"
	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/task"
	repository "github.com/Ahmed3656/iChat/internal/pkg/chat/persistence/repository/port"
)

// DirectoryService creates and mutates chat entities and enforces the group
// permission rules. Admin-gated operations require the requester to be the
// main admin or one of the group admins; every mutation is all-or-nothing.
type DirectoryService struct {
	chats    repository.ChatRepository
	users    repository.UserRepository
	messages repository.MessageRepository
	cache    cacheport.Cache
	assets   assetport.Store
	queue    queueport.Client
	listTTL  time.Duration
	log      *slog.Logger
}

func NewDirectoryService(
	chats repository.ChatRepository,
	users repository.UserRepository,
	messages repository.MessageRepository,
	cache cacheport.Cache,
	assets assetport.Store,
	queue queueport.Client,
	listTTL time.Duration,
	log *slog.Logger,
) *DirectoryService {
	return &DirectoryService{
		chats:    chats,
		users:    users,
		messages: messages,
		cache:    cache,
		assets:   assets,
		queue:    queue,
		listTTL:  listTTL,
		log:      log,
	}
}

// GetOrCreateDirectChat returns the direct chat between requester and the
// other user, creating it when absent. Concurrent calls from both sides
// resolve to the same persisted chat.
func (s *DirectoryService) GetOrCreateDirectChat(ctx context.Context, requesterID, otherID string) (*chat.Chat, error) {
	if otherID == "" {
		return nil, fmt.Errorf("%w: userId is required", chat.ErrValidation)
	}
	if otherID == requesterID {
		return nil, fmt.Errorf("%w: cannot open a direct chat with yourself", chat.ErrValidation)
	}
	if _, err := s.users.FindByID(ctx, otherID); err != nil {
		return nil, err
	}

	c, err := s.chats.CreateDirectChat(ctx, requesterID, otherID)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListChats returns every chat the requester belongs to, most recent activity
// first, with member summaries and the latest message populated. Results are
// served through the preview cache when fresh.
func (s *DirectoryService) ListChats(ctx context.Context, requesterID string) ([]chat.Chat, error) {
	key := chatListKey(requesterID)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var chats []chat.Chat
		if json.Unmarshal([]byte(cached), &chats) == nil {
			return chats, nil
		}
	}

	chats, err := s.chats.ListChatsByMember(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	for i := range chats {
		if err := s.hydrate(ctx, &chats[i]); err != nil {
			return nil, err
		}
	}

	if raw, err := json.Marshal(chats); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), s.listTTL); err != nil {
			s.log.Warn("chat list cache write failed", slog.Any("error", err))
		}
	}
	return chats, nil
}

// GetChat fetches a single chat the requester is a member of.
func (s *DirectoryService) GetChat(ctx context.Context, requesterID, chatID string) (*chat.Chat, error) {
	c, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasMember(requesterID) {
		return nil, fmt.Errorf("%w: requester is not a member", chat.ErrAuthorization)
	}
	if err := s.hydrate(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateGroupChat creates a named group. The requester becomes main admin and
// is added to the member set if absent.
func (s *DirectoryService) CreateGroupChat(ctx context.Context, requesterID, name string, memberIDs []string) (*chat.Chat, error) {
	g, err := chat.NewGroupChat(name, requesterID, memberIDs)
	if err != nil {
		return nil, err
	}

	created, err := s.chats.CreateGroupChat(ctx, g)
	if err != nil {
		return nil, err
	}
	s.invalidatePreviews(ctx, created.MemberIDs)
	if err := s.hydrate(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// RenameGroup changes the group name. Admin-gated.
func (s *DirectoryService) RenameGroup(ctx context.Context, requesterID, chatID, name string) (*chat.Chat, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: chatName is required", chat.ErrValidation)
	}
	c, err := s.adminGate(ctx, requesterID, chatID)
	if err != nil {
		return nil, err
	}
	if err := s.chats.RenameGroup(ctx, c.ID, name); err != nil {
		return nil, err
	}
	s.invalidatePreviews(ctx, c.MemberIDs)
	return s.reload(ctx, c.ID)
}

// SetAdmin promotes a member to group admin. Promoting an existing admin is a
// conflict.
func (s *DirectoryService) SetAdmin(ctx context.Context, requesterID, chatID, targetID string) (*chat.Chat, error) {
	c, err := s.adminGate(ctx, requesterID, chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasMember(targetID) {
		return nil, fmt.Errorf("%w: user %s is not a group member", chat.ErrValidation, targetID)
	}
	if c.MainAdminID == targetID {
		return nil, fmt.Errorf("%w: user is already an admin", chat.ErrConflict)
	}
	if err := s.chats.AddAdmin(ctx, c.ID, targetID); err != nil {
		return nil, err
	}
	return s.reload(ctx, c.ID)
}

// RemoveAdmin demotes a group admin. The main admin role is permanent.
func (s *DirectoryService) RemoveAdmin(ctx context.Context, requesterID, chatID, targetID string) (*chat.Chat, error) {
	c, err := s.adminGate(ctx, requesterID, chatID)
	if err != nil {
		return nil, err
	}
	if c.MainAdminID == targetID {
		return nil, fmt.Errorf("%w: cannot demote the main admin", chat.ErrPermanentRole)
	}
	if err := s.chats.RemoveAdmin(ctx, c.ID, targetID); err != nil {
		return nil, err
	}
	return s.reload(ctx, c.ID)
}

// AddMember adds a user to the group. Adding an existing member is a conflict.
func (s *DirectoryService) AddMember(ctx context.Context, requesterID, chatID, targetID string) (*chat.Chat, error) {
	c, err := s.adminGate(ctx, requesterID, chatID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		return nil, err
	}
	if err := s.chats.AddMember(ctx, c.ID, targetID); err != nil {
		return nil, err
	}
	s.invalidatePreviews(ctx, append(c.MemberIDs, targetID))
	return s.reload(ctx, c.ID)
}

// RemoveMember expels a user from the group, dropping any admin role in the
// same operation. The main admin cannot be removed.
func (s *DirectoryService) RemoveMember(ctx context.Context, requesterID, chatID, targetID string) (*chat.Chat, error) {
	c, err := s.adminGate(ctx, requesterID, chatID)
	if err != nil {
		return nil, err
	}
	if c.MainAdminID == targetID {
		return nil, fmt.Errorf("%w: cannot remove the main admin", chat.ErrPermanentRole)
	}
	if err := s.chats.RemoveMember(ctx, c.ID, targetID); err != nil {
		return nil, err
	}
	s.invalidatePreviews(ctx, c.MemberIDs)
	return s.reload(ctx, c.ID)
}

// ChangeGroupAvatar uploads the new avatar, swaps the reference and schedules
// release of the replaced asset.
func (s *DirectoryService) ChangeGroupAvatar(ctx context.Context, requesterID, chatID string, data []byte) (*chat.Chat, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is required", chat.ErrValidation)
	}
	c, err := s.adminGate(ctx, requesterID, chatID)
	if err != nil {
		return nil, err
	}

	mime := mimetype.Detect(data)
	key := "avatars/" + uuid.NewString() + mime.Extension()
	if err := s.assets.Put(ctx, key, mime.String(), data); err != nil {
		return nil, fmt.Errorf("%w: avatar upload: %v", chat.ErrTransport, err)
	}

	previous, err := s.chats.SetAvatar(ctx, c.ID, key)
	if err != nil {
		return nil, err
	}
	if previous != "" {
		s.releaseAsset(ctx, previous)
	}
	s.invalidatePreviews(ctx, c.MemberIDs)
	return s.reload(ctx, c.ID)
}

// adminGate loads the chat and verifies it is a group the requester may
// administer.
func (s *DirectoryService) adminGate(ctx context.Context, requesterID, chatID string) (*chat.Chat, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chatId is required", chat.ErrValidation)
	}
	c, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.IsGroup() {
		return nil, fmt.Errorf("%w: not a group chat", chat.ErrValidation)
	}
	if !c.IsAdmin(requesterID) {
		return nil, fmt.Errorf("%w: requester is not a group admin", chat.ErrAuthorization)
	}
	return c, nil
}

func (s *DirectoryService) reload(ctx context.Context, chatID string) (*chat.Chat, error) {
	c, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// hydrate fills member summaries and the latest message projection. Deleted
// accounts render as tombstones rather than breaking the chat.
func (s *DirectoryService) hydrate(ctx context.Context, c *chat.Chat) error {
	users, err := s.users.FindByIDs(ctx, c.MemberIDs)
	if err != nil {
		return err
	}
	c.Members = lo.Map(c.MemberIDs, func(id string, _ int) chat.UserSummary {
		if u, ok := users[id]; ok {
			return u.Summary()
		}
		return chat.DeletedUserSummary(id)
	})

	if c.LatestMsgID == "" {
		return nil
	}
	msgs, err := s.messages.FindByIDs(ctx, []string{c.LatestMsgID})
	if err != nil {
		return err
	}
	if m, ok := msgs[c.LatestMsgID]; ok {
		if u, found := users[m.SenderID]; found {
			summary := u.Summary()
			m.Sender = &summary
		} else if sender, err := s.users.FindByID(ctx, m.SenderID); err == nil {
			summary := sender.Summary()
			m.Sender = &summary
		} else {
			summary := chat.DeletedUserSummary(m.SenderID)
			m.Sender = &summary
		}
		c.LatestMessage = &m
	}
	return nil
}

func (s *DirectoryService) invalidatePreviews(ctx context.Context, memberIDs []string) {
	keys := lo.Map(lo.Uniq(memberIDs), func(id string, _ int) string { return chatListKey(id) })
	if _, err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn("chat list cache invalidation failed", slog.Any("error", err))
	}
}

func (s *DirectoryService) releaseAsset(ctx context.Context, locator string) {
	t, err := task.NewReleaseAssetTask(locator)
	if err != nil {
		s.log.Warn("release task encode failed", slog.String("locator", locator), slog.Any("error", err))
		return
	}
	if _, err := s.queue.Enqueue(ctx, t, queueport.EnqueueOption{Queue: "assets", MaxRetry: 10}); err != nil {
		s.log.Warn("release task enqueue failed", slog.String("locator", locator), slog.Any("error", err))
	}
}

func chatListKey(userID string) string {
	return "chats:" + userID
}

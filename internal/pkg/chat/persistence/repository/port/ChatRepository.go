package repository

import (
	"context"

	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for chat entities.
//
// Adapters translate storage-level outcomes into the domain error kinds:
// unresolvable ids map to chat.ErrNotFound, failed conditional updates map to
// chat.ErrConflict, and transport problems map to chat.ErrStorage. Membership
// and admin mutations must be atomic conditional updates (add-if-absent,
// remove-if-present) so two concurrent admins never lose each other's writes.
type ChatRepository interface {
	// GetChat loads a chat with its member and admin id sets.
	GetChat(ctx context.Context, chatID string) (*chat.Chat, error)

	// CreateDirectChat returns the direct chat between the unordered pair,
	// creating it when absent. Safe under concurrent calls from both sides.
	CreateDirectChat(ctx context.Context, userA, userB string) (*chat.Chat, error)

	CreateGroupChat(ctx context.Context, g *chat.Chat) (*chat.Chat, error)

	// ListChatsByMember returns every chat the user belongs to, most recent
	// activity first, with member/admin id sets and latest message id filled.
	ListChatsByMember(ctx context.Context, userID string) ([]chat.Chat, error)

	RenameGroup(ctx context.Context, chatID, name string) error

	// SetAvatar swaps the avatar reference and reports the previous locator so
	// the caller can release the replaced asset.
	SetAvatar(ctx context.Context, chatID, locator string) (previous string, err error)

	AddAdmin(ctx context.Context, chatID, userID string) error
	RemoveAdmin(ctx context.Context, chatID, userID string) error
	AddMember(ctx context.Context, chatID, userID string) error

	// RemoveMember drops the membership row, which carries the admin flag, so
	// demotion and expulsion happen in one statement.
	RemoveMember(ctx context.Context, chatID, userID string) error

	SetLatestMessage(ctx context.Context, chatID, messageID string) error
	IsMember(ctx context.Context, chatID, userID string) (bool, error)
}

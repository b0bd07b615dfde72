package repository

import (
	"context"

	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
)

// MessageRepository persists the immutable message log. Ordering within a chat
// is the store's write order (the seq column), never the client clock.
type MessageRepository interface {
	// SaveMessage inserts the message and returns it with id, seq and
	// created_at assigned by the store.
	SaveMessage(ctx context.Context, m chat.Message) (*chat.Message, error)

	// ListByChat returns the full log for a chat in ascending write order.
	ListByChat(ctx context.Context, chatID string) ([]chat.Message, error)

	// FindByIDs resolves messages by id, keyed by id. Missing ids are simply
	// absent from the result.
	FindByIDs(ctx context.Context, ids []string) (map[string]chat.Message, error)
}

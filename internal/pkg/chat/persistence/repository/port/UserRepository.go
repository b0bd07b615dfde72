package repository

import (
	"context"

	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
)

// UserRepository resolves profile records for member summaries and search.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*chat.User, error)

	// FindByIDs resolves users keyed by id. Deleted accounts are absent from
	// the result; callers substitute a tombstone summary.
	FindByIDs(ctx context.Context, ids []string) (map[string]chat.User, error)

	// Search matches name or email substrings, excluding one user id
	// (normally the requester).
	Search(ctx context.Context, query, excludeID string) ([]chat.User, error)
}

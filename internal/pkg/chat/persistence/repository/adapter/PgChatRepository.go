package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
	repository "github.com/Ahmed3656/iChat/internal/pkg/chat/persistence/repository/port"
)

// PgChatRepository persists chats and memberships in Postgres.
//
// The chat row is the contention unit: admin and member mutations are single
// conditional statements so concurrent admins never clobber each other from a
// stale snapshot. Direct-chat uniqueness rides on the direct_key unique index.
type PgChatRepository struct {
	pool *pgxpool.Pool
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) GetChat(ctx context.Context, chatID string) (*chat.Chat, error) {
	c, err := r.scanChat(ctx, `
		SELECT id::text, kind, name, avatar_url, COALESCE(main_admin::text, ''), COALESCE(latest_message::text, ''), created_at, updated_at
		FROM chat.chat
		WHERE id = $1::uuid
	`, chatID)
	if err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateDirectChat runs as one transaction so a chat row can never land
// without its two membership rows.
func (r *PgChatRepository) CreateDirectChat(ctx context.Context, userA, userB string) (*chat.Chat, error) {
	key := chat.DirectKey(userA, userB)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, storageErr("create direct chat", err)
	}
	defer tx.Rollback(ctx)

	// ON CONFLICT DO NOTHING keeps the insert idempotent when both sides race
	// to open the same thread.
	if _, err := tx.Exec(ctx, `
		INSERT INTO chat.chat (kind, direct_key)
		VALUES ('direct', $1)
		ON CONFLICT (direct_key) DO NOTHING
	`, key); err != nil {
		return nil, storageErr("create direct chat", err)
	}

	var id string
	if err := tx.QueryRow(ctx, `
		SELECT id::text FROM chat.chat WHERE direct_key = $1
	`, key).Scan(&id); err != nil {
		return nil, storageErr("create direct chat", err)
	}

	for _, userID := range []string{userA, userB} {
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat.chat_member (chat_id, user_id)
			VALUES ($1::uuid, $2::uuid)
			ON CONFLICT (chat_id, user_id) DO NOTHING
		`, id, userID); err != nil {
			return nil, storageErr("add direct member", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("create direct chat", err)
	}
	return r.GetChat(ctx, id)
}

// CreateGroupChat runs as one transaction: either the group exists with its
// full member set, main admin included, or nothing was written.
func (r *PgChatRepository) CreateGroupChat(ctx context.Context, g *chat.Chat) (*chat.Chat, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, storageErr("create group chat", err)
	}
	defer tx.Rollback(ctx)

	var id string
	if err := tx.QueryRow(ctx, `
		INSERT INTO chat.chat (kind, name, avatar_url, main_admin)
		VALUES ('group', $1, $2, $3::uuid)
		RETURNING id::text
	`, g.Name, g.AvatarURL, g.MainAdminID).Scan(&id); err != nil {
		return nil, storageErr("create group chat", err)
	}

	for _, userID := range g.MemberIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat.chat_member (chat_id, user_id, is_admin)
			VALUES ($1::uuid, $2::uuid, $3)
			ON CONFLICT (chat_id, user_id) DO NOTHING
		`, id, userID, userID == g.MainAdminID); err != nil {
			return nil, storageErr("add group member", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("create group chat", err)
	}
	return r.GetChat(ctx, id)
}

func (r *PgChatRepository) ListChatsByMember(ctx context.Context, userID string) ([]chat.Chat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id::text, c.kind, c.name, c.avatar_url, COALESCE(c.main_admin::text, ''), COALESCE(c.latest_message::text, ''), c.created_at, c.updated_at
		FROM chat.chat c
		JOIN chat.chat_member m ON m.chat_id = c.id
		LEFT JOIN chat.message lm ON lm.id = c.latest_message
		WHERE m.user_id = $1::uuid
		ORDER BY COALESCE(lm.created_at, c.created_at) DESC
	`, userID)
	if err != nil {
		return nil, storageErr("list chats", err)
	}
	defer rows.Close()

	var chats []chat.Chat
	for rows.Next() {
		var c chat.Chat
		if err := rows.Scan(&c.ID, &c.Kind, &c.Name, &c.AvatarURL, &c.MainAdminID, &c.LatestMsgID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, storageErr("scan chat", err)
		}
		chats = append(chats, c)
	}
	if rows.Err() != nil {
		return nil, storageErr("list chats", rows.Err())
	}

	for i := range chats {
		if err := r.loadMembers(ctx, &chats[i]); err != nil {
			return nil, err
		}
	}
	return chats, nil
}

func (r *PgChatRepository) RenameGroup(ctx context.Context, chatID, name string) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.chat SET name = $2, updated_at = now()
		WHERE id = $1::uuid AND kind = 'group'
	`, chatID, name)
	if err != nil {
		return storageErr("rename group", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: chat %s", chat.ErrNotFound, chatID)
	}
	return nil
}

func (r *PgChatRepository) SetAvatar(ctx context.Context, chatID, locator string) (string, error) {
	var previous string
	err := r.pool.QueryRow(ctx, `
		UPDATE chat.chat c SET avatar_url = $2, updated_at = now()
		FROM (SELECT id, avatar_url AS prev FROM chat.chat WHERE id = $1::uuid) old
		WHERE c.id = old.id
		RETURNING old.prev
	`, chatID, locator).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: chat %s", chat.ErrNotFound, chatID)
	}
	if err != nil {
		return "", storageErr("set avatar", err)
	}
	return previous, nil
}

// AddAdmin promotes an existing member. The WHERE clause makes the update
// conditional so a concurrent promotion of the same user affects zero rows
// instead of silently re-applying.
func (r *PgChatRepository) AddAdmin(ctx context.Context, chatID, userID string) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.chat_member SET is_admin = TRUE
		WHERE chat_id = $1::uuid AND user_id = $2::uuid AND is_admin = FALSE
	`, chatID, userID)
	if err != nil {
		return storageErr("add admin", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s is already an admin", chat.ErrConflict, userID)
	}
	return nil
}

func (r *PgChatRepository) RemoveAdmin(ctx context.Context, chatID, userID string) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.chat_member SET is_admin = FALSE
		WHERE chat_id = $1::uuid AND user_id = $2::uuid AND is_admin = TRUE
	`, chatID, userID)
	if err != nil {
		return storageErr("remove admin", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s is not an admin", chat.ErrConflict, userID)
	}
	return nil
}

func (r *PgChatRepository) AddMember(ctx context.Context, chatID, userID string) error {
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO chat.chat_member (chat_id, user_id)
		VALUES ($1::uuid, $2::uuid)
		ON CONFLICT (chat_id, user_id) DO NOTHING
	`, chatID, userID)
	if err != nil {
		return storageErr("add member", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s is already a member", chat.ErrConflict, userID)
	}
	return nil
}

// RemoveMember deletes the membership row. The admin flag lives on that row,
// so demotion and expulsion are one atomic statement.
func (r *PgChatRepository) RemoveMember(ctx context.Context, chatID, userID string) error {
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM chat.chat_member
		WHERE chat_id = $1::uuid AND user_id = $2::uuid
	`, chatID, userID)
	if err != nil {
		return storageErr("remove member", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s is not a member", chat.ErrConflict, userID)
	}
	return nil
}

func (r *PgChatRepository) SetLatestMessage(ctx context.Context, chatID, messageID string) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.chat SET latest_message = $2::uuid, updated_at = now()
		WHERE id = $1::uuid
	`, chatID, messageID)
	if err != nil {
		return storageErr("set latest message", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: chat %s", chat.ErrNotFound, chatID)
	}
	return nil
}

func (r *PgChatRepository) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat.chat_member
			WHERE chat_id = $1::uuid AND user_id = $2::uuid
		)
	`, chatID, userID).Scan(&exists)
	if err != nil {
		return false, storageErr("check membership", err)
	}
	return exists, nil
}

func (r *PgChatRepository) scanChat(ctx context.Context, query string, args ...any) (*chat.Chat, error) {
	var c chat.Chat
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.Kind, &c.Name, &c.AvatarURL, &c.MainAdminID, &c.LatestMsgID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: chat", chat.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("load chat", err)
	}
	return &c, nil
}

func (r *PgChatRepository) loadMembers(ctx context.Context, c *chat.Chat) error {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id::text, is_admin
		FROM chat.chat_member
		WHERE chat_id = $1::uuid
	`, c.ID)
	if err != nil {
		return storageErr("load members", err)
	}
	defer rows.Close()

	c.MemberIDs = c.MemberIDs[:0]
	c.GroupAdminIDs = c.GroupAdminIDs[:0]
	for rows.Next() {
		var userID string
		var isAdmin bool
		if err := rows.Scan(&userID, &isAdmin); err != nil {
			return storageErr("scan member", err)
		}
		c.MemberIDs = append(c.MemberIDs, userID)
		if isAdmin {
			c.GroupAdminIDs = append(c.GroupAdminIDs, userID)
		}
	}
	return rows.Err()
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", chat.ErrStorage, op, err)
}

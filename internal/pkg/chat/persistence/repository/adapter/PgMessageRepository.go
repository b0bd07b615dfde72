package adapter

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/Ahmed3656/iChat/internal/pkg/chat/application/domain"
	repository "github.com/Ahmed3656/iChat/internal/pkg/chat/persistence/repository/port"
)

// PgMessageRepository stores the append-only message log. The seq bigserial
// is the authoritative per-chat ordering; created_at is set server-side.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

var _ repository.MessageRepository = (*PgMessageRepository)(nil)

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) SaveMessage(ctx context.Context, m chat.Message) (*chat.Message, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.message (chat_id, sender_id, content)
		VALUES ($1::uuid, $2::uuid, $3)
		RETURNING id::text, seq, created_at
	`, m.ChatID, m.SenderID, m.Content.Encode()).Scan(&m.ID, &m.Seq, &m.CreatedAt)
	if err != nil {
		return nil, storageErr("save message", err)
	}
	return &m, nil
}

func (r *PgMessageRepository) ListByChat(ctx context.Context, chatID string) ([]chat.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, seq, chat_id::text, sender_id::text, content, created_at
		FROM chat.message
		WHERE chat_id = $1::uuid
		ORDER BY seq ASC
	`, chatID)
	if err != nil {
		return nil, storageErr("list messages", err)
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	if rows.Err() != nil {
		return nil, storageErr("list messages", rows.Err())
	}
	return msgs, nil
}

func (r *PgMessageRepository) FindByIDs(ctx context.Context, ids []string) (map[string]chat.Message, error) {
	result := make(map[string]chat.Message, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, seq, chat_id::text, sender_id::text, content, created_at
		FROM chat.message
		WHERE id = ANY($1::uuid[])
	`, ids)
	if err != nil {
		return nil, storageErr("find messages", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		result[m.ID] = *m
	}
	if rows.Err() != nil {
		return nil, storageErr("find messages", rows.Err())
	}
	return result, nil
}

func scanMessage(scan func(dest ...any) error) (*chat.Message, error) {
	var m chat.Message
	var raw string
	if err := scan(&m.ID, &m.Seq, &m.ChatID, &m.SenderID, &raw, &m.CreatedAt); err != nil {
		return nil, storageErr("scan message", err)
	}
	m.Content = chat.ParseContent(raw)
	return &m, nil
}

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

// PgUserRepository resolves profile records. Registration and credential
// handling live in the identity service; this side only reads.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) FindByID(ctx context.Context, id string) (*chat.User, error) {
	var u chat.User
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, email, COALESCE(phone, ''), avatar_url, created_at
		FROM chat.app_user
		WHERE id = $1::uuid
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.AvatarURL, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", chat.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("find user", err)
	}
	return &u, nil
}

func (r *PgUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]chat.User, error) {
	result := make(map[string]chat.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, email, COALESCE(phone, ''), avatar_url, created_at
		FROM chat.app_user
		WHERE id = ANY($1::uuid[])
	`, ids)
	if err != nil {
		return nil, storageErr("find users", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u chat.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.AvatarURL, &u.CreatedAt); err != nil {
			return nil, storageErr("scan user", err)
		}
		result[u.ID] = u
	}
	if rows.Err() != nil {
		return nil, storageErr("find users", rows.Err())
	}
	return result, nil
}

func (r *PgUserRepository) Search(ctx context.Context, query, excludeID string) ([]chat.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, email, COALESCE(phone, ''), avatar_url, created_at
		FROM chat.app_user
		WHERE (name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		  AND id <> $2::uuid
		ORDER BY name
		LIMIT 50
	`, query, excludeID)
	if err != nil {
		return nil, storageErr("search users", err)
	}
	defer rows.Close()

	var users []chat.User
	for rows.Next() {
		var u chat.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.AvatarURL, &u.CreatedAt); err != nil {
			return nil, storageErr("scan user", err)
		}
		users = append(users, u)
	}
	if rows.Err() != nil {
		return nil, storageErr("search users", rows.Err())
	}
	return users, nil
}

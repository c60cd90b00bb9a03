package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/lborres/linkid/core"
)

func (a *Adapter) CreateCredential(ctx context.Context, c *core.Credential) error {
	query := `INSERT INTO public.credentials (user_id, password_hash) VALUES ($1, $2)
	          ON CONFLICT (user_id) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = now()
	          RETURNING created_at, updated_at`

	return a.pool.QueryRow(ctx, query, c.UserID, c.PasswordHash).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (a *Adapter) GetCredential(ctx context.Context, userID string) (*core.Credential, error) {
	query := `SELECT user_id, password_hash, created_at, updated_at FROM public.credentials WHERE user_id = $1`

	c := &core.Credential{}
	err := a.pool.QueryRow(ctx, query, userID).Scan(&c.UserID, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrCredentialNotFound
		}
		return nil, err
	}
	return c, nil
}

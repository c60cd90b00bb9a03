package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/lborres/linkid/core"
)

const userColumns = `id, user_name, email, created_at, updated_at`

func (a *Adapter) CreateUser(ctx context.Context, user *core.User) error {
	query := `INSERT INTO public.users (id, user_name, email) VALUES ($1, $2, $3) RETURNING created_at, updated_at`

	err := a.pool.QueryRow(ctx, query, user.ID, user.UserName, user.Email).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrUserExists
		}
		return err
	}
	return nil
}

func (a *Adapter) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM public.users WHERE id = $1`
	return a.getUser(ctx, q, id)
}

func (a *Adapter) GetUserByUserName(ctx context.Context, userName string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM public.users WHERE user_name = $1`
	return a.getUser(ctx, q, userName)
}

func (a *Adapter) getUser(ctx context.Context, q string, arg any) (*core.User, error) {
	user := &core.User{}
	err := a.pool.QueryRow(ctx, q, arg).Scan(&user.ID, &user.UserName, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user. Credentials, associations and sessions go
// with it through ON DELETE CASCADE.
func (a *Adapter) DeleteUser(ctx context.Context, id string) error {
	tag, err := a.pool.Exec(ctx, `DELETE FROM public.users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

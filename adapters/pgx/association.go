package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lborres/linkid/core"
)

// LinkIdentifier inserts the association unless the claimed identifier is
// taken, then reads back whoever owns it. The owner read runs as its own
// statement so it sees a row committed by a concurrent writer.
func (a *Adapter) LinkIdentifier(ctx context.Context, assoc *core.Association) (string, error) {
	insert := `INSERT INTO public.associations (id, user_id, claimed_identifier, friendly_identifier)
	           VALUES ($1, $2, $3, $4)
	           ON CONFLICT (claimed_identifier) DO NOTHING`

	if _, err := a.pool.Exec(ctx, insert, assoc.ID, assoc.UserID, assoc.ClaimedIdentifier.String(), assoc.FriendlyIdentifier); err != nil {
		return "", fmt.Errorf("insert association: %w", err)
	}

	var ownerID string
	err := a.pool.QueryRow(ctx,
		`SELECT user_id FROM public.associations WHERE claimed_identifier = $1`,
		assoc.ClaimedIdentifier.String(),
	).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// the owner was deleted between the two statements
			return "", core.ErrAssociationNotFound
		}
		return "", err
	}
	return ownerID, nil
}

func (a *Adapter) UnlinkIdentifier(ctx context.Context, id core.ClaimedIdentifier, userID string) error {
	tag, err := a.pool.Exec(ctx,
		`DELETE FROM public.associations WHERE claimed_identifier = $1 AND user_id = $2`,
		id.String(), userID,
	)
	if err != nil {
		return fmt.Errorf("delete association: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrAssociationNotFound
	}
	return nil
}

func (a *Adapter) GetUserByClaimedIdentifier(ctx context.Context, id core.ClaimedIdentifier) (*core.User, error) {
	q := `SELECT u.id, u.user_name, u.email, u.created_at, u.updated_at
	      FROM public.users u
	      JOIN public.associations a ON a.user_id = u.id
	      WHERE a.claimed_identifier = $1`
	return a.getUser(ctx, q, id.String())
}

func (a *Adapter) GetUserAssociations(ctx context.Context, userID string) ([]*core.Association, error) {
	query := `SELECT id, user_id, claimed_identifier, friendly_identifier, created_at
	          FROM public.associations WHERE user_id = $1 ORDER BY created_at`

	rows, err := a.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var associations []*core.Association
	for rows.Next() {
		assoc := &core.Association{}
		var claimed string
		if err := rows.Scan(&assoc.ID, &assoc.UserID, &claimed, &assoc.FriendlyIdentifier, &assoc.CreatedAt); err != nil {
			return nil, err
		}
		assoc.ClaimedIdentifier = core.ClaimedIdentifier(claimed)
		associations = append(associations, assoc)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return associations, nil
}

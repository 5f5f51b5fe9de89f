package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/chepyr/go-kanban/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BoardRepository struct {
	q sqlx.ExtContext
}

func (r *BoardRepository) Create(ctx context.Context, board *models.Board) error {
	query := `INSERT INTO boards (id, name, owner_id, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.q.ExecContext(ctx, query, board.ID, board.Name, board.OwnerID, board.CreatedAt)
	return err
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	board := &models.Board{}
	query := `SELECT id, name, owner_id, created_at FROM boards WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q, board, query, id); err != nil {
		return nil, notFound(err)
	}
	return board, nil
}

func (r *BoardRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	n, err := execBuilder(ctx, r.q, psql.Update("boards").Set("name", name).Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the board with its columns, cards and memberships. The
// statements do not rely on ON DELETE CASCADE so the result is the same on
// connections without foreign key enforcement.
func (r *BoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cleanup := []string{
		`DELETE FROM cards WHERE column_id IN (SELECT id FROM columns WHERE board_id = $1)`,
		`DELETE FROM columns WHERE board_id = $1`,
		`DELETE FROM board_users WHERE board_id = $1`,
	}
	for _, query := range cleanup {
		if _, err := r.q.ExecContext(ctx, query, id); err != nil {
			return err
		}
	}
	return expectRow(r.q.ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id))
}

// ListForUser returns the boards userID is a member of, with the user's role.
func (r *BoardRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.BoardSummary, error) {
	query, args, err := psql.
		Select("b.id", "b.name", "b.owner_id", "b.created_at", "bu.role").
		From("boards b").
		Join("board_users bu ON bu.board_id = b.id").
		Where(sq.Eq{"bu.user_id": userID}).
		OrderBy("b.created_at DESC", "b.name").
		ToSql()
	if err != nil {
		return nil, err
	}
	boards := []models.BoardSummary{}
	if err := sqlx.SelectContext(ctx, r.q, &boards, query, args...); err != nil {
		return nil, err
	}
	return boards, nil
}

// Lock holds the board row until the transaction ends.
func (r *BoardRepository) Lock(ctx context.Context, id uuid.UUID) error {
	return lockRow(ctx, r.q, "boards", id)
}

package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/chepyr/go-kanban/internal/models"
	"github.com/chepyr/go-kanban/internal/position"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ColumnRepository struct {
	q sqlx.ExtContext
}

func (r *ColumnRepository) Create(ctx context.Context, column *models.Column) error {
	query := `INSERT INTO columns (id, board_id, name, position) VALUES ($1, $2, $3, $4)`
	_, err := r.q.ExecContext(ctx, query, column.ID, column.BoardID, column.Name, column.Order)
	return err
}

func (r *ColumnRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Column, error) {
	column := &models.Column{}
	query := `SELECT id, board_id, name, position FROM columns WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q, column, query, id); err != nil {
		return nil, notFound(err)
	}
	return column, nil
}

func (r *ColumnRepository) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]models.Column, error) {
	columns := []models.Column{}
	query := `SELECT id, board_id, name, position FROM columns WHERE board_id = $1 ORDER BY position, id`
	if err := sqlx.SelectContext(ctx, r.q, &columns, query, boardID); err != nil {
		return nil, err
	}
	return columns, nil
}

func (r *ColumnRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	n, err := execBuilder(ctx, r.q, psql.Update("columns").Set("name", name).Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the column and its cards. Callers compact the remaining
// columns afterwards.
func (r *ColumnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cards WHERE column_id = $1`, id); err != nil {
		return err
	}
	return expectRow(r.q.ExecContext(ctx, `DELETE FROM columns WHERE id = $1`, id))
}

// Lock holds the column row until the transaction ends.
func (r *ColumnRepository) Lock(ctx context.Context, id uuid.UUID) error {
	return lockRow(ctx, r.q, "columns", id)
}

// Group exposes the columns of each board as a position group.
func (r *ColumnRepository) Group() position.Group {
	return &siblings{q: r.q, table: "columns", parentKey: "board_id", parentTable: "boards"}
}

package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/chepyr/go-kanban/internal/position"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// siblings adapts a table with (id, <parentKey>, position) columns to
// position.Group.
type siblings struct {
	q           sqlx.ExtContext
	table       string
	parentKey   string
	parentTable string
}

func (s *siblings) Entries(ctx context.Context, parent uuid.UUID) ([]position.Entry, error) {
	query, args, err := psql.
		Select("id", "position").
		From(s.table).
		Where(sq.Eq{s.parentKey: parent}).
		OrderBy("position", "id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID       uuid.UUID `db:"id"`
		Position int       `db:"position"`
	}
	if err := sqlx.SelectContext(ctx, s.q, &rows, query, args...); err != nil {
		return nil, err
	}
	entries := make([]position.Entry, len(rows))
	for i, row := range rows {
		entries[i] = position.Entry{ID: row.ID, Order: row.Position}
	}
	return entries, nil
}

// Assign writes the whole plan with one UPDATE.
func (s *siblings) Assign(ctx context.Context, parent uuid.UUID, plan []position.Assignment) error {
	if len(plan) == 0 {
		return nil
	}
	orders := sq.Case("id")
	ids := make([]uuid.UUID, len(plan))
	for i, a := range plan {
		orders = orders.When(sq.Expr("?", a.ID), sq.Expr("CAST(? AS INTEGER)", a.Order))
		ids[i] = a.ID
	}
	_, err := execBuilder(ctx, s.q, psql.
		Update(s.table).
		Set(s.parentKey, parent).
		Set("position", orders).
		Where(sq.Eq{"id": ids}))
	return err
}

func (s *siblings) Lock(ctx context.Context, parent uuid.UUID) error {
	return lockRow(ctx, s.q, s.parentTable, parent)
}

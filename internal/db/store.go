package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned by repositories when the requested row is absent.
var ErrNotFound = errors.New("db: record not found")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store groups the repositories over one connection or one transaction.
type Store struct {
	db *sqlx.DB // nil when the store is bound to a transaction

	Boards  *BoardRepository
	Columns *ColumnRepository
	Cards   *CardRepository
	Members *MembershipRepository
	Users   *UserRepository
}

func NewStore(db *sqlx.DB) *Store {
	s := newStore(db)
	s.db = db
	return s
}

func newStore(q sqlx.ExtContext) *Store {
	return &Store{
		Boards:  &BoardRepository{q: q},
		Columns: &ColumnRepository{q: q},
		Cards:   &CardRepository{q: q},
		Members: &MembershipRepository{q: q},
		Users:   &UserRepository{q: q},
	}
}

// WithTx runs fn on a store bound to a new transaction. The transaction is
// committed when fn returns nil and rolled back otherwise, including when fn
// panics. Called on a store that is already transactional, fn joins the
// running transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newStore(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// lockRow takes a row lock until the end of the transaction. Only Postgres
// needs it; sqlite already serialises writers.
func lockRow(ctx context.Context, q sqlx.ExtContext, table string, id any) error {
	if !isPostgres(q.DriverName()) {
		return nil
	}
	var locked string
	err := q.QueryRowxContext(ctx, "SELECT id FROM "+table+" WHERE id = $1 FOR UPDATE", id).Scan(&locked)
	if err != nil {
		return notFound(err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// expectRow turns a statement that touched no rows into ErrNotFound.
func expectRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func execBuilder(ctx context.Context, q sqlx.ExtContext, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

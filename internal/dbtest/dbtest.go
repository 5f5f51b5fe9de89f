// Package dbtest provides in-memory sqlite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chepyr/go-kanban/internal/db"
	"github.com/chepyr/go-kanban/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Open returns a migrated in-memory database that is closed when the test
// ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	dbx, err := db.Connect("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbx.Close() })

	if err := db.Migrate(context.Background(), dbx); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return dbx
}

// CreateUser inserts a user with the given e-mail.
func CreateUser(t testing.TB, dbx *sqlx.DB, email string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.NewStore(dbx).Users.Create(context.Background(), &user); err != nil {
		t.Fatalf("insert user %s: %v", email, err)
	}
	return user
}

// Count runs SELECT COUNT(*) FROM table WHERE where.
func Count(t testing.TB, dbx *sqlx.DB, table, where string, args ...any) int {
	t.Helper()
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where)
	if err := dbx.Get(&n, query, args...); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

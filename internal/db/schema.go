package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// position has no unique index: renumbering rewrites rows one by one and a
// unique (parent, position) pair would reject the intermediate states.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id {{id}} PRIMARY KEY,
  email VARCHAR(255) NOT NULL UNIQUE,
  display_name TEXT,
  created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS boards (
  id {{id}} PRIMARY KEY,
  name TEXT NOT NULL,
  owner_id {{id}} NOT NULL,
  created_at {{ts}} NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS board_users (
  board_id {{id}} NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
  user_id {{id}} NOT NULL,
  role VARCHAR(16) NOT NULL,
  PRIMARY KEY (board_id, user_id)
)`,
	`CREATE TABLE IF NOT EXISTS columns (
  id {{id}} PRIMARY KEY,
  board_id {{id}} NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  position INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS cards (
  id {{id}} PRIMARY KEY,
  column_id {{id}} NOT NULL REFERENCES columns(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  description TEXT,
  position INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_board_users_user_id ON board_users(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_columns_board_id ON columns(board_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_column_id ON cards(column_id, position)`,
}

// Migrate creates the tables this service needs. It is safe to run on every
// start. The users table is normally owned by the auth service and is only
// created here when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	idType, tsType := "TEXT", "TIMESTAMP"
	if isPostgres(db.DriverName()) {
		idType, tsType = "UUID", "TIMESTAMPTZ"
	}
	r := strings.NewReplacer("{{id}}", idType, "{{ts}}", tsType)
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

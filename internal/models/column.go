package models

import "github.com/google/uuid"

type Column struct {
	ID      uuid.UUID `db:"id" json:"id"`
	BoardID uuid.UUID `db:"board_id" json:"boardId"`
	Name    string    `db:"name" json:"name"`
	Order   int       `db:"position" json:"order"`
}

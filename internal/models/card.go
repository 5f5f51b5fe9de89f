package models

import "github.com/google/uuid"

// UntitledCard replaces a blank card title.
const UntitledCard = "Untitled"

type Card struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ColumnID    uuid.UUID `db:"column_id" json:"columnId"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Order       int       `db:"position" json:"order"`
}

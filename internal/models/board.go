package models

import (
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	OwnerID   uuid.UUID `db:"owner_id" json:"ownerId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// BoardSummary is a board as seen by one of its members.
type BoardSummary struct {
	Board
	Role Role `db:"role" json:"role"`
}

// DefaultColumns are created together with every new board, in this order.
var DefaultColumns = []string{"todo", "doing", "done"}

package models

import "github.com/google/uuid"

type Membership struct {
	BoardID uuid.UUID `db:"board_id" json:"boardId"`
	UserID  uuid.UUID `db:"user_id" json:"userId"`
	Role    Role      `db:"role" json:"role"`
}

// Member is a membership row joined with the member's e-mail.
type Member struct {
	UserID uuid.UUID `db:"user_id" json:"userId"`
	Email  string    `db:"email" json:"email"`
	Role   Role      `db:"role" json:"role"`
}

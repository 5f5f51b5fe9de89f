package models

import (
	"time"

	"github.com/google/uuid"
)

// User is owned by the auth service; this module only reads it.
type User struct {
	ID          uuid.UUID `db:"id"`
	Email       string    `db:"email"`
	DisplayName *string   `db:"display_name"`
	CreatedAt   time.Time `db:"created_at"`
}

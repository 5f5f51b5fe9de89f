package db

import (
	"context"

	"github.com/chepyr/go-kanban/internal/models"
	"github.com/jmoiron/sqlx"
)

// UserRepository reads the identity table maintained by the auth service.
type UserRepository struct {
	q sqlx.ExtContext
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, email, display_name, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.q.ExecContext(ctx, query, user.ID, user.Email, user.DisplayName, user.CreatedAt)
	return err
}

// GetByEmail matches e-mail addresses case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, display_name, created_at FROM users WHERE LOWER(email) = LOWER($1)`
	if err := sqlx.GetContext(ctx, r.q, user, query, email); err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

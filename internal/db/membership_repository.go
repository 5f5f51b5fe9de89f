package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chepyr/go-kanban/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MembershipRepository reads and writes board_users, the table role
// resolution is based on.
type MembershipRepository struct {
	q sqlx.ExtContext
}

// Role returns userID's role on boardID, or models.RoleNone when there is no
// membership row.
func (r *MembershipRepository) Role(ctx context.Context, boardID, userID uuid.UUID) (models.Role, error) {
	var role models.Role
	query := `SELECT role FROM board_users WHERE board_id = $1 AND user_id = $2`
	err := sqlx.GetContext(ctx, r.q, &role, query, boardID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoleNone, nil
	}
	if err != nil {
		return models.RoleNone, err
	}
	return role, nil
}

func (r *MembershipRepository) Add(ctx context.Context, m models.Membership) error {
	query := `INSERT INTO board_users (board_id, user_id, role) VALUES ($1, $2, $3)`
	_, err := r.q.ExecContext(ctx, query, m.BoardID, m.UserID, m.Role)
	return err
}

func (r *MembershipRepository) Get(ctx context.Context, boardID, userID uuid.UUID) (*models.Membership, error) {
	m := &models.Membership{}
	query := `SELECT board_id, user_id, role FROM board_users WHERE board_id = $1 AND user_id = $2`
	if err := sqlx.GetContext(ctx, r.q, m, query, boardID, userID); err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (r *MembershipRepository) UpdateRole(ctx context.Context, boardID, userID uuid.UUID, role models.Role) error {
	query := `UPDATE board_users SET role = $1 WHERE board_id = $2 AND user_id = $3`
	return expectRow(r.q.ExecContext(ctx, query, role, boardID, userID))
}

func (r *MembershipRepository) Remove(ctx context.Context, boardID, userID uuid.UUID) error {
	query := `DELETE FROM board_users WHERE board_id = $1 AND user_id = $2`
	return expectRow(r.q.ExecContext(ctx, query, boardID, userID))
}

// ListMembers returns every member of boardID with their e-mail, owner first.
func (r *MembershipRepository) ListMembers(ctx context.Context, boardID uuid.UUID) ([]models.Member, error) {
	members := []models.Member{}
	query := `SELECT bu.user_id, COALESCE(u.email, '') AS email, bu.role
	 FROM board_users bu LEFT JOIN users u ON u.id = bu.user_id
	 WHERE bu.board_id = $1
	 ORDER BY CASE bu.role WHEN 'Owner' THEN 0 WHEN 'Editor' THEN 1 ELSE 2 END, email`
	if err := sqlx.SelectContext(ctx, r.q, &members, query, boardID); err != nil {
		return nil, err
	}
	return members, nil
}

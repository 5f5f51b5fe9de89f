package kanban

import (
	"context"
	"fmt"

	"github.com/chepyr/go-kanban/internal/models"
	"github.com/google/uuid"
)

// RoleResolver reports a user's role on a board. It is satisfied by
// *db.MembershipRepository and must be bound to the caller's transaction.
type RoleResolver interface {
	Role(ctx context.Context, boardID, userID uuid.UUID) (models.Role, error)
}

// ResolveRole returns userID's role on boardID, models.RoleNone when the user
// is not a member.
func ResolveRole(ctx context.Context, r RoleResolver, boardID, userID uuid.UUID) (models.Role, error) {
	role, err := r.Role(ctx, boardID, userID)
	if err != nil {
		return models.RoleNone, fmt.Errorf("resolve role: %w", err)
	}
	return role, nil
}

// Non-members get NotFound from every guard so the board's existence is not
// disclosed.

func requireMember(ctx context.Context, r RoleResolver, boardID, userID uuid.UUID) (models.Role, error) {
	role, err := ResolveRole(ctx, r, boardID, userID)
	if err != nil {
		return role, err
	}
	if !role.IsMember() {
		return role, notFoundError("board")
	}
	return role, nil
}

func requireEditor(ctx context.Context, r RoleResolver, boardID, userID uuid.UUID) (models.Role, error) {
	role, err := requireMember(ctx, r, boardID, userID)
	if err != nil {
		return role, err
	}
	if !role.CanEdit() {
		return role, forbiddenError("%s role cannot edit this board", role)
	}
	return role, nil
}

func requireOwner(ctx context.Context, r RoleResolver, boardID, userID uuid.UUID) (models.Role, error) {
	role, err := requireMember(ctx, r, boardID, userID)
	if err != nil {
		return role, err
	}
	if !role.IsOwner() {
		return role, forbiddenError("only the board owner can do this")
	}
	return role, nil
}

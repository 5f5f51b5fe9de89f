package kanban

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chepyr/go-kanban/internal/db"
	"github.com/chepyr/go-kanban/internal/events"
	"github.com/chepyr/go-kanban/internal/models"
	"github.com/google/uuid"
)

// A board has exactly one owner, so memberships can only be granted or
// changed to Editor or Viewer.
func assignableRole(role models.Role) error {
	if role == models.RoleEditor || role == models.RoleViewer {
		return nil
	}
	return validationError("role must be Editor or Viewer")
}

func (s *Service) ListMembers(ctx context.Context, boardID, caller uuid.UUID) ([]models.Member, error) {
	var members []models.Member
	err := s.store.WithTx(ctx, func(tx *db.Store) error {
		if _, err := requireMember(ctx, tx.Members, boardID, caller); err != nil {
			return err
		}
		var err error
		members, err = tx.Members.ListMembers(ctx, boardID)
		return err
	})
	return members, err
}

// AddMember grants role on boardID to the user registered with email.
func (s *Service) AddMember(ctx context.Context, boardID, caller uuid.UUID, email string, role models.Role) (*models.Member, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validationError("email is required")
	}
	if err := assignableRole(role); err != nil {
		return nil, err
	}
	var member *models.Member
	err := s.mutate(ctx, "add member", func(tx *db.Store) ([]events.Event, error) {
		if _, err := requireOwner(ctx, tx.Members, boardID, caller); err != nil {
			return nil, err
		}
		user, err := tx.Users.GetByEmail(ctx, email)
		if errors.Is(err, db.ErrNotFound) {
			return nil, validationError("user not found")
		}
		if err != nil {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		existing, err := tx.Members.Role(ctx, boardID, user.ID)
		if err != nil {
			return nil, err
		}
		if existing.IsMember() {
			return nil, conflictError("user is already a member")
		}
		if err := tx.Members.Add(ctx, models.Membership{BoardID: boardID, UserID: user.ID, Role: role}); err != nil {
			return nil, fmt.Errorf("insert membership: %w", err)
		}
		member = &models.Member{UserID: user.ID, Email: user.Email, Role: role}
		return []events.Event{events.New(events.MemberAdded, boardID, caller, member)}, nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *Service) UpdateMemberRole(ctx context.Context, boardID, caller, target uuid.UUID, role models.Role) error {
	if err := assignableRole(role); err != nil {
		return err
	}
	return s.mutate(ctx, "update member", func(tx *db.Store) ([]events.Event, error) {
		m, err := ownedMembership(ctx, tx, boardID, caller, target)
		if err != nil {
			return nil, err
		}
		if m.Role == role {
			return nil, nil
		}
		if err := tx.Members.UpdateRole(ctx, boardID, target, role); err != nil {
			return nil, storeErr(err, "member")
		}
		m.Role = role
		return []events.Event{events.New(events.MemberUpdated, boardID, caller, m)}, nil
	})
}

func (s *Service) RemoveMember(ctx context.Context, boardID, caller, target uuid.UUID) error {
	return s.mutate(ctx, "remove member", func(tx *db.Store) ([]events.Event, error) {
		m, err := ownedMembership(ctx, tx, boardID, caller, target)
		if err != nil {
			return nil, err
		}
		if err := tx.Members.Remove(ctx, boardID, target); err != nil {
			return nil, storeErr(err, "member")
		}
		return []events.Event{events.New(events.MemberRemoved, boardID, caller, m)}, nil
	})
}

// ownedMembership checks that caller owns boardID and returns target's
// membership, which must exist and must not be the owner's own.
func ownedMembership(ctx context.Context, tx *db.Store, boardID, caller, target uuid.UUID) (*models.Membership, error) {
	if _, err := requireOwner(ctx, tx.Members, boardID, caller); err != nil {
		return nil, err
	}
	m, err := tx.Members.Get(ctx, boardID, target)
	if err != nil {
		return nil, storeErr(err, "member")
	}
	if m.Role.IsOwner() {
		return nil, validationError("the board owner's membership cannot be changed")
	}
	return m, nil
}

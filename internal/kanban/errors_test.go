package kanban

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/chepyr/go-kanban/internal/models"
	"github.com/google/uuid"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", notFoundError("card"))

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("errors.Is(%v, ErrNotFound) = false", err)
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatalf("errors.Is(%v, ErrForbidden) = true", err)
	}
	var kerr *Error
	if !errors.As(err, &kerr) || kerr.Kind != KindNotFound {
		t.Fatalf("errors.As(%v) did not find a not_found *Error", err)
	}
	if got := err.Error(); got != "wrapped: not_found: card not found" {
		t.Fatalf("Error() = %q", got)
	}
}

type staticRoles map[uuid.UUID]models.Role

func (s staticRoles) Role(_ context.Context, _ uuid.UUID, userID uuid.UUID) (models.Role, error) {
	return s[userID], nil
}

type failingRoles struct{}

func (failingRoles) Role(context.Context, uuid.UUID, uuid.UUID) (models.Role, error) {
	return models.RoleNone, errors.New("connection reset")
}

func TestGuards(t *testing.T) {
	owner, editor, viewer, stranger := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	roles := staticRoles{owner: models.RoleOwner, editor: models.RoleEditor, viewer: models.RoleViewer}
	board := uuid.New()
	type guard func(context.Context, RoleResolver, uuid.UUID, uuid.UUID) (models.Role, error)

	cases := []struct {
		name  string
		guard guard
		user  uuid.UUID
		want  error
	}{
		{"member: viewer", requireMember, viewer, nil},
		{"member: stranger", requireMember, stranger, ErrNotFound},
		{"editor: editor", requireEditor, editor, nil},
		{"editor: owner", requireEditor, owner, nil},
		{"editor: viewer", requireEditor, viewer, ErrForbidden},
		{"editor: stranger", requireEditor, stranger, ErrNotFound},
		{"owner: owner", requireOwner, owner, nil},
		{"owner: editor", requireOwner, editor, ErrForbidden},
		{"owner: stranger", requireOwner, stranger, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.guard(context.Background(), roles, board, tc.user)
			if tc.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	_, err := requireMember(context.Background(), failingRoles{}, board, owner)
	var kerr *Error
	if err == nil || errors.As(err, &kerr) {
		t.Fatalf("store failure should pass through untyped, got %v", err)
	}
}

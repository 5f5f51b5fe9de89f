package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is a user's standing on one board. The zero value means no membership.
type Role string

const (
	RoleNone   Role = ""
	RoleViewer Role = "Viewer"
	RoleEditor Role = "Editor"
	RoleOwner  Role = "Owner"
)

func (r Role) IsMember() bool { return r != RoleNone }

func (r Role) IsOwner() bool { return r == RoleOwner }

func (r Role) CanEdit() bool { return r == RoleOwner || r == RoleEditor }

func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleEditor, RoleOwner:
		return true
	}
	return false
}

// ParseRole accepts role names in any case.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner":
		return RoleOwner, nil
	case "editor":
		return RoleEditor, nil
	case "viewer":
		return RoleViewer, nil
	}
	return RoleNone, fmt.Errorf("unknown role %q", s)
}

// UnmarshalJSON takes either a role name or the legacy numeric encoding
// (0 = Owner, 1 = Editor, 2 = Viewer).
func (r *Role) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		switch n {
		case 0:
			*r = RoleOwner
		case 1:
			*r = RoleEditor
		case 2:
			*r = RoleViewer
		default:
			return fmt.Errorf("unknown role %d", n)
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("role must be a string or number: %w", err)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

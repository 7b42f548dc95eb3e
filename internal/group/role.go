package group

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRole is returned when a role string is not one of the known roles.
var ErrInvalidRole = errors.New("invalid role")

// Role is a member's role within a group. Roles are ordered:
// member < manager < administrator.
type Role string

const (
	RoleMember        Role = "member"
	RoleManager       Role = "manager"
	RoleAdministrator Role = "administrator"
)

// Roles lists every role in ascending privilege order.
var Roles = []Role{RoleMember, RoleManager, RoleAdministrator}

// ParseRole converts s into a Role. Matching is case-insensitive and
// surrounding whitespace is ignored.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleMember:
		return RoleMember, nil
	case RoleManager:
		return RoleManager, nil
	case RoleAdministrator:
		return RoleAdministrator, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// Rank returns the privilege rank of r, or 0 for an unknown role.
func (r Role) Rank() int {
	switch r {
	case RoleMember:
		return 1
	case RoleManager:
		return 2
	case RoleAdministrator:
		return 3
	}
	return 0
}

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Rank() >= min.Rank()
}

// Label returns a human-readable name for the role.
func (r Role) Label() string {
	switch r {
	case RoleMember:
		return "Member"
	case RoleManager:
		return "Manager"
	case RoleAdministrator:
		return "Administrator"
	}
	return "Unknown"
}

func (r Role) String() string { return string(r) }

// UnmarshalJSON rejects roles outside the closed set.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

package enums

import (
	"fmt"
	"strings"
)

// Role identifies which kind of principal an account is.
type Role string

const (
	RoleUser   Role = "user"
	RoleSaller Role = "saller"
	RoleAdmin  Role = "admin"
)

var validRoles = []Role{
	RoleUser,
	RoleSaller,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// SelfRegistrable reports whether the role may sign up without an admin.
func (r Role) SelfRegistrable() bool {
	return r == RoleUser || r == RoleSaller
}

// ParseRole converts raw input into a Role. Matching is case-insensitive.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

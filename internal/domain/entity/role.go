package entity

import "strings"

// Role represents the type of role a user can have in the system.
type Role string

const (
	// RoleBuilder lists and tokenizes real-estate assets.
	RoleBuilder Role = "BUILDER"
	// RoleInvestor buys, sells and pledges asset units.
	RoleInvestor Role = "INVESTOR"
	// RoleAdmin verifies assets and operates the platform.
	RoleAdmin Role = "ADMIN"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleBuilder, RoleInvestor, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole converts a token or request value into a Role, ignoring case.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))

	return role, role.IsValid()
}

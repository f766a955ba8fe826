package domain

import "strings"

// Role is the resolved role of the acting user.
type Role string

const (
	RoleExplorer     Role = "explorer"
	RoleManager      Role = "manager"
	RoleTechAdmin    Role = "tech_admin"
	RoleDigitalAdmin Role = "digital_admin"
)

// ParseRole fails closed: anything unrecognized is an explorer.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleManager:
		return RoleManager
	case RoleTechAdmin:
		return RoleTechAdmin
	case RoleDigitalAdmin:
		return RoleDigitalAdmin
	default:
		return RoleExplorer
	}
}

// Principal is the identity attached to a request once its token is resolved.
type Principal struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

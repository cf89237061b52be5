package enums

import "fmt"

// UserRole describes what a user can do within a business.
type UserRole string

const (
	UserRoleOwner   UserRole = "owner"
	UserRoleManager UserRole = "manager"
	UserRoleStaff   UserRole = "staff"
)

func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the role is one of the known values.
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleOwner, UserRoleManager, UserRoleStaff:
		return true
	default:
		return false
	}
}

// ParseUserRole converts a raw string into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return role, nil
}

package enums

import "fmt"

// UserRole maps to the user_role_enum enum in Postgres.
type UserRole string

const (
	UserRoleFarmer    UserRole = "farmer"
	UserRoleProcessor UserRole = "processor"
	UserRoleInspector UserRole = "inspector"
	UserRoleConsumer  UserRole = "consumer"
	UserRoleAdmin     UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleFarmer,
	UserRoleProcessor,
	UserRoleInspector,
	UserRoleConsumer,
	UserRoleAdmin,
}

// IsValid reports whether the value matches the canonical user role enum.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

package enums

// UserRole distinguishes buyers from vendor staff.
type UserRole string

const (
	UserRoleBuyer  UserRole = "buyer"
	UserRoleVendor UserRole = "vendor"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleBuyer, UserRoleVendor:
		return true
	default:
		return false
	}
}

// ParseUserRole converts a raw string into a UserRole, rejecting unknown values.
func ParseUserRole(raw string) (UserRole, bool) {
	role := UserRole(raw)
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

package models

// RoleType defines the user role type
type RoleType string

const (
	RoleAdmin      RoleType = "admin"
	RoleSuperAdmin RoleType = "super-admin"
	RoleTeacher    RoleType = "teacher"
	RoleStudent    RoleType = "student"
	RoleParent     RoleType = "parent"
	RoleStaff      RoleType = "staff"
)

// AllRoles lists every role accepted by the API.
var AllRoles = []RoleType{RoleAdmin, RoleSuperAdmin, RoleTeacher, RoleStudent, RoleParent, RoleStaff}

// Valid reports whether r is a known role.
func (r RoleType) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdministrative reports whether r is admin or super-admin.
func (r RoleType) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Roles converts role constants to the strings used by middleware allow-lists.
func Roles(roles ...RoleType) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// PaymentMode is how a fee payment was made.
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "cash"
	PaymentModeUPI    PaymentMode = "upi"
	PaymentModeCard   PaymentMode = "card"
	PaymentModeBank   PaymentMode = "bank"
	PaymentModeCheque PaymentMode = "cheque"
)

// Valid reports whether m is a known payment mode.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCash, PaymentModeUPI, PaymentModeCard, PaymentModeBank, PaymentModeCheque:
		return true
	}
	return false
}

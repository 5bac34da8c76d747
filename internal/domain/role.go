package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Role categorises the acting party for permission lookups.
type Role string

const (
	RoleSubcontractor Role = "subcontractor"
	RoleConsultant    Role = "consultant"
	RoleManager       Role = "manager"
	RoleAdmin         Role = "admin"
	RoleCompanyAdmin  Role = "company_admin"
	RoleClient        Role = "client"
)

// Roles lists every registered role in declaration order.
func Roles() []Role {
	return []Role{
		RoleSubcontractor,
		RoleConsultant,
		RoleManager,
		RoleAdmin,
		RoleCompanyAdmin,
		RoleClient,
	}
}

// IsStaff reports whether the role mediates reviews on behalf of the company.
func (r Role) IsStaff() bool {
	switch r {
	case RoleManager, RoleAdmin, RoleCompanyAdmin:
		return true
	default:
		return false
	}
}

// Valid reports whether the role is one of the registered roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSubcontractor, RoleConsultant, RoleManager, RoleAdmin, RoleCompanyAdmin, RoleClient:
		return true
	default:
		return false
	}
}

// NormalizeRole coerces arbitrary role strings into the canonical representation.
func NormalizeRole(input string) Role {
	return Role(strings.ToLower(strings.TrimSpace(input)))
}

// Actor captures the acting caller resolved by the authorization layer.
// Superuser bypasses every transition matrix on single-item validation.
type Actor struct {
	ID        uuid.UUID
	Role      Role
	Company   string
	Superuser bool
}

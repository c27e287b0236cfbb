// Package membership defines the link between users and tenants.
package membership

import "time"

// Role is a user's role within a tenant.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
	RoleViewer     Role = "viewer"
)

// ValidRoles is the set of recognised roles.
var ValidRoles = map[Role]bool{
	RoleOwner:      true,
	RoleAdmin:      true,
	RoleAccountant: true,
	RoleViewer:     true,
}

// Status of a membership.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Membership grants a user a role within a tenant. A user holds a given
// role on a tenant at most once.
type Membership struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewOwner builds an active owner membership.
func NewOwner(id, userID, tenantID string, now time.Time) *Membership {
	return &Membership{
		ID:        id,
		UserID:    userID,
		TenantID:  tenantID,
		Role:      RoleOwner,
		Status:    StatusActive,
		CreatedAt: now,
	}
}

// SameGrant reports whether m and other bind the same user to the same
// tenant with the same role.
func (m *Membership) SameGrant(other *Membership) bool {
	return m.UserID == other.UserID && m.TenantID == other.TenantID && m.Role == other.Role
}

// IsActiveOwner reports whether m is an active owner membership.
func (m *Membership) IsActiveOwner() bool {
	return m.Role == RoleOwner && m.Status == StatusActive
}

// Package tenant defines the tenant registry model: tenants, their
// isolated schema names and their domain names.
package tenant

import "time"

// Status is the lifecycle state of a tenant.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusPending   Status = "PENDING"
	StatusClosed    Status = "CLOSED"
)

// DefaultBaseCurrency is assigned to every tenant created by promotion.
const DefaultBaseCurrency = "NGN"

// Tenant is a provisioned organization with its own isolated schema.
type Tenant struct {
	ID           string     `json:"id"`
	SchemaName   string     `json:"schema_name"`
	Name         string     `json:"name"`
	Status       Status     `json:"status"`
	CountryCode  string     `json:"country_code"`
	BaseCurrency string     `json:"base_currency"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Domain maps a host name to a tenant. Each tenant has exactly one primary
// domain.
type Domain struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Domain    string    `json:"domain"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

// Details is a tenant together with its primary domain.
type Details struct {
	Tenant        *Tenant `json:"tenant"`
	PrimaryDomain *Domain `json:"primary_domain,omitempty"`
}

// NewActive builds an ACTIVE tenant activated at now.
func NewActive(id, schema, name, country string, now time.Time) *Tenant {
	return &Tenant{
		ID:           id,
		SchemaName:   schema,
		Name:         name,
		Status:       StatusActive,
		CountryCode:  country,
		BaseCurrency: DefaultBaseCurrency,
		ActivatedAt:  &now,
		CreatedAt:    now,
	}
}

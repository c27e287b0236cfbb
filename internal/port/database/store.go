// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/shogunhq/shogun/internal/domain/accounting"
	"github.com/shogunhq/shogun/internal/domain/membership"
	"github.com/shogunhq/shogun/internal/domain/onboarding"
	"github.com/shogunhq/shogun/internal/domain/tenant"
	"github.com/shogunhq/shogun/internal/domain/user"
)

// Store is the port interface for database operations.
type Store interface {
	// Users
	GetUser(ctx context.Context, id string) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	ListUsers(ctx context.Context) ([]user.User, error)

	// Onboarding applications
	CreateApplication(ctx context.Context, app *onboarding.Application) error
	GetApplication(ctx context.Context, id string) (*onboarding.Application, error)
	ListApplications(ctx context.Context, status onboarding.Status) ([]onboarding.Application, error)

	// Tenants
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	GetPrimaryDomain(ctx context.Context, tenantID string) (*tenant.Domain, error)
	ListDomains(ctx context.Context, tenantID string) ([]tenant.Domain, error)

	// Memberships
	ListMemberships(ctx context.Context, tenantID string) ([]membership.Membership, error)

	// Accounting (tenant schema)
	GetAccountingSetup(ctx context.Context, schema string) (*accounting.Setup, error)

	// InTx runs fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back otherwise; nothing fn wrote is visible
	// after a rollback.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	GetUser(ctx context.Context, id string) (*user.User, error)

	// LockApplication loads an application and holds it exclusively until
	// the transaction ends.
	LockApplication(ctx context.Context, id string) (*onboarding.Application, error)
	SaveApplicationState(ctx context.Context, app *onboarding.Application) error

	TenantWriter
	MembershipWriter
	AccountingWriter
}

// TenantWriter persists registry records.
type TenantWriter interface {
	CreateTenant(ctx context.Context, t *tenant.Tenant) error
	CreateDomain(ctx context.Context, d *tenant.Domain) error
	// CreateSchema creates the isolated tenant schema and its accounting
	// tables. It fails with domain.ErrConflict if the schema exists.
	CreateSchema(ctx context.Context, schema string) error
}

// MembershipWriter persists memberships.
type MembershipWriter interface {
	// CreateMembership fails with domain.ErrConflict when the user already
	// holds the same role on the tenant.
	CreateMembership(ctx context.Context, m *membership.Membership) error
}

// AccountingWriter persists the accounting baseline inside a tenant schema.
type AccountingWriter interface {
	CreateAccountingEntity(ctx context.Context, schema string, e *accounting.Entity) error
	CreateChartOfAccounts(ctx context.Context, schema string, c *accounting.ChartOfAccounts) error
	SetDefaultChart(ctx context.Context, schema, entityID, chartID string) error
	ActivateChartOfAccounts(ctx context.Context, schema, chartID string) error
	CreateAccounts(ctx context.Context, schema string, accounts []accounting.Account) error
	CreateLedger(ctx context.Context, schema string, l *accounting.Ledger) error
}

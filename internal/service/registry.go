package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shogunhq/shogun/internal/domain/tenant"
	"github.com/shogunhq/shogun/internal/port/database"
)

// TenantRegistry allocates tenants, their isolated schemas and primary
// domains. It writes only through the transaction it is handed.
type TenantRegistry struct {
	domainSuffix string
	currency     string
}

// NewTenantRegistry creates a TenantRegistry that builds primary domains
// under domainSuffix. An empty baseCurrency keeps tenant.DefaultBaseCurrency.
func NewTenantRegistry(domainSuffix, baseCurrency string) *TenantRegistry {
	return &TenantRegistry{domainSuffix: domainSuffix, currency: baseCurrency}
}

// Allocate derives the schema name from businessName and creates the ACTIVE
// tenant, its primary domain and its schema. A schema name or primary domain
// that is already taken fails with domain.ErrConflict; names are never
// disambiguated.
func (r *TenantRegistry) Allocate(ctx context.Context, tx database.TenantWriter, businessName, countryCode string, now time.Time) (*tenant.Tenant, *tenant.Domain, error) {
	schema, err := tenant.DeriveSchemaName(businessName)
	if err != nil {
		return nil, nil, err
	}
	host, err := tenant.PrimaryDomain(schema, r.domainSuffix)
	if err != nil {
		return nil, nil, err
	}

	t := tenant.NewActive(uuid.NewString(), schema, businessName, countryCode, now)
	if r.currency != "" {
		t.BaseCurrency = r.currency
	}
	if err := tx.CreateTenant(ctx, t); err != nil {
		return nil, nil, err
	}

	d := &tenant.Domain{
		ID:        uuid.NewString(),
		TenantID:  t.ID,
		Domain:    host,
		IsPrimary: true,
		CreatedAt: now,
	}
	if err := tx.CreateDomain(ctx, d); err != nil {
		return nil, nil, err
	}

	if err := tx.CreateSchema(ctx, schema); err != nil {
		return nil, nil, err
	}
	return t, d, nil
}

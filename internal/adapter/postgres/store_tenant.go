package postgres

import (
	"context"
	"fmt"

	"github.com/shogunhq/shogun/internal/domain/tenant"
)

const (
	tenantColumns = `id, schema_name, name, status, country_code, base_currency, activated_at, created_at`
	domainColumns = `id, tenant_id, domain, is_primary, created_at`
)

func scanTenant(row scannable) (tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.SchemaName, &t.Name, &t.Status, &t.CountryCode, &t.BaseCurrency, &t.ActivatedAt, &t.CreatedAt)
	return t, err
}

func scanDomain(row scannable) (tenant.Domain, error) {
	var d tenant.Domain
	err := row.Scan(&d.ID, &d.TenantID, &d.Domain, &d.IsPrimary, &d.CreatedAt)
	return d, err
}

// --- Tenant reads ---

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY schema_name`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return orEmpty(tenants), rows.Err()
}

func (s *Store) GetPrimaryDomain(ctx context.Context, tenantID string) (*tenant.Domain, error) {
	d, err := scanDomain(s.pool.QueryRow(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE tenant_id = $1 AND is_primary`, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get primary domain for tenant %s", tenantID)
	}
	return &d, nil
}

func (s *Store) ListDomains(ctx context.Context, tenantID string) ([]tenant.Domain, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE tenant_id = $1 ORDER BY domain`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	var domains []tenant.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	return orEmpty(domains), rows.Err()
}

// --- Tenant writes (transactional) ---

func (t *pgTx) CreateTenant(ctx context.Context, tn *tenant.Tenant) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tn.ID, tn.SchemaName, tn.Name, tn.Status, tn.CountryCode, tn.BaseCurrency, tn.ActivatedAt, tn.CreatedAt,
	)
	if err != nil {
		return writeErr(err, "create tenant %q", tn.SchemaName)
	}
	return nil
}

func (t *pgTx) CreateDomain(ctx context.Context, d *tenant.Domain) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO domains (`+domainColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.TenantID, d.Domain, d.IsPrimary, d.CreatedAt,
	)
	if err != nil {
		return writeErr(err, "create domain %q", d.Domain)
	}
	return nil
}

// CreateSchema creates the tenant schema and its accounting tables.
func (t *pgTx) CreateSchema(ctx context.Context, schema string) error {
	for _, stmt := range tenantSchemaDDL(schema) {
		if _, err := t.tx.Exec(ctx, stmt); err != nil {
			return writeErr(err, "create schema %q", schema)
		}
	}
	return nil
}

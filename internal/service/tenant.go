package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shogunhq/shogun/internal/domain/accounting"
	"github.com/shogunhq/shogun/internal/domain/membership"
	"github.com/shogunhq/shogun/internal/domain/tenant"
	"github.com/shogunhq/shogun/internal/port/cache"
	"github.com/shogunhq/shogun/internal/port/database"
)

const tenantCachePrefix = "tenant:"

// TenantService serves read access to provisioned tenants. Tenant details
// are immutable after provisioning, so they are cached once loaded.
type TenantService struct {
	store database.Store
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewTenantService creates a new TenantService.
func NewTenantService(store database.Store) *TenantService {
	return &TenantService{store: store}
}

// SetCache enables caching of tenant details for ttl.
func (s *TenantService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.ttl = ttl
}

// Get returns a tenant with its primary domain.
func (s *TenantService) Get(ctx context.Context, id string) (*tenant.Details, error) {
	key := tenantCachePrefix + id
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var d tenant.Details
			if err := json.Unmarshal(raw, &d); err == nil {
				return &d, nil
			}
		}
	}

	// The shared load outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := s.group.DoChan(id, func() (any, error) {
		return s.load(context.WithoutCancel(ctx), id)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	d := res.Val.(*tenant.Details)

	if s.cache != nil {
		if raw, err := json.Marshal(d); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				slog.WarnContext(ctx, "cache tenant", "tenant_id", id, "error", err)
			}
		}
	}
	return d, nil
}

func (s *TenantService) load(ctx context.Context, id string) (*tenant.Details, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := s.store.GetPrimaryDomain(ctx, id)
	if err != nil {
		return nil, err
	}
	return &tenant.Details{Tenant: t, PrimaryDomain: d}, nil
}

// Invalidate drops any cached details for the tenant.
func (s *TenantService) Invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, tenantCachePrefix+id); err != nil {
		slog.WarnContext(ctx, "invalidate tenant cache", "tenant_id", id, "error", err)
	}
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Domains returns every domain attached to the tenant.
func (s *TenantService) Domains(ctx context.Context, id string) ([]tenant.Domain, error) {
	if _, err := s.store.GetTenant(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListDomains(ctx, id)
}

// Memberships returns the tenant's memberships.
func (s *TenantService) Memberships(ctx context.Context, id string) ([]membership.Membership, error) {
	if _, err := s.store.GetTenant(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListMemberships(ctx, id)
}

// Accounting returns the accounting baseline inside the tenant's schema.
func (s *TenantService) Accounting(ctx context.Context, id string) (*accounting.Setup, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.GetAccountingSetup(ctx, t.SchemaName)
}

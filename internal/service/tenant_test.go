package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shogunhq/shogun/internal/domain"
	"github.com/shogunhq/shogun/internal/domain/tenant"
	"github.com/shogunhq/shogun/internal/domain/user"
	"github.com/shogunhq/shogun/internal/port/database"
)

// mapCache is a minimal cache.Cache for testing.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// gatedStore holds GetTenant until release is closed and, like a real
// driver, fails once the call's context is done.
type gatedStore struct {
	database.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedStore) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Store.GetTenant(ctx, id)
}

func userRequest(email string) user.CreateRequest {
	return user.CreateRequest{Email: email, FirstName: "Ada", LastName: "Obi"}
}

func TestTenantService_GetCached(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	c := newMapCache()
	env.tenants.SetCache(c, time.Minute)

	u := env.seedUser(t, "ada@example.com")
	app := env.verifiedApplication(t, u.ID, "Acme Corp")
	res, err := env.promotion.Promote(ctx, app.ID)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}

	for range 3 {
		d, err := env.tenants.Get(ctx, res.Tenant.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if d.Tenant.SchemaName != "acme corp" {
			t.Errorf("schema = %q", d.Tenant.SchemaName)
		}
	}
	if c.sets != 1 {
		t.Errorf("cache sets = %d, want 1", c.sets)
	}

	env.tenants.Invalidate(ctx, res.Tenant.ID)
	if _, ok, _ := c.Get(ctx, tenantCachePrefix+res.Tenant.ID); ok {
		t.Error("expected cache entry to be dropped")
	}
}

func TestTenantService_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.tenants.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get error = %v", err)
	}
	if _, err := env.tenants.Accounting(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Accounting error = %v", err)
	}
	if _, err := env.tenants.Memberships(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Memberships error = %v", err)
	}
}

func TestTenantService_GetSurvivesCanceledLeader(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	u := env.seedUser(t, "ada@example.com")
	app := env.verifiedApplication(t, u.ID, "Acme Corp")
	res, err := env.promotion.Promote(ctx, app.ID)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}

	gated := &gatedStore{Store: env.store, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewTenantService(gated)

	leaderCtx, cancel := context.WithCancel(ctx)
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Get(leaderCtx, res.Tenant.ID)
		leaderErr <- err
	}()
	<-gated.entered

	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("leader error = %v, want context.Canceled", err)
	}

	type result struct {
		d   *tenant.Details
		err error
	}
	follower := make(chan result, 1)
	go func() {
		d, err := svc.Get(ctx, res.Tenant.ID)
		follower <- result{d, err}
	}()
	close(gated.release)

	got := <-follower
	if got.err != nil {
		t.Fatalf("follower Get: %v", got.err)
	}
	if got.d.Tenant.ID != res.Tenant.ID || got.d.PrimaryDomain == nil {
		t.Errorf("follower details = %+v", got.d)
	}
}

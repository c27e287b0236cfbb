// Package memory implements the database port in process memory. It backs
// tests and single-node development runs where PostgreSQL is unavailable.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shogunhq/shogun/internal/domain"
	"github.com/shogunhq/shogun/internal/domain/accounting"
	"github.com/shogunhq/shogun/internal/domain/membership"
	"github.com/shogunhq/shogun/internal/domain/onboarding"
	"github.com/shogunhq/shogun/internal/domain/tenant"
	"github.com/shogunhq/shogun/internal/domain/user"
	"github.com/shogunhq/shogun/internal/port/database"
)

var _ database.Store = (*Store)(nil)

// Store holds all records in maps guarded by a single RWMutex. A
// transaction works on a private copy of the state and swaps it in on
// commit, so transactions are serialized and a failed one leaves no trace.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{state: newState()}
}

type schemaState struct {
	entities map[string]accounting.Entity
	charts   map[string]accounting.ChartOfAccounts
	accounts map[string]accounting.Account
	ledgers  map[string]accounting.Ledger
}

type state struct {
	users        map[string]user.User
	applications map[string]onboarding.Application
	tenants      map[string]tenant.Tenant
	domains      map[string]tenant.Domain
	memberships  map[string]membership.Membership
	schemas      map[string]*schemaState
}

func newState() *state {
	return &state{
		users:        make(map[string]user.User),
		applications: make(map[string]onboarding.Application),
		tenants:      make(map[string]tenant.Tenant),
		domains:      make(map[string]tenant.Domain),
		memberships:  make(map[string]membership.Membership),
		schemas:      make(map[string]*schemaState),
	}
}

func newSchemaState() *schemaState {
	return &schemaState{
		entities: make(map[string]accounting.Entity),
		charts:   make(map[string]accounting.ChartOfAccounts),
		accounts: make(map[string]accounting.Account),
		ledgers:  make(map[string]accounting.Ledger),
	}
}

func (s *state) clone() *state {
	c := newState()
	copyMap(c.users, s.users)
	copyMap(c.applications, s.applications)
	copyMap(c.tenants, s.tenants)
	copyMap(c.domains, s.domains)
	copyMap(c.memberships, s.memberships)
	for name, sc := range s.schemas {
		cs := newSchemaState()
		copyMap(cs.entities, sc.entities)
		copyMap(cs.charts, sc.charts)
		copyMap(cs.accounts, sc.accounts)
		copyMap(cs.ledgers, sc.ledgers)
		c.schemas[name] = cs
	}
	return c
}

func copyMap[K comparable, V any](dst, src map[K]V) {
	for k, v := range src {
		dst[k] = v
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
}

// --- Users ---

func (s *Store) GetUser(_ context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.getUser(id)
}

func (st *state) getUser(id string) (*user.User, error) {
	u, ok := st.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, domain.ErrConflict)
	}
	for i := range s.state.users {
		if s.state.users[i].Email == u.Email {
			return fmt.Errorf("user email %s: %w", u.Email, domain.ErrConflict)
		}
	}
	s.state.users[u.ID] = *u
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]user.User, 0, len(s.state.users))
	for _, u := range s.state.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- Onboarding applications ---

func (s *Store) CreateApplication(_ context.Context, app *onboarding.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.users[app.InitiatedBy]; !ok {
		return notFound("user", app.InitiatedBy)
	}
	if _, ok := s.state.applications[app.ID]; ok {
		return fmt.Errorf("application %s: %w", app.ID, domain.ErrConflict)
	}
	s.state.applications[app.ID] = *app
	return nil
}

func (s *Store) GetApplication(_ context.Context, id string) (*onboarding.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.state.applications[id]
	if !ok {
		return nil, notFound("application", id)
	}
	return &app, nil
}

func (s *Store) ListApplications(_ context.Context, status onboarding.Status) ([]onboarding.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]onboarding.Application, 0, len(s.state.applications))
	for _, app := range s.state.applications {
		if status != "" && app.Status != status {
			continue
		}
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- Tenants ---

func (s *Store) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tenants[id]
	if !ok {
		return nil, notFound("tenant", id)
	}
	return &t, nil
}

func (s *Store) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]tenant.Tenant, 0, len(s.state.tenants))
	for _, t := range s.state.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SchemaName < out[j].SchemaName })
	return out, nil
}

func (s *Store) GetPrimaryDomain(_ context.Context, tenantID string) (*tenant.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.state.domains {
		if d.TenantID == tenantID && d.IsPrimary {
			return &d, nil
		}
	}
	return nil, notFound("primary domain for tenant", tenantID)
}

func (s *Store) ListDomains(_ context.Context, tenantID string) ([]tenant.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []tenant.Domain
	for _, d := range s.state.domains {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out, nil
}

// --- Memberships ---

func (s *Store) ListMemberships(_ context.Context, tenantID string) ([]membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []membership.Membership
	for _, m := range s.state.memberships {
		if m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Accounting ---

func (s *Store) GetAccountingSetup(_ context.Context, schema string) (*accounting.Setup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.state.schemas[schema]
	if !ok {
		return nil, notFound("schema", schema)
	}
	setup := &accounting.Setup{}
	for _, e := range sc.entities {
		setup.Entity = &e
		break
	}
	if setup.Entity == nil {
		return nil, notFound("accounting entity in schema", schema)
	}
	if c, ok := sc.charts[setup.Entity.DefaultChartID]; ok {
		setup.Chart = &c
		for _, a := range sc.accounts {
			if a.ChartID == c.ID {
				setup.Accounts = append(setup.Accounts, a)
			}
		}
		sort.Slice(setup.Accounts, func(i, j int) bool { return setup.Accounts[i].Code < setup.Accounts[j].Code })
	}
	for _, l := range sc.ledgers {
		if l.EntityID == setup.Entity.ID {
			setup.Ledger = &l
			break
		}
	}
	return setup, nil
}

// --- Transactions ---

// InTx runs fn against a private copy of the state and publishes the copy
// only if fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx database.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &memTx{state: s.state.clone()}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = staged.state
	return nil
}

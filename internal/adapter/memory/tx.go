package memory

import (
	"context"
	"fmt"

	"github.com/shogunhq/shogun/internal/domain"
	"github.com/shogunhq/shogun/internal/domain/accounting"
	"github.com/shogunhq/shogun/internal/domain/membership"
	"github.com/shogunhq/shogun/internal/domain/onboarding"
	"github.com/shogunhq/shogun/internal/domain/tenant"
	"github.com/shogunhq/shogun/internal/domain/user"
	"github.com/shogunhq/shogun/internal/port/database"
)

var _ database.Tx = (*memTx)(nil)

// memTx writes to a staged state owned by a single InTx call.
type memTx struct {
	state *state
}

func (t *memTx) GetUser(_ context.Context, id string) (*user.User, error) {
	return t.state.getUser(id)
}

func (t *memTx) LockApplication(_ context.Context, id string) (*onboarding.Application, error) {
	app, ok := t.state.applications[id]
	if !ok {
		return nil, notFound("application", id)
	}
	return &app, nil
}

func (t *memTx) SaveApplicationState(_ context.Context, app *onboarding.Application) error {
	cur, ok := t.state.applications[app.ID]
	if !ok {
		return notFound("application", app.ID)
	}
	cur.Status = app.Status
	cur.VerifiedAt = app.VerifiedAt
	cur.PromotedAt = app.PromotedAt
	cur.UpdatedAt = app.UpdatedAt
	t.state.applications[app.ID] = cur
	return nil
}

func (t *memTx) CreateTenant(_ context.Context, tn *tenant.Tenant) error {
	for _, existing := range t.state.tenants {
		if existing.SchemaName == tn.SchemaName {
			return fmt.Errorf("tenant schema %q: %w", tn.SchemaName, domain.ErrConflict)
		}
	}
	if _, ok := t.state.tenants[tn.ID]; ok {
		return fmt.Errorf("tenant %s: %w", tn.ID, domain.ErrConflict)
	}
	t.state.tenants[tn.ID] = *tn
	return nil
}

func (t *memTx) CreateDomain(_ context.Context, d *tenant.Domain) error {
	if _, ok := t.state.tenants[d.TenantID]; !ok {
		return notFound("tenant", d.TenantID)
	}
	for _, existing := range t.state.domains {
		if existing.Domain == d.Domain {
			return fmt.Errorf("domain %q: %w", d.Domain, domain.ErrConflict)
		}
		if d.IsPrimary && existing.IsPrimary && existing.TenantID == d.TenantID {
			return fmt.Errorf("primary domain for tenant %s: %w", d.TenantID, domain.ErrConflict)
		}
	}
	t.state.domains[d.ID] = *d
	return nil
}

func (t *memTx) CreateSchema(_ context.Context, schema string) error {
	if _, ok := t.state.schemas[schema]; ok {
		return fmt.Errorf("schema %q: %w", schema, domain.ErrConflict)
	}
	t.state.schemas[schema] = newSchemaState()
	return nil
}

func (t *memTx) CreateMembership(_ context.Context, m *membership.Membership) error {
	if _, ok := t.state.users[m.UserID]; !ok {
		return notFound("user", m.UserID)
	}
	if _, ok := t.state.tenants[m.TenantID]; !ok {
		return notFound("tenant", m.TenantID)
	}
	for _, existing := range t.state.memberships {
		if existing.SameGrant(m) {
			return fmt.Errorf("%s membership for tenant %s: %w", m.Role, m.TenantID, domain.ErrConflict)
		}
	}
	t.state.memberships[m.ID] = *m
	return nil
}

func (t *memTx) schema(name string) (*schemaState, error) {
	sc, ok := t.state.schemas[name]
	if !ok {
		return nil, notFound("schema", name)
	}
	return sc, nil
}

func (t *memTx) CreateAccountingEntity(_ context.Context, schema string, e *accounting.Entity) error {
	sc, err := t.schema(schema)
	if err != nil {
		return err
	}
	if _, ok := t.state.users[e.AdminID]; !ok {
		return notFound("user", e.AdminID)
	}
	sc.entities[e.ID] = *e
	return nil
}

func (t *memTx) CreateChartOfAccounts(_ context.Context, schema string, c *accounting.ChartOfAccounts) error {
	sc, err := t.schema(schema)
	if err != nil {
		return err
	}
	if _, ok := sc.entities[c.EntityID]; !ok {
		return notFound("accounting entity", c.EntityID)
	}
	sc.charts[c.ID] = *c
	return nil
}

func (t *memTx) SetDefaultChart(_ context.Context, schema, entityID, chartID string) error {
	sc, err := t.schema(schema)
	if err != nil {
		return err
	}
	e, ok := sc.entities[entityID]
	if !ok {
		return notFound("accounting entity", entityID)
	}
	if _, ok := sc.charts[chartID]; !ok {
		return notFound("chart of accounts", chartID)
	}
	e.DefaultChartID = chartID
	sc.entities[entityID] = e
	return nil
}

func (t *memTx) ActivateChartOfAccounts(_ context.Context, schema, chartID string) error {
	sc, err := t.schema(schema)
	if err != nil {
		return err
	}
	c, ok := sc.charts[chartID]
	if !ok {
		return notFound("chart of accounts", chartID)
	}
	c.Active = true
	sc.charts[chartID] = c
	return nil
}

func (t *memTx) CreateAccounts(_ context.Context, schema string, accounts []accounting.Account) error {
	sc, err := t.schema(schema)
	if err != nil {
		return err
	}
	for i := range accounts {
		a := accounts[i]
		if _, ok := sc.charts[a.ChartID]; !ok {
			return notFound("chart of accounts", a.ChartID)
		}
		for _, existing := range sc.accounts {
			if existing.ChartID == a.ChartID && existing.Code == a.Code {
				return fmt.Errorf("account code %s: %w", a.Code, domain.ErrConflict)
			}
		}
		sc.accounts[a.ID] = a
	}
	return nil
}

func (t *memTx) CreateLedger(_ context.Context, schema string, l *accounting.Ledger) error {
	sc, err := t.schema(schema)
	if err != nil {
		return err
	}
	if _, ok := sc.entities[l.EntityID]; !ok {
		return notFound("accounting entity", l.EntityID)
	}
	sc.ledgers[l.ID] = *l
	return nil
}

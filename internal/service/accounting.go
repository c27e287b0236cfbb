package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shogunhq/shogun/internal/domain/accounting"
	"github.com/shogunhq/shogun/internal/domain/tenant"
	"github.com/shogunhq/shogun/internal/domain/user"
	"github.com/shogunhq/shogun/internal/port/database"
)

// AccountingBootstrap creates a tenant's initial books inside its schema.
type AccountingBootstrap struct {
	opts accounting.Options
}

// NewAccountingBootstrap creates an AccountingBootstrap. Options are
// validated here so a bad configuration fails at startup.
func NewAccountingBootstrap(opts accounting.Options) (*AccountingBootstrap, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &AccountingBootstrap{opts: opts}, nil
}

// Bootstrap creates the accounting entity administered by owner, its default
// chart of accounts seeded with the standard accounts and marked active, and
// the posted primary general ledger. The first failing step aborts the
// bootstrap and its error is returned unchanged.
func (b *AccountingBootstrap) Bootstrap(ctx context.Context, tx database.AccountingWriter, t *tenant.Tenant, owner *user.User, now time.Time) (*accounting.Setup, error) {
	schema := t.SchemaName

	entity := &accounting.Entity{
		ID:           uuid.NewString(),
		Name:         t.Name,
		AdminID:      owner.ID,
		Method:       b.opts.Method,
		FYStartMonth: b.opts.FYStartMonth,
		CreatedAt:    now,
	}
	if err := tx.CreateAccountingEntity(ctx, schema, entity); err != nil {
		return nil, err
	}

	chart := &accounting.ChartOfAccounts{
		ID:        uuid.NewString(),
		EntityID:  entity.ID,
		Name:      accounting.DefaultChartName(entity.Name),
		CreatedAt: now,
	}
	if err := tx.CreateChartOfAccounts(ctx, schema, chart); err != nil {
		return nil, err
	}
	if err := tx.SetDefaultChart(ctx, schema, entity.ID, chart.ID); err != nil {
		return nil, err
	}
	entity.DefaultChartID = chart.ID

	accounts := accounting.DefaultAccounts()
	for i := range accounts {
		accounts[i].ID = uuid.NewString()
		accounts[i].ChartID = chart.ID
	}
	if err := tx.CreateAccounts(ctx, schema, accounts); err != nil {
		return nil, err
	}

	if err := tx.ActivateChartOfAccounts(ctx, schema, chart.ID); err != nil {
		return nil, err
	}
	chart.Active = true

	ledger := &accounting.Ledger{
		ID:        uuid.NewString(),
		EntityID:  entity.ID,
		Name:      accounting.PrimaryLedgerName,
		Posted:    true,
		CreatedAt: now,
	}
	if err := tx.CreateLedger(ctx, schema, ledger); err != nil {
		return nil, err
	}

	return &accounting.Setup{Entity: entity, Chart: chart, Accounts: accounts, Ledger: ledger}, nil
}

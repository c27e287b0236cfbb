package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shogunhq/shogun/internal/domain/accounting"
)

// --- Accounting writes (transactional, tenant schema) ---

func (t *pgTx) CreateAccountingEntity(ctx context.Context, schema string, e *accounting.Entity) error {
	_, err := t.tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, admin_id, accounting_method, fy_start_month, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, qualify(schema, "accounting_entities")),
		e.ID, e.Name, e.AdminID, e.Method, e.FYStartMonth, e.CreatedAt,
	)
	if err != nil {
		return writeErr(err, "create accounting entity in %q", schema)
	}
	return nil
}

func (t *pgTx) CreateChartOfAccounts(ctx context.Context, schema string, c *accounting.ChartOfAccounts) error {
	_, err := t.tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, entity_id, name, active, created_at)
		VALUES ($1, $2, $3, $4, $5)`, qualify(schema, "charts_of_accounts")),
		c.ID, c.EntityID, c.Name, c.Active, c.CreatedAt,
	)
	if err != nil {
		return writeErr(err, "create chart of accounts in %q", schema)
	}
	return nil
}

func (t *pgTx) SetDefaultChart(ctx context.Context, schema, entityID, chartID string) error {
	tag, err := t.tx.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET default_coa_id = $2 WHERE id = $1`, qualify(schema, "accounting_entities")),
		entityID, chartID)
	return execExpectOne(tag, err, "set default chart for entity %s", entityID)
}

func (t *pgTx) ActivateChartOfAccounts(ctx context.Context, schema, chartID string) error {
	tag, err := t.tx.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET active = TRUE WHERE id = $1`, qualify(schema, "charts_of_accounts")),
		chartID)
	return execExpectOne(tag, err, "activate chart of accounts %s", chartID)
}

// CreateAccounts bulk-loads accounts with COPY.
func (t *pgTx) CreateAccounts(ctx context.Context, schema string, accounts []accounting.Account) error {
	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{schema, "accounts"},
		[]string{"id", "coa_id", "code", "name", "role", "balance_type", "active"},
		pgx.CopyFromSlice(len(accounts), func(i int) ([]any, error) {
			a := accounts[i]
			return []any{a.ID, a.ChartID, a.Code, a.Name, string(a.Role), string(a.BalanceType), a.Active}, nil
		}),
	)
	if err != nil {
		return writeErr(err, "create accounts in %q", schema)
	}
	return nil
}

func (t *pgTx) CreateLedger(ctx context.Context, schema string, l *accounting.Ledger) error {
	_, err := t.tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, entity_id, name, posted, created_at)
		VALUES ($1, $2, $3, $4, $5)`, qualify(schema, "ledgers")),
		l.ID, l.EntityID, l.Name, l.Posted, l.CreatedAt,
	)
	if err != nil {
		return writeErr(err, "create ledger in %q", schema)
	}
	return nil
}

// --- Accounting reads ---

// GetAccountingSetup loads the entity, default chart, its accounts and the
// primary ledger of a tenant schema.
func (s *Store) GetAccountingSetup(ctx context.Context, schema string) (*accounting.Setup, error) {
	var e accounting.Entity
	var defaultChart *string
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, name, admin_id, accounting_method, fy_start_month, default_coa_id, created_at
		FROM %s ORDER BY created_at LIMIT 1`, qualify(schema, "accounting_entities")),
	).Scan(&e.ID, &e.Name, &e.AdminID, &e.Method, &e.FYStartMonth, &defaultChart, &e.CreatedAt)
	if err != nil {
		return nil, schemaErr(err, "get accounting entity in %q", schema)
	}
	if defaultChart != nil {
		e.DefaultChartID = *defaultChart
	}
	setup := &accounting.Setup{Entity: &e}

	if e.DefaultChartID != "" {
		var c accounting.ChartOfAccounts
		err := s.pool.QueryRow(ctx, fmt.Sprintf(
			`SELECT id, entity_id, name, active, created_at FROM %s WHERE id = $1`, qualify(schema, "charts_of_accounts")),
			e.DefaultChartID,
		).Scan(&c.ID, &c.EntityID, &c.Name, &c.Active, &c.CreatedAt)
		if err != nil {
			return nil, schemaErr(err, "get chart of accounts in %q", schema)
		}
		setup.Chart = &c

		accounts, err := s.listAccounts(ctx, schema, c.ID)
		if err != nil {
			return nil, err
		}
		setup.Accounts = accounts
	}

	var l accounting.Ledger
	err = s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT id, entity_id, name, posted, created_at FROM %s WHERE entity_id = $1 ORDER BY created_at LIMIT 1`,
		qualify(schema, "ledgers")), e.ID,
	).Scan(&l.ID, &l.EntityID, &l.Name, &l.Posted, &l.CreatedAt)
	switch {
	case err == nil:
		setup.Ledger = &l
	case !isNoRows(err):
		return nil, schemaErr(err, "get ledger in %q", schema)
	}
	return setup, nil
}

func (s *Store) listAccounts(ctx context.Context, schema, chartID string) ([]accounting.Account, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, coa_id, code, name, role, balance_type, active
		FROM %s WHERE coa_id = $1 ORDER BY code`, qualify(schema, "accounts")), chartID)
	if err != nil {
		return nil, schemaErr(err, "list accounts in %q", schema)
	}
	defer rows.Close()

	var out []accounting.Account
	for rows.Next() {
		var a accounting.Account
		if err := rows.Scan(&a.ID, &a.ChartID, &a.Code, &a.Name, &a.Role, &a.BalanceType, &a.Active); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return orEmpty(out), rows.Err()
}

package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// tenantSchemaDDL returns the statements that create an isolated tenant
// schema holding the accounting tables. CREATE SCHEMA is issued without
// IF NOT EXISTS so an existing schema fails with duplicate_schema.
func tenantSchemaDDL(schema string) []string {
	s := pgx.Identifier{schema}.Sanitize()
	entities := qualify(schema, "accounting_entities")
	charts := qualify(schema, "charts_of_accounts")

	return []string{
		fmt.Sprintf(`CREATE SCHEMA %s`, s),
		fmt.Sprintf(`CREATE TABLE %s (
			id                 UUID PRIMARY KEY,
			name               VARCHAR(255) NOT NULL,
			admin_id           UUID NOT NULL REFERENCES public.users (id) ON DELETE RESTRICT,
			accounting_method  TEXT NOT NULL CHECK (accounting_method IN ('cash', 'accrual')),
			fy_start_month     SMALLINT NOT NULL CHECK (fy_start_month BETWEEN 1 AND 12),
			default_coa_id     UUID,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, entities),
		fmt.Sprintf(`CREATE TABLE %s (
			id          UUID PRIMARY KEY,
			entity_id   UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			name        VARCHAR(255) NOT NULL,
			active      BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, charts, entities),
		fmt.Sprintf(`ALTER TABLE %s ADD FOREIGN KEY (default_coa_id) REFERENCES %s (id)`, entities, charts),
		fmt.Sprintf(`CREATE TABLE %s (
			id            UUID PRIMARY KEY,
			coa_id        UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			code          VARCHAR(20) NOT NULL,
			name          VARCHAR(255) NOT NULL,
			role          TEXT NOT NULL CHECK (role IN ('asset', 'liability', 'equity', 'income', 'expense')),
			balance_type  TEXT NOT NULL CHECK (balance_type IN ('debit', 'credit')),
			active        BOOLEAN NOT NULL DEFAULT TRUE,
			UNIQUE (coa_id, code)
		)`, qualify(schema, "accounts"), charts),
		fmt.Sprintf(`CREATE TABLE %s (
			id          UUID PRIMARY KEY,
			entity_id   UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			name        VARCHAR(255) NOT NULL,
			posted      BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, qualify(schema, "ledgers"), entities),
	}
}

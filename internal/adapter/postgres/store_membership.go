package postgres

import (
	"context"
	"fmt"

	"github.com/shogunhq/shogun/internal/domain/membership"
)

func (s *Store) ListMemberships(ctx context.Context, tenantID string) ([]membership.Membership, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, tenant_id, role, status, created_at
		FROM memberships WHERE tenant_id = $1 ORDER BY created_at, id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var out []membership.Membership
	for rows.Next() {
		var m membership.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.TenantID, &m.Role, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	return orEmpty(out), rows.Err()
}

// CreateMembership relies on the (user_id, tenant_id, role) unique
// constraint to reject a duplicate grant.
func (t *pgTx) CreateMembership(ctx context.Context, m *membership.Membership) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO memberships (id, user_id, tenant_id, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.UserID, m.TenantID, m.Role, m.Status, m.CreatedAt,
	)
	if err != nil {
		return writeErr(err, "create %s membership for tenant %s", m.Role, m.TenantID)
	}
	return nil
}

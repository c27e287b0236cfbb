package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shogunhq/shogun/internal/domain/membership"
	"github.com/shogunhq/shogun/internal/port/database"
)

// MembershipLedger grants tenant roles to users.
type MembershipLedger struct{}

// NewMembershipLedger creates a MembershipLedger.
func NewMembershipLedger() *MembershipLedger {
	return &MembershipLedger{}
}

// GrantOwner binds userID to tenantID as an active owner. A repeated grant
// fails with domain.ErrConflict.
func (l *MembershipLedger) GrantOwner(ctx context.Context, tx database.MembershipWriter, userID, tenantID string, now time.Time) (*membership.Membership, error) {
	m := membership.NewOwner(uuid.NewString(), userID, tenantID, now)
	if err := tx.CreateMembership(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

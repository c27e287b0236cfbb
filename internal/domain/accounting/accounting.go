// Package accounting defines the tenant-scoped accounting baseline created
// when a tenant is provisioned: entity, chart of accounts, accounts and the
// primary ledger.
package accounting

import (
	"fmt"
	"time"

	"github.com/shogunhq/shogun/internal/domain"
)

// Method is the accounting method of an entity.
type Method string

const (
	MethodCash    Method = "cash"
	MethodAccrual Method = "accrual"
)

// PrimaryLedgerName is the name of the ledger created for every new entity.
const PrimaryLedgerName = "Primary General Ledger"

// Defaults applied at provisioning time.
const (
	DefaultMethod       = MethodAccrual
	DefaultFYStartMonth = 1
)

// DefaultChartName returns the name of an entity's default chart of accounts.
func DefaultChartName(entityName string) string {
	return entityName + " Default CoA"
}

// Entity is the accounting root of a tenant.
type Entity struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	AdminID        string    `json:"admin_id"`
	Method         Method    `json:"accounting_method"`
	FYStartMonth   int       `json:"fy_start_month"`
	DefaultChartID string    `json:"default_coa_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChartOfAccounts groups the accounts of an entity.
type ChartOfAccounts struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger is a book of journal entries for an entity.
type Ledger struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id"`
	Name      string    `json:"name"`
	Posted    bool      `json:"posted"`
	CreatedAt time.Time `json:"created_at"`
}

// Options controls the entity created during bootstrap.
type Options struct {
	Method       Method
	FYStartMonth int
}

// DefaultOptions returns accrual accounting with a January fiscal year start.
func DefaultOptions() Options {
	return Options{Method: DefaultMethod, FYStartMonth: DefaultFYStartMonth}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Method != MethodCash && o.Method != MethodAccrual {
		return fmt.Errorf("%w: unknown accounting method %q", domain.ErrValidation, o.Method)
	}
	if o.FYStartMonth < 1 || o.FYStartMonth > 12 {
		return fmt.Errorf("%w: fy_start_month must be between 1 and 12", domain.ErrValidation)
	}
	return nil
}

// Setup is the accounting baseline of one tenant.
type Setup struct {
	Entity   *Entity          `json:"entity"`
	Chart    *ChartOfAccounts `json:"chart_of_accounts"`
	Accounts []Account        `json:"accounts"`
	Ledger   *Ledger          `json:"ledger"`
}

package accounting

// Role classifies an account for reporting.
type Role string

const (
	RoleAsset     Role = "asset"
	RoleLiability Role = "liability"
	RoleEquity    Role = "equity"
	RoleIncome    Role = "income"
	RoleExpense   Role = "expense"
)

// BalanceType is the normal balance side of an account.
type BalanceType string

const (
	BalanceDebit  BalanceType = "debit"
	BalanceCredit BalanceType = "credit"
)

// Account is a single account in a chart of accounts.
type Account struct {
	ID          string      `json:"id"`
	ChartID     string      `json:"coa_id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Role        Role        `json:"role"`
	BalanceType BalanceType `json:"balance_type"`
	Active      bool        `json:"active"`
}

// DefaultAccounts returns the seed accounts of a new chart. IDs and ChartID
// are left for the caller.
func DefaultAccounts() []Account {
	return []Account{
		{Code: "1010", Name: "Cash", Role: RoleAsset, BalanceType: BalanceDebit, Active: true},
		{Code: "1100", Name: "Accounts Receivable", Role: RoleAsset, BalanceType: BalanceDebit, Active: true},
		{Code: "2010", Name: "Accounts Payable", Role: RoleLiability, BalanceType: BalanceCredit, Active: true},
		{Code: "3010", Name: "Owner's Equity", Role: RoleEquity, BalanceType: BalanceCredit, Active: true},
		{Code: "4010", Name: "Sales Revenue", Role: RoleIncome, BalanceType: BalanceCredit, Active: true},
		{Code: "5010", Name: "Cost of Goods Sold", Role: RoleExpense, BalanceType: BalanceDebit, Active: true},
		{Code: "6010", Name: "Operating Expenses", Role: RoleExpense, BalanceType: BalanceDebit, Active: true},
	}
}

package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
// It determines the normal balance side (debit for ASSET/EXPENSE,
// credit for LIABILITY/EQUITY/REVENUE).
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether the account type is one of the closed set.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// SystemPurpose tags an account for automatic ledger postings.
// At most one active account per purpose may exist within a company.
type SystemPurpose string

const (
	PurposeCash               SystemPurpose = "CASH"
	PurposeAccountsReceivable SystemPurpose = "ACCOUNTS_RECEIVABLE"
	PurposeSalesRevenue       SystemPurpose = "SALES_REVENUE"
	PurposeTaxPayable         SystemPurpose = "TAX_PAYABLE"
	PurposePaymentWriteOff    SystemPurpose = "PAYMENT_WRITEOFF"
	PurposeCustomerAdvances   SystemPurpose = "CUSTOMER_ADVANCES"
)

// Account represents a ledger account within the core domain.
// This is the primary representation used by services.
type Account struct {
	AccountID     string         `json:"accountID"` // Primary Key (UUID)
	CompanyID     string         `json:"companyID"` // Owning tenant (NON-NULL)
	Code          string         `json:"code"`      // Unique per company
	Name          string         `json:"name"`
	AccountType   AccountType    `json:"accountType"`
	SystemPurpose *SystemPurpose `json:"systemPurpose,omitempty"` // Nullable; unique per company when set
	IsActive      bool           `json:"isActive"`
	IsSystem      bool           `json:"isSystem"` // Seeded accounts that cannot be deactivated
	AuditFields
	Balance decimal.Decimal `json:"balance"` // Persisted running balance, maintained at posting
}

package models

import "github.com/shopspring/decimal"

// AccountType mirrors domain.AccountType at the persistence layer.
type AccountType string

// SystemPurpose mirrors domain.SystemPurpose at the persistence layer.
type SystemPurpose string

// Account is the DB representation of a ledger account.
type Account struct {
	AccountID     string         `json:"accountID"`
	CompanyID     string         `json:"companyID"`
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	AccountType   AccountType    `json:"accountType"`
	SystemPurpose *SystemPurpose `json:"systemPurpose,omitempty"`
	IsActive      bool           `json:"isActive"`
	IsSystem      bool           `json:"isSystem"`
	AuditFields
	Balance decimal.Decimal `json:"balance"`
}

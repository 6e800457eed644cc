package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document is the DB representation of an invoice or credit note,
// including the fiscal chain columns owned by the ledger core.
type Document struct {
	DocumentID     string          `json:"documentID"`
	CompanyID      string          `json:"companyID"`
	DocumentType   string          `json:"documentType"`
	DocumentNumber string          `json:"documentNumber"`
	DocumentDate   time.Time       `json:"documentDate"`
	DueDate        time.Time       `json:"dueDate"`
	CurrencyCode   string          `json:"currencyCode"`
	PartnerID      string          `json:"partnerID"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	BalanceDue     decimal.Decimal `json:"balanceDue"`
	Status         string          `json:"status"`

	FiscalHash    *string `json:"fiscalHash,omitempty"`
	PreviousHash  *string `json:"previousHash,omitempty"`
	ChainSequence *int64  `json:"chainSequence,omitempty"`

	AuditFields
}

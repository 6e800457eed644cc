package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType identifies the kind of business document.
// The fiscal chain is scoped per company AND document type.
type DocumentType string

const (
	DocInvoice    DocumentType = "INVOICE"
	DocCreditNote DocumentType = "CREDIT_NOTE"
)

// IsValid reports whether the document type is one of the closed set.
func (t DocumentType) IsValid() bool {
	return t == DocInvoice || t == DocCreditNote
}

// DocumentStatus tracks settlement of a document.
type DocumentStatus string

const (
	DocOpen          DocumentStatus = "OPEN"
	DocPartiallyPaid DocumentStatus = "PARTIALLY_PAID"
	DocPaid          DocumentStatus = "PAID"
)

// Document is a business document (invoice/credit note) consumed by the
// ledger core. The core owns only its fiscal chain fields and BalanceDue;
// everything else is written by the document module.
type Document struct {
	DocumentID     string          `json:"documentID"` // Primary Key (UUID)
	CompanyID      string          `json:"companyID"`
	DocumentType   DocumentType    `json:"documentType"`
	DocumentNumber string          `json:"documentNumber"`
	DocumentDate   time.Time       `json:"documentDate"`
	DueDate        time.Time       `json:"dueDate"`
	CurrencyCode   string          `json:"currencyCode"`
	PartnerID      string          `json:"partnerID"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	BalanceDue     decimal.Decimal `json:"balanceDue"`
	Status         DocumentStatus  `json:"status"`

	// Fiscal chain fields; nil until the document is linked.
	FiscalHash    *string `json:"fiscalHash,omitempty"`
	PreviousHash  *string `json:"previousHash,omitempty"`
	ChainSequence *int64  `json:"chainSequence,omitempty"`

	AuditFields
}

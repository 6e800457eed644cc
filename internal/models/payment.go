package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the DB representation of a received payment.
type Payment struct {
	PaymentID      string          `json:"paymentID"`
	CompanyID      string          `json:"companyID"`
	PartnerID      string          `json:"partnerID"`
	Amount         decimal.Decimal `json:"amount"`
	CurrencyCode   string          `json:"currencyCode"`
	PaymentDate    time.Time       `json:"paymentDate"`
	Status         string          `json:"status"`
	Kind           string          `json:"kind"`
	JournalEntryID *string         `json:"journalEntryID,omitempty"`
	AuditFields
}

// PaymentAllocation is the DB representation of a payment-to-document allocation.
type PaymentAllocation struct {
	AllocationID   string          `json:"allocationID"`
	PaymentID      string          `json:"paymentID"`
	DocumentID     string          `json:"documentID"`
	Amount         decimal.Decimal `json:"amount"`
	WriteOffAmount decimal.Decimal `json:"writeOffAmount"`
	AuditFields
}

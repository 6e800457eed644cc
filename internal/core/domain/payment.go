package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of a received payment.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentReversed  PaymentStatus = "REVERSED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// PaymentKind distinguishes regular payments from customer advances.
// A payment becomes an ADVANCE only when nothing was allocated to invoices.
type PaymentKind string

const (
	PaymentStandard PaymentKind = "STANDARD"
	PaymentAdvance  PaymentKind = "ADVANCE"
)

// Payment is money received from a partner, to be allocated across open documents.
type Payment struct {
	PaymentID      string          `json:"paymentID"` // Primary Key (UUID)
	CompanyID      string          `json:"companyID"`
	PartnerID      string          `json:"partnerID"`
	Amount         decimal.Decimal `json:"amount"`
	CurrencyCode   string          `json:"currencyCode"`
	PaymentDate    time.Time       `json:"paymentDate"`
	Status         PaymentStatus   `json:"status"`
	Kind           PaymentKind     `json:"kind"`
	JournalEntryID *string         `json:"journalEntryID,omitempty"` // Consolidated GL entry for the receipt
	AuditFields
}

// PaymentAllocation links a payment to a document with an allocated amount.
// Sum of a payment's allocations never exceeds its amount; sum of a
// document's allocations never exceeds its total.
type PaymentAllocation struct {
	AllocationID   string          `json:"allocationID"` // Primary Key (UUID)
	PaymentID      string          `json:"paymentID"`
	DocumentID     string          `json:"documentID"`
	Amount         decimal.Decimal `json:"amount"`
	WriteOffAmount decimal.Decimal `json:"writeOffAmount"` // Tolerance difference written off with this allocation
	AuditFields
}

// AllocationStrategy selects the ordering of open documents during allocation.
type AllocationStrategy string

const (
	StrategyFIFO            AllocationStrategy = "FIFO"              // document date, then number ascending
	StrategyDueDatePriority AllocationStrategy = "DUE_DATE_PRIORITY" // due date, then document date ascending
	StrategyManual          AllocationStrategy = "MANUAL"            // caller-supplied pairs, no tolerance
)

// IsValid reports whether the strategy is one of the closed set.
func (s AllocationStrategy) IsValid() bool {
	switch s {
	case StrategyFIFO, StrategyDueDatePriority, StrategyManual:
		return true
	}
	return false
}

// ExcessHandling tags how a payment remainder is treated after allocation.
type ExcessHandling string

const (
	ExcessNone              ExcessHandling = "NONE"
	ExcessToleranceWriteoff ExcessHandling = "TOLERANCE_WRITEOFF" // consumed by the terminal tolerance allocation
	ExcessCreditBalance     ExcessHandling = "CREDIT_BALANCE"     // banked as a customer-advance liability
)

// AllocationPlanLine is one planned allocation against a document.
type AllocationPlanLine struct {
	DocumentID       string          `json:"documentID"`
	DocumentNumber   string          `json:"documentNumber"`
	DocumentBalance  decimal.Decimal `json:"documentBalance"` // Outstanding balance the plan was computed against
	Amount           decimal.Decimal `json:"amount"`
	WriteOffAmount   decimal.Decimal `json:"writeOffAmount"`
	ToleranceApplied bool            `json:"toleranceApplied"`
	ToleranceReason  string          `json:"toleranceReason,omitempty"`
}

// AllocationPlan is the result of the preview phase. Apply replays it
// verbatim inside a transaction; any balance drift aborts with a conflict.
type AllocationPlan struct {
	PaymentID      string               `json:"paymentID"`
	CompanyID      string               `json:"companyID"`
	Strategy       AllocationStrategy   `json:"strategy"`
	PaymentAmount  decimal.Decimal      `json:"paymentAmount"`
	Lines          []AllocationPlanLine `json:"lines"`
	TotalAllocated decimal.Decimal      `json:"totalAllocated"`
	TotalWriteOff  decimal.Decimal      `json:"totalWriteOff"`
	Excess         decimal.Decimal      `json:"excess"`
	ExcessHandling ExcessHandling       `json:"excessHandling"`
}

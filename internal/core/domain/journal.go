package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the lifecycle state of a journal entry.
// Only DRAFT entries are mutable; POSTED entries may only move to REVERSED.
type EntryStatus string

const (
	Draft    EntryStatus = "DRAFT"
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// SourceType identifies the business event an entry was generated from.
type SourceType string

const (
	SourceManual     SourceType = "MANUAL"
	SourceInvoice    SourceType = "INVOICE"
	SourceCreditNote SourceType = "CREDIT_NOTE"
	SourcePayment    SourceType = "PAYMENT"
	SourceWriteOff   SourceType = "WRITEOFF"
	SourceAdvance    SourceType = "ADVANCE"
	SourceReversal   SourceType = "REVERSAL"
)

// JournalEntry represents one atomic financial event composed of balanced lines.
// Once posted, all fields except the status transition to REVERSED are immutable;
// Hash and PreviousHash are assigned at posting time over the final line set.
type JournalEntry struct {
	EntryID     string      `json:"entryID"`     // Primary Key (UUID)
	CompanyID   string      `json:"companyID"`   // Owning tenant (NON-NULL)
	EntryNumber string      `json:"entryNumber"` // JE-{year}-{6 digits}, sequential per company per year
	EntryDate   time.Time   `json:"entryDate"`
	Description string      `json:"description"`
	Status      EntryStatus `json:"status"`
	SourceType  SourceType  `json:"sourceType"`
	SourceID    *string     `json:"sourceID,omitempty"` // Originating document/payment id

	// Hash chain fields, set atomically with the POSTED transition.
	// ChainSequence is the per-company chain position, assigned under the
	// chain lock; it orders the chain, PostedAt is audit information only.
	Hash          string     `json:"hash,omitempty"`
	PreviousHash  string     `json:"previousHash,omitempty"`
	ChainSequence *int64     `json:"chainSequence,omitempty"`
	PostedAt      *time.Time `json:"postedAt,omitempty"`
	PostedBy      *string    `json:"postedBy,omitempty"`

	// Reversal linkage.
	OriginalEntryID  *string `json:"originalEntryID,omitempty"`
	ReversingEntryID *string `json:"reversingEntryID,omitempty"`

	AuditFields
	Lines []JournalLine `json:"lines,omitempty"` // Loaded on demand
}

// JournalLine is one leg of a journal entry, affecting exactly one account.
// Exactly one of Debit/Credit is nonzero, never both, never neither.
type JournalLine struct {
	LineID      string          `json:"lineID"`  // Primary Key (UUID)
	EntryID     string          `json:"entryID"` // FK -> JournalEntry
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	LineIndex   int             `json:"lineIndex"` // Ordering within the entry; part of the hash contract
	PartnerID   *string         `json:"partnerID,omitempty"`
	AuditFields
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus mirrors domain.EntryStatus at the persistence layer.
type EntryStatus string

// JournalEntry is the DB representation of a journal entry header.
type JournalEntry struct {
	EntryID     string      `json:"entryID"`
	CompanyID   string      `json:"companyID"`
	EntryNumber string      `json:"entryNumber"`
	EntryDate   time.Time   `json:"entryDate"`
	Description string      `json:"description"`
	Status      EntryStatus `json:"status"`
	SourceType  string      `json:"sourceType"`
	SourceID    *string     `json:"sourceID,omitempty"`

	Hash          string     `json:"hash"`
	PreviousHash  string     `json:"previousHash"`
	ChainSequence *int64     `json:"chainSequence,omitempty"`
	PostedAt      *time.Time `json:"postedAt,omitempty"`
	PostedBy      *string    `json:"postedBy,omitempty"`

	OriginalEntryID  *string `json:"originalEntryID,omitempty"`
	ReversingEntryID *string `json:"reversingEntryID,omitempty"`

	AuditFields
}

// JournalLine is the DB representation of one entry leg.
type JournalLine struct {
	LineID      string          `json:"lineID"`
	EntryID     string          `json:"entryID"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	LineIndex   int             `json:"lineIndex"`
	PartnerID   *string         `json:"partnerID,omitempty"`
	AuditFields
}

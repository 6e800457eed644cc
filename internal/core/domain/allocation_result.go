package domain

import "github.com/shopspring/decimal"

// PreparedEntry bundles a draft journal entry with its lines and the
// per-account balance effect, ready to be posted inside a repository
// transaction. Entry number, hash and previous hash are assigned there,
// under the journal chain lock.
type PreparedEntry struct {
	Entry          JournalEntry
	Lines          []JournalLine
	BalanceChanges map[string]decimal.Decimal
}

// AllocationResult is the outcome of the apply phase of an allocation run.
type AllocationResult struct {
	Plan            AllocationPlan      `json:"plan"`
	Allocations     []PaymentAllocation `json:"allocations"`
	PaymentEntryID  *string             `json:"paymentEntryID,omitempty"`  // consolidated receipt entry
	WriteOffEntryID *string             `json:"writeOffEntryID,omitempty"` // tolerance write-off entry
	AdvanceEntryID  *string             `json:"advanceEntryID,omitempty"`  // customer-advance entry for excess
	PaymentKind     PaymentKind         `json:"paymentKind"`
}

// BackfillPreview describes one chain assignment the backfill computed.
type BackfillPreview struct {
	DocumentID     string `json:"documentID"`
	DocumentNumber string `json:"documentNumber"`
	ChainSequence  int64  `json:"chainSequence"`
	PreviousHash   string `json:"previousHash"`
	Hash           string `json:"hash"`
}

// BackfillResult reports a backfill run over one (company, document type)
// scope. With DryRun set, Previews holds the computed assignments and
// nothing was persisted.
type BackfillResult struct {
	CompanyID    string            `json:"companyID"`
	DocumentType DocumentType      `json:"documentType"`
	DryRun       bool              `json:"dryRun"`
	Processed    int               `json:"processed"`
	Failed       int               `json:"failed"`
	Previews     []BackfillPreview `json:"previews,omitempty"`
}

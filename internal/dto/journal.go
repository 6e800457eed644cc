package dto

import (
	"time"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateEntryLineRequest is one leg of a manual journal entry request.
// Exactly one of debit/credit must be positive.
type CreateEntryLineRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	PartnerID   *string         `json:"partnerID,omitempty"`
}

// CreateEntryRequest creates a DRAFT journal entry with its lines.
type CreateEntryRequest struct {
	EntryDate   time.Time                `json:"entryDate" binding:"required"`
	Description string                   `json:"description" binding:"required"`
	Lines       []CreateEntryLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// CreateEntryFromDocumentRequest generates a DRAFT entry from a posted
// business document using the built-in posting templates.
type CreateEntryFromDocumentRequest struct {
	DocumentID string `json:"documentID" binding:"required"`
}

// EntryLineResponse mirrors domain.JournalLine for API output.
type EntryLineResponse struct {
	LineID      string          `json:"lineID"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	LineIndex   int             `json:"lineIndex"`
	PartnerID   *string         `json:"partnerID,omitempty"`
}

// EntryResponse mirrors domain.JournalEntry for API output.
type EntryResponse struct {
	EntryID          string              `json:"entryID"`
	CompanyID        string              `json:"companyID"`
	EntryNumber      string              `json:"entryNumber"`
	EntryDate        time.Time           `json:"entryDate"`
	Description      string              `json:"description"`
	Status           domain.EntryStatus  `json:"status"`
	SourceType       domain.SourceType   `json:"sourceType"`
	SourceID         *string             `json:"sourceID,omitempty"`
	Hash             string              `json:"hash,omitempty"`
	PreviousHash     string              `json:"previousHash,omitempty"`
	ChainSequence    *int64              `json:"chainSequence,omitempty"`
	PostedAt         *time.Time          `json:"postedAt,omitempty"`
	PostedBy         *string             `json:"postedBy,omitempty"`
	OriginalEntryID  *string             `json:"originalEntryID,omitempty"`
	ReversingEntryID *string             `json:"reversingEntryID,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	CreatedBy        string              `json:"createdBy"`
	Lines            []EntryLineResponse `json:"lines,omitempty"`
}

// ToEntryResponse converts a domain entry (with lines, if loaded) to its response form.
func ToEntryResponse(d *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:          d.EntryID,
		CompanyID:        d.CompanyID,
		EntryNumber:      d.EntryNumber,
		EntryDate:        d.EntryDate,
		Description:      d.Description,
		Status:           d.Status,
		SourceType:       d.SourceType,
		SourceID:         d.SourceID,
		Hash:             d.Hash,
		PreviousHash:     d.PreviousHash,
		ChainSequence:    d.ChainSequence,
		PostedAt:         d.PostedAt,
		PostedBy:         d.PostedBy,
		OriginalEntryID:  d.OriginalEntryID,
		ReversingEntryID: d.ReversingEntryID,
		CreatedAt:        d.CreatedAt,
		CreatedBy:        d.CreatedBy,
	}
	if len(d.Lines) > 0 {
		resp.Lines = make([]EntryLineResponse, len(d.Lines))
		for i, line := range d.Lines {
			resp.Lines[i] = EntryLineResponse{
				LineID:      line.LineID,
				AccountID:   line.AccountID,
				Debit:       line.Debit,
				Credit:      line.Credit,
				Description: line.Description,
				LineIndex:   line.LineIndex,
				PartnerID:   line.PartnerID,
			}
		}
	}
	return resp
}

// ListEntriesParams carries query parameters for listing journal entries.
type ListEntriesParams struct {
	Limit            int     `form:"limit"`
	NextToken        *string `form:"nextToken"`
	IncludeReversals bool    `form:"includeReversals"`
}

// ListEntriesResponse is a page of journal entries with a continuation token.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

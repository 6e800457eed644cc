package services

import (
	"context"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/fincore-erp/fincore/internal/dto"
)

// EntryReaderSvc defines read operations for journal entry data
type EntryReaderSvc interface {
	// GetEntryByID retrieves a specific entry with its lines.
	GetEntryByID(ctx context.Context, companyID string, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated list of entries in a company.
	ListEntries(ctx context.Context, companyID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// EntryWriterSvc defines write operations for journal entry data
type EntryWriterSvc interface {
	// CreateEntry validates and persists a new DRAFT entry with its lines.
	CreateEntry(ctx context.Context, companyID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error)

	// CreateEntryFromDocument generates a DRAFT entry from a business document
	// using the posting template for its type.
	CreateEntryFromDocument(ctx context.Context, companyID string, documentID string, creatorUserID string) (*domain.JournalEntry, error)

	// PostEntry transitions a DRAFT entry to POSTED, appending it to the
	// company's journal hash chain and updating account balances.
	PostEntry(ctx context.Context, companyID string, entryID string, userID string) (*domain.JournalEntry, error)

	// ReverseEntry creates and posts a mirror-image entry for a POSTED entry
	// and marks the original REVERSED.
	ReverseEntry(ctx context.Context, companyID string, entryID string, userID string) (*domain.JournalEntry, error)
}

// LedgerSvcFacade combines all ledger service interfaces
// This is a facade for clients that need access to all operations
type LedgerSvcFacade interface {
	EntryReaderSvc
	EntryWriterSvc
}

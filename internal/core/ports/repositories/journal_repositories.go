package repositories

import (
	"context"
	"time"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryReader defines read operations for journal entry data
type EntryReader interface {
	// FindEntryByID retrieves a specific journal entry by its unique identifier.
	FindEntryByID(ctx context.Context, companyID string, entryID string) (*domain.JournalEntry, error)

	// FindLinesByEntryID retrieves all lines of a single entry in LineIndex order.
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)

	// FindLinesByEntryIDs retrieves lines for multiple entries, grouped by entry ID.
	FindLinesByEntryIDs(ctx context.Context, entryIDs []string) (map[string][]domain.JournalLine, error)

	// ListEntries retrieves a paginated list of entries for a company using token-based pagination.
	// It returns the entries, a token for the next page, and an error.
	ListEntries(ctx context.Context, companyID string, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error)

	// ListPostedEntriesWithLines retrieves every POSTED and REVERSED entry of a
	// company in chain-sequence order, lines populated. This is the input for
	// journal chain verification.
	ListPostedEntriesWithLines(ctx context.Context, companyID string) ([]domain.JournalEntry, error)
}

// EntryWriter defines write operations for journal entry data
type EntryWriter interface {
	// SaveDraftEntry persists a new DRAFT entry and its lines, reserving the
	// next sequential entry number for the company and year under the
	// journal chain lock. The returned entry carries the assigned number.
	SaveDraftEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) (*domain.JournalEntry, error)

	// PostEntry transitions a DRAFT entry to POSTED, computing and storing its
	// chain hash from the latest posted hash, and applies the given balance
	// deltas to the affected accounts, all in one transaction under the
	// journal chain lock.
	PostEntry(ctx context.Context, companyID string, entryID string, postedBy string, now time.Time, balanceChanges map[string]decimal.Decimal) (*domain.JournalEntry, error)

	// ReverseEntry inserts the prepared reversing entry, posts it, and marks
	// the original entry REVERSED with the reversal linkage, all in one
	// transaction. The prepared entry's balance changes already cancel the
	// original's effect.
	ReverseEntry(ctx context.Context, originalEntryID string, reversing domain.PreparedEntry, userID string, now time.Time) (*domain.JournalEntry, error)
}

// EntryRepositoryFacade combines all journal-entry repository interfaces
// This is a facade for clients that need access to all operations
type EntryRepositoryFacade interface {
	EntryReader
	EntryWriter
}

// EntryRepositoryWithTx extends EntryRepositoryFacade with transaction capabilities
type EntryRepositoryWithTx interface {
	EntryRepositoryFacade
	TransactionManager
}

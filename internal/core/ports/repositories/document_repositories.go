package repositories

import (
	"context"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// DocumentReader defines read operations for business document data
type DocumentReader interface {
	// FindDocumentByID retrieves a specific document by its unique identifier within a company.
	FindDocumentByID(ctx context.Context, companyID string, documentID string) (*domain.Document, error)

	// ListOpenDocumentsByPartner retrieves a partner's OPEN and PARTIALLY_PAID
	// documents ordered per the allocation strategy (FIFO: document date then
	// number; DUE_DATE_PRIORITY: due date then document date).
	ListOpenDocumentsByPartner(ctx context.Context, companyID string, partnerID string, strategy domain.AllocationStrategy) ([]domain.Document, error)

	// ListChainedDocuments retrieves the fiscal chain of a company and document
	// type in chain sequence order.
	ListChainedDocuments(ctx context.Context, companyID string, docType domain.DocumentType) ([]domain.Document, error)

	// ListUnchainedDocuments retrieves documents not yet linked to the fiscal
	// chain, in chronological order (document date, then number).
	ListUnchainedDocuments(ctx context.Context, companyID string, docType domain.DocumentType) ([]domain.Document, error)
}

// DocumentChainWriter defines fiscal chain write operations
type DocumentChainWriter interface {
	// LinkDocumentToChain appends one document to its fiscal chain, assigning
	// sequence, previous hash and hash from the current chain head under the
	// document chain lock.
	LinkDocumentToChain(ctx context.Context, companyID string, document domain.Document) (*domain.Document, error)

	// BackfillDocumentChain links unchained documents of the scope in
	// chronological order, one transaction per document under the document
	// chain lock. On failure the assignments committed so far are returned
	// with the error; rerunning resumes from the new chain head.
	BackfillDocumentChain(ctx context.Context, companyID string, docType domain.DocumentType) ([]domain.BackfillPreview, error)
}

// DocumentAllocationSupport defines operations used while applying an allocation plan
type DocumentAllocationSupport interface {
	// FindDocumentsByIDsForUpdate selects documents and locks them for update within a transaction.
	FindDocumentsByIDsForUpdate(ctx context.Context, tx pgx.Tx, companyID string, documentIDs []string) (map[string]domain.Document, error)
}

// DocumentRepositoryFacade combines all document-related repository interfaces
// This is a facade for clients that need access to all operations
type DocumentRepositoryFacade interface {
	DocumentReader
	DocumentChainWriter
	DocumentAllocationSupport
}

// DocumentRepositoryWithTx extends DocumentRepositoryFacade with transaction capabilities
type DocumentRepositoryWithTx interface {
	DocumentRepositoryFacade
	TransactionManager
}

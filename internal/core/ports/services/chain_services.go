package services

import (
	"context"

	"github.com/fincore-erp/fincore/internal/core/domain"
)

// ChainSvcFacade verifies and maintains the two hash chains. The journal
// chain is scoped per company; the fiscal document chain per company and
// document type.
type ChainSvcFacade interface {
	// VerifyJournalChain walks every posted entry of a company in chain order.
	VerifyJournalChain(ctx context.Context, companyID string) (domain.ChainVerification, error)

	// VerifyDocumentChain walks the fiscal chain of a company and document type.
	VerifyDocumentChain(ctx context.Context, companyID string, docType domain.DocumentType) (domain.ChainVerification, error)

	// LinkDocument appends one document to its fiscal chain.
	LinkDocument(ctx context.Context, companyID string, documentID string) (*domain.Document, error)

	// BackfillDocumentChain links all unchained documents of the scope in
	// chronological order. With dryRun set, it only reports the assignments
	// it would make.
	BackfillDocumentChain(ctx context.Context, companyID string, docType domain.DocumentType, dryRun bool) (*domain.BackfillResult, error)
}

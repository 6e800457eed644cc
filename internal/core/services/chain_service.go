package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fincore-erp/fincore/internal/apperrors"
	"github.com/fincore-erp/fincore/internal/core/domain"
	portsrepo "github.com/fincore-erp/fincore/internal/core/ports/repositories"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
	"github.com/fincore-erp/fincore/internal/middleware"
)

var (
	ErrDocumentAlreadyChained = errors.New("document is already linked to the fiscal chain")
	ErrUnknownDocumentType    = errors.New("unknown document type")
)

// chainService verifies and maintains the journal and fiscal document
// hash chains. Verification is read-only; linking and backfill go through
// the repositories, which hold the chain locks.
type chainService struct {
	entryRepo    portsrepo.EntryRepositoryFacade
	documentRepo portsrepo.DocumentRepositoryFacade
	hasher       portssvc.ChainHasherSvc
}

// NewChainService creates a new ChainService.
func NewChainService(entryRepo portsrepo.EntryRepositoryFacade, documentRepo portsrepo.DocumentRepositoryFacade, hasher portssvc.ChainHasherSvc) portssvc.ChainSvcFacade {
	return &chainService{
		entryRepo:    entryRepo,
		documentRepo: documentRepo,
		hasher:       hasher,
	}
}

var _ portssvc.ChainSvcFacade = (*chainService)(nil)

// VerifyJournalChain recomputes every posted entry's hash in chain order
// and reports the first continuity or integrity failure.
func (s *chainService) VerifyJournalChain(ctx context.Context, companyID string) (domain.ChainVerification, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entries, err := s.entryRepo.ListPostedEntriesWithLines(ctx, companyID)
	if err != nil {
		return domain.ChainVerification{}, fmt.Errorf("failed to load posted entries for company %s: %w", companyID, err)
	}

	links := make([]domain.ChainLink, len(entries))
	for i, entry := range entries {
		links[i] = domain.ChainLink{
			Position:     i,
			Reference:    entry.EntryNumber,
			Hash:         entry.Hash,
			PreviousHash: entry.PreviousHash,
			Serialized:   s.hasher.SerializeEntry(entry, entry.Lines),
		}
	}

	result := s.hasher.VerifyChain(links)
	s.logVerification(logger, "journal", companyID, "", result)
	return result, nil
}

// VerifyDocumentChain walks the fiscal chain of a company and document type.
func (s *chainService) VerifyDocumentChain(ctx context.Context, companyID string, docType domain.DocumentType) (domain.ChainVerification, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !docType.IsValid() {
		return domain.ChainVerification{}, apperrors.NewAppError(http.StatusBadRequest,
			fmt.Sprintf("%v: %q", ErrUnknownDocumentType, docType), apperrors.ErrValidation)
	}

	documents, err := s.documentRepo.ListChainedDocuments(ctx, companyID, docType)
	if err != nil {
		return domain.ChainVerification{}, fmt.Errorf("failed to load chained documents for company %s: %w", companyID, err)
	}

	links := make([]domain.ChainLink, len(documents))
	for i, doc := range documents {
		link := domain.ChainLink{
			Position:   i,
			Reference:  doc.DocumentNumber,
			Serialized: s.hasher.SerializeDocument(doc),
		}
		if doc.FiscalHash != nil {
			link.Hash = *doc.FiscalHash
		}
		if doc.PreviousHash != nil {
			link.PreviousHash = *doc.PreviousHash
		}
		links[i] = link
	}

	result := s.hasher.VerifyChain(links)
	s.logVerification(logger, "document", companyID, string(docType), result)
	return result, nil
}

func (s *chainService) logVerification(logger *slog.Logger, chain string, companyID string, docType string, result domain.ChainVerification) {
	attrs := []any{
		slog.String("chain", chain),
		slog.String("company_id", companyID),
		slog.Int("checked", result.Checked),
	}
	if docType != "" {
		attrs = append(attrs, slog.String("document_type", docType))
	}
	if result.Valid {
		logger.Info("Chain verification passed", attrs...)
		return
	}
	attrs = append(attrs,
		slog.Int("failed_at", result.FailedAt),
		slog.String("reference", result.Reference),
		slog.String("reason", string(result.Reason)),
	)
	logger.Warn("Chain verification failed", attrs...)
}

// LinkDocument appends one document to its fiscal chain.
func (s *chainService) LinkDocument(ctx context.Context, companyID string, documentID string) (*domain.Document, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	doc, err := s.documentRepo.FindDocumentByID(ctx, companyID, documentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("document %s not found", documentID))
		}
		return nil, fmt.Errorf("failed to load document %s: %w", documentID, err)
	}
	if doc.FiscalHash != nil {
		return nil, apperrors.NewAppError(http.StatusConflict,
			fmt.Sprintf("document %s: %v", documentID, ErrDocumentAlreadyChained), apperrors.ErrConflict)
	}

	linked, err := s.documentRepo.LinkDocumentToChain(ctx, companyID, *doc)
	if err != nil {
		logger.Error("Failed to link document to chain", slog.String("document_id", documentID), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Document linked to fiscal chain",
		slog.String("document_id", documentID),
		slog.String("document_type", string(linked.DocumentType)),
		slog.Int64("chain_sequence", *linked.ChainSequence),
	)
	return linked, nil
}

// BackfillDocumentChain links all unchained documents of the scope in
// chronological order. A dry run computes the assignments in memory from
// the current chain head and persists nothing.
func (s *chainService) BackfillDocumentChain(ctx context.Context, companyID string, docType domain.DocumentType, dryRun bool) (*domain.BackfillResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !docType.IsValid() {
		return nil, apperrors.NewAppError(http.StatusBadRequest,
			fmt.Sprintf("%v: %q", ErrUnknownDocumentType, docType), apperrors.ErrValidation)
	}

	result := domain.BackfillResult{
		CompanyID:    companyID,
		DocumentType: docType,
		DryRun:       dryRun,
	}

	if dryRun {
		previews, err := s.computeBackfill(ctx, companyID, docType)
		if err != nil {
			return nil, err
		}
		result.Processed = len(previews)
		result.Previews = previews
		return &result, nil
	}

	previews, err := s.documentRepo.BackfillDocumentChain(ctx, companyID, docType)
	if err != nil {
		// Each document links in its own transaction, so the ones processed
		// before the failure stay committed and a rerun resumes after them.
		logger.Error("Backfill failed",
			slog.String("company_id", companyID),
			slog.String("document_type", string(docType)),
			slog.Int("processed_before_failure", len(previews)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	result.Processed = len(previews)
	result.Previews = previews

	logger.Info("Backfill completed",
		slog.String("company_id", companyID),
		slog.String("document_type", string(docType)),
		slog.Int("processed", result.Processed),
	)
	return &result, nil
}

// computeBackfill derives the assignments a backfill would make, starting
// from the current chain head.
func (s *chainService) computeBackfill(ctx context.Context, companyID string, docType domain.DocumentType) ([]domain.BackfillPreview, error) {
	chained, err := s.documentRepo.ListChainedDocuments(ctx, companyID, docType)
	if err != nil {
		return nil, fmt.Errorf("failed to load chained documents: %w", err)
	}

	previousHash := ""
	nextSequence := int64(1)
	if len(chained) > 0 {
		head := chained[len(chained)-1]
		if head.FiscalHash != nil {
			previousHash = *head.FiscalHash
		}
		if head.ChainSequence != nil {
			nextSequence = *head.ChainSequence + 1
		}
	}

	unchained, err := s.documentRepo.ListUnchainedDocuments(ctx, companyID, docType)
	if err != nil {
		return nil, fmt.Errorf("failed to load unchained documents: %w", err)
	}

	previews := make([]domain.BackfillPreview, len(unchained))
	for i, doc := range unchained {
		hash := s.hasher.CalculateHash(s.hasher.SerializeDocument(doc), previousHash)
		previews[i] = domain.BackfillPreview{
			DocumentID:     doc.DocumentID,
			DocumentNumber: doc.DocumentNumber,
			ChainSequence:  nextSequence,
			PreviousHash:   previousHash,
			Hash:           hash,
		}
		previousHash = hash
		nextSequence++
	}
	return previews, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fincore-erp/fincore/internal/apperrors"
	"github.com/fincore-erp/fincore/internal/core/domain"
	portsrepo "github.com/fincore-erp/fincore/internal/core/ports/repositories"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
	"github.com/fincore-erp/fincore/internal/dto"
	"github.com/fincore-erp/fincore/internal/middleware"
	"github.com/fincore-erp/fincore/internal/utils/accounting"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrAccountWrongTenant = errors.New("account belongs to a different company")
	ErrEntryNotDraft      = errors.New("only DRAFT entries can be posted")
	ErrEntryNotPosted     = errors.New("only POSTED entries can be reversed")
	ErrEntryAlreadyRev    = errors.New("entry is already reversed")
)

const defaultListLimit = 20

// ledgerService provides journal entry lifecycle operations: creation from
// manual input or document templates, posting onto the hash chain, and
// reversal.
type ledgerService struct {
	entryRepo    portsrepo.EntryRepositoryFacade
	accountRepo  portsrepo.AccountRepositoryFacade
	documentRepo portsrepo.DocumentRepositoryFacade
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(entryRepo portsrepo.EntryRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, documentRepo portsrepo.DocumentRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		entryRepo:    entryRepo,
		accountRepo:  accountRepo,
		documentRepo: documentRepo,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// checkAccountsUsable verifies that every referenced account exists, is
// active, and belongs to the company. It returns the accounts keyed by ID.
func (s *ledgerService) checkAccountsUsable(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	for _, id := range accountIDs {
		account, found := accounts[id]
		if !found {
			return nil, apperrors.NewAppError(http.StatusBadRequest, fmt.Sprintf("account %s: %v", id, ErrAccountNotFound), apperrors.ErrValidation)
		}
		if account.CompanyID != companyID {
			return nil, apperrors.NewAppError(http.StatusBadRequest, fmt.Sprintf("account %s: %v", id, ErrAccountWrongTenant), apperrors.ErrValidation)
		}
		if !account.IsActive {
			return nil, apperrors.NewAppError(http.StatusBadRequest, fmt.Sprintf("account %s: %v", id, ErrAccountInactive), apperrors.ErrValidation)
		}
	}
	return accounts, nil
}

func accountTypesOf(accounts map[string]domain.Account) map[string]domain.AccountType {
	types := make(map[string]domain.AccountType, len(accounts))
	for id, account := range accounts {
		types[id] = account.AccountType
	}
	return types
}

// CreateEntry validates and persists a new DRAFT entry with its lines.
func (s *ledgerService) CreateEntry(ctx context.Context, companyID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	entryID := uuid.NewString()
	lines := make([]domain.JournalLine, len(req.Lines))
	accountIDs := make([]string, 0, len(req.Lines))
	for i, lineReq := range req.Lines {
		lines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     entryID,
			AccountID:   lineReq.AccountID,
			Debit:       lineReq.Debit,
			Credit:      lineReq.Credit,
			Description: lineReq.Description,
			LineIndex:   i,
			PartnerID:   lineReq.PartnerID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
		}
		accountIDs = append(accountIDs, lineReq.AccountID)
	}

	if err := ValidateEntryLines(lines); err != nil {
		return nil, apperrors.NewAppError(http.StatusBadRequest, err.Error(), apperrors.ErrValidation)
	}

	if _, err := s.checkAccountsUsable(ctx, companyID, accountIDs); err != nil {
		return nil, err
	}

	entry := domain.JournalEntry{
		EntryID:     entryID,
		CompanyID:   companyID,
		EntryDate:   req.EntryDate,
		Description: req.Description,
		Status:      domain.Draft,
		SourceType:  domain.SourceManual,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	saved, err := s.entryRepo.SaveDraftEntry(ctx, entry, lines)
	if err != nil {
		logger.Error("Failed to save draft entry", slog.String("company_id", companyID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}
	saved.Lines = lines

	logger.Info("Draft entry created",
		slog.String("entry_id", saved.EntryID),
		slog.String("entry_number", saved.EntryNumber),
		slog.String("company_id", companyID),
	)
	return saved, nil
}

// documentTemplate returns the posting legs for a document type: each leg
// names a system account purpose, an amount, and the side it posts to.
type templateLeg struct {
	purpose domain.SystemPurpose
	amount  decimal.Decimal
	isDebit bool
}

func documentTemplate(doc *domain.Document) ([]templateLeg, domain.SourceType, string, error) {
	switch doc.DocumentType {
	case domain.DocInvoice:
		legs := []templateLeg{
			{purpose: domain.PurposeAccountsReceivable, amount: doc.Total, isDebit: true},
			{purpose: domain.PurposeSalesRevenue, amount: doc.Subtotal, isDebit: false},
		}
		if doc.Tax.IsPositive() {
			legs = append(legs, templateLeg{purpose: domain.PurposeTaxPayable, amount: doc.Tax, isDebit: false})
		}
		return legs, domain.SourceInvoice, fmt.Sprintf("Invoice %s", doc.DocumentNumber), nil
	case domain.DocCreditNote:
		legs := []templateLeg{
			{purpose: domain.PurposeSalesRevenue, amount: doc.Subtotal, isDebit: true},
		}
		if doc.Tax.IsPositive() {
			legs = append(legs, templateLeg{purpose: domain.PurposeTaxPayable, amount: doc.Tax, isDebit: true})
		}
		legs = append(legs, templateLeg{purpose: domain.PurposeAccountsReceivable, amount: doc.Total, isDebit: false})
		return legs, domain.SourceCreditNote, fmt.Sprintf("Credit note %s", doc.DocumentNumber), nil
	default:
		return nil, "", "", fmt.Errorf("no posting template for document type %s", doc.DocumentType)
	}
}

// CreateEntryFromDocument generates a DRAFT entry from a business document
// using the posting template for its type. Invoices debit receivables for
// the total and credit revenue and tax payable; credit notes mirror that.
func (s *ledgerService) CreateEntryFromDocument(ctx context.Context, companyID string, documentID string, creatorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	doc, err := s.documentRepo.FindDocumentByID(ctx, companyID, documentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("document %s not found", documentID))
		}
		return nil, fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	legs, sourceType, description, err := documentTemplate(doc)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusBadRequest, err.Error(), apperrors.ErrValidation)
	}

	entryID := uuid.NewString()
	lines := make([]domain.JournalLine, 0, len(legs))
	for i, leg := range legs {
		account, err := s.accountRepo.FindAccountByPurpose(ctx, companyID, leg.purpose)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewAppError(http.StatusBadRequest,
					fmt.Sprintf("company %s has no account with purpose %s", companyID, leg.purpose), apperrors.ErrValidation)
			}
			return nil, fmt.Errorf("failed to resolve %s account: %w", leg.purpose, err)
		}

		line := domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     entryID,
			AccountID:   account.AccountID,
			Description: description,
			LineIndex:   i,
			PartnerID:   &doc.PartnerID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
		}
		if leg.isDebit {
			line.Debit = leg.amount
		} else {
			line.Credit = leg.amount
		}
		lines = append(lines, line)
	}

	if err := ValidateEntryLines(lines); err != nil {
		// Document totals that do not decompose into balanced legs are a data
		// problem on the document side, not a caller mistake.
		return nil, apperrors.NewAppError(http.StatusUnprocessableEntity,
			fmt.Sprintf("document %s does not produce a balanced entry: %v", documentID, err), apperrors.ErrValidation)
	}

	sourceID := doc.DocumentID
	entry := domain.JournalEntry{
		EntryID:     entryID,
		CompanyID:   companyID,
		EntryDate:   doc.DocumentDate,
		Description: description,
		Status:      domain.Draft,
		SourceType:  sourceType,
		SourceID:    &sourceID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	saved, err := s.entryRepo.SaveDraftEntry(ctx, entry, lines)
	if err != nil {
		logger.Error("Failed to save document entry", slog.String("document_id", documentID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save entry for document %s: %w", documentID, err)
	}
	saved.Lines = lines

	logger.Info("Draft entry created from document",
		slog.String("entry_id", saved.EntryID),
		slog.String("entry_number", saved.EntryNumber),
		slog.String("document_id", documentID),
		slog.String("source_type", string(sourceType)),
	)
	return saved, nil
}

// PostEntry transitions a DRAFT entry to POSTED. The repository assigns the
// chain hash from the latest posted hash and applies the balance deltas in
// the same transaction.
func (s *ledgerService) PostEntry(ctx context.Context, companyID string, entryID string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, companyID, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("entry %s not found", entryID))
		}
		return nil, fmt.Errorf("failed to load entry %s: %w", entryID, err)
	}
	if entry.Status != domain.Draft {
		return nil, apperrors.NewAppError(http.StatusConflict,
			fmt.Sprintf("entry %s has status %s: %v", entryID, entry.Status, ErrEntryNotDraft), apperrors.ErrConflict)
	}

	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for entry %s: %w", entryID, err)
	}
	if err := ValidateEntryLines(lines); err != nil {
		return nil, apperrors.NewAppError(http.StatusUnprocessableEntity, err.Error(), apperrors.ErrValidation)
	}

	accountIDs := make([]string, len(lines))
	for i, line := range lines {
		accountIDs[i] = line.AccountID
	}
	accounts, err := s.checkAccountsUsable(ctx, companyID, accountIDs)
	if err != nil {
		return nil, err
	}

	balanceChanges, err := accounting.BalanceChanges(lines, accountTypesOf(accounts))
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance changes for entry %s: %w", entryID, err)
	}

	posted, err := s.entryRepo.PostEntry(ctx, companyID, entryID, userID, time.Now(), balanceChanges)
	if err != nil {
		logger.Error("Failed to post entry", slog.String("entry_id", entryID), slog.String("error", err.Error()))
		return nil, err
	}
	posted.Lines = lines

	logger.Info("Entry posted",
		slog.String("entry_id", entryID),
		slog.String("entry_number", posted.EntryNumber),
		slog.String("hash", posted.Hash),
	)
	return posted, nil
}

// ReverseEntry creates a mirror-image entry for a POSTED entry, posts it,
// and marks the original REVERSED, all in one transaction.
func (s *ledgerService) ReverseEntry(ctx context.Context, companyID string, entryID string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	original, err := s.entryRepo.FindEntryByID(ctx, companyID, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("entry %s not found", entryID))
		}
		return nil, fmt.Errorf("failed to load entry %s: %w", entryID, err)
	}
	switch original.Status {
	case domain.Posted:
		// reversible
	case domain.Reversed:
		return nil, apperrors.NewAppError(http.StatusConflict,
			fmt.Sprintf("entry %s: %v", entryID, ErrEntryAlreadyRev), apperrors.ErrConflict)
	default:
		return nil, apperrors.NewAppError(http.StatusConflict,
			fmt.Sprintf("entry %s has status %s: %v", entryID, original.Status, ErrEntryNotPosted), apperrors.ErrConflict)
	}

	originalLines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for entry %s: %w", entryID, err)
	}

	reversingEntryID := uuid.NewString()
	reversingLines := make([]domain.JournalLine, len(originalLines))
	accountIDs := make([]string, len(originalLines))
	for i, line := range originalLines {
		reversingLines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     reversingEntryID,
			AccountID:   line.AccountID,
			Debit:       line.Credit,
			Credit:      line.Debit,
			Description: line.Description,
			LineIndex:   line.LineIndex,
			PartnerID:   line.PartnerID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		accountIDs[i] = line.AccountID
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	balanceChanges, err := accounting.BalanceChanges(reversingLines, accountTypesOf(accounts))
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance changes for reversal of %s: %w", entryID, err)
	}

	sourceID := original.EntryID
	reversing := domain.JournalEntry{
		EntryID:         reversingEntryID,
		CompanyID:       companyID,
		EntryDate:       now,
		Description:     fmt.Sprintf("Reversal of %s", original.EntryNumber),
		Status:          domain.Draft,
		SourceType:      domain.SourceReversal,
		SourceID:        &sourceID,
		OriginalEntryID: &original.EntryID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	reversed, err := s.entryRepo.ReverseEntry(ctx, entryID, domain.PreparedEntry{
		Entry:          reversing,
		Lines:          reversingLines,
		BalanceChanges: balanceChanges,
	}, userID, now)
	if err != nil {
		logger.Error("Failed to reverse entry", slog.String("entry_id", entryID), slog.String("error", err.Error()))
		return nil, err
	}
	reversed.Lines = reversingLines

	logger.Info("Entry reversed",
		slog.String("original_entry_id", entryID),
		slog.String("reversing_entry_id", reversed.EntryID),
	)
	return reversed, nil
}

// GetEntryByID retrieves a specific entry with its lines.
func (s *ledgerService) GetEntryByID(ctx context.Context, companyID string, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.entryRepo.FindEntryByID(ctx, companyID, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("entry %s not found", entryID))
		}
		return nil, fmt.Errorf("failed to load entry %s: %w", entryID, err)
	}

	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for entry %s: %w", entryID, err)
	}
	entry.Lines = lines
	return entry, nil
}

// ListEntries retrieves a paginated list of entries with their lines.
func (s *ledgerService) ListEntries(ctx context.Context, companyID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	entries, nextToken, err := s.entryRepo.ListEntries(ctx, companyID, limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	entryIDs := make([]string, len(entries))
	for i, entry := range entries {
		entryIDs[i] = entry.EntryID
	}
	linesByEntry, err := s.entryRepo.FindLinesByEntryIDs(ctx, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines: %w", err)
	}

	resp := dto.ListEntriesResponse{
		Entries:   make([]dto.EntryResponse, len(entries)),
		NextToken: nextToken,
	}
	for i := range entries {
		entries[i].Lines = linesByEntry[entries[i].EntryID]
		resp.Entries[i] = dto.ToEntryResponse(&entries[i])
	}
	return &resp, nil
}

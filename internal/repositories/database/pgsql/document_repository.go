package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/fincore-erp/fincore/internal/apperrors"
	"github.com/fincore-erp/fincore/internal/core/domain"
	portsrepo "github.com/fincore-erp/fincore/internal/core/ports/repositories"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
	"github.com/fincore-erp/fincore/internal/models"
	"github.com/fincore-erp/fincore/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentColumns = `document_id, company_id, document_type, document_number, document_date, due_date, currency_code, partner_id, subtotal, tax, total, balance_due, status, fiscal_hash, previous_hash, chain_sequence, created_at, created_by, last_updated_at, last_updated_by`

type PgxDocumentRepository struct {
	BaseRepository
	hasher portssvc.ChainHasherSvc
}

// newPgxDocumentRepository creates a new repository for document data.
// The hasher computes fiscal chain hashes inside linking transactions.
func newPgxDocumentRepository(pool *pgxpool.Pool, hasher portssvc.ChainHasherSvc) portsrepo.DocumentRepositoryWithTx {
	return &PgxDocumentRepository{
		BaseRepository: BaseRepository{Pool: pool},
		hasher:         hasher,
	}
}

// Ensure PgxDocumentRepository implements the facade
var _ portsrepo.DocumentRepositoryWithTx = (*PgxDocumentRepository)(nil)

func scanDocumentRow(row pgx.Row) (models.Document, error) {
	var m models.Document
	err := row.Scan(
		&m.DocumentID,
		&m.CompanyID,
		&m.DocumentType,
		&m.DocumentNumber,
		&m.DocumentDate,
		&m.DueDate,
		&m.CurrencyCode,
		&m.PartnerID,
		&m.Subtotal,
		&m.Tax,
		&m.Total,
		&m.BalanceDue,
		&m.Status,
		&m.FiscalHash,
		&m.PreviousHash,
		&m.ChainSequence,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func collectDocuments(rows pgx.Rows) ([]domain.Document, error) {
	docs := make([]models.Document, 0)
	for rows.Next() {
		m, err := scanDocumentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return mapping.ToDomainDocumentSlice(docs), nil
}

// FindDocumentByID retrieves a document by its ID within a company.
func (r *PgxDocumentRepository) FindDocumentByID(ctx context.Context, companyID string, documentID string) (*domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE company_id = $1 AND document_id = $2;
	`
	m, err := scanDocumentRow(r.Pool.QueryRow(ctx, query, companyID, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document by ID %s: %w", documentID, err)
	}

	doc := mapping.ToDomainDocument(m)
	return &doc, nil
}

// ListOpenDocumentsByPartner retrieves a partner's settleable documents
// ordered per the allocation strategy.
func (r *PgxDocumentRepository) ListOpenDocumentsByPartner(ctx context.Context, companyID string, partnerID string, strategy domain.AllocationStrategy) ([]domain.Document, error) {
	orderByClause := `ORDER BY document_date ASC, document_number ASC`
	if strategy == domain.StrategyDueDatePriority {
		orderByClause = `ORDER BY due_date ASC, document_date ASC`
	}

	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE company_id = $1 AND partner_id = $2 AND status IN ('OPEN', 'PARTIALLY_PAID')
	` + orderByClause + `;`

	rows, err := r.Pool.Query(ctx, query, companyID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open documents for partner %s: %w", partnerID, err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ListChainedDocuments retrieves the fiscal chain of a company and document
// type in chain sequence order.
func (r *PgxDocumentRepository) ListChainedDocuments(ctx context.Context, companyID string, docType domain.DocumentType) ([]domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE company_id = $1 AND document_type = $2 AND fiscal_hash IS NOT NULL
		ORDER BY chain_sequence ASC;
	`
	rows, err := r.Pool.Query(ctx, query, companyID, string(docType))
	if err != nil {
		return nil, fmt.Errorf("failed to query chained documents for company %s: %w", companyID, err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ListUnchainedDocuments retrieves documents not yet linked to the fiscal
// chain, in chronological order.
func (r *PgxDocumentRepository) ListUnchainedDocuments(ctx context.Context, companyID string, docType domain.DocumentType) ([]domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE company_id = $1 AND document_type = $2 AND fiscal_hash IS NULL
		ORDER BY document_date ASC, document_number ASC;
	`
	rows, err := r.Pool.Query(ctx, query, companyID, string(docType))
	if err != nil {
		return nil, fmt.Errorf("failed to query unchained documents for company %s: %w", companyID, err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// chainHeadTx returns the previous hash and next sequence for the fiscal
// chain of one company and document type. Callers must hold the document
// chain lock for the scope.
func chainHeadTx(ctx context.Context, tx pgx.Tx, companyID string, docType string) (string, int64, error) {
	query := `
		SELECT fiscal_hash, chain_sequence
		FROM documents
		WHERE company_id = $1 AND document_type = $2 AND fiscal_hash IS NOT NULL
		ORDER BY chain_sequence DESC
		LIMIT 1;
	`
	var headHash string
	var headSequence int64
	err := tx.QueryRow(ctx, query, companyID, docType).Scan(&headHash, &headSequence)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 1, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to read fiscal chain head for company %s: %w", companyID, err)
	}
	return headHash, headSequence + 1, nil
}

// assignChainFieldsTx writes the chain assignment of one document.
func assignChainFieldsTx(ctx context.Context, tx pgx.Tx, companyID string, documentID string, sequence int64, previousHash string, hash string) error {
	query := `
		UPDATE documents
		SET fiscal_hash = $3, previous_hash = $4, chain_sequence = $5, last_updated_at = NOW()
		WHERE company_id = $1 AND document_id = $2 AND fiscal_hash IS NULL;
	`
	ct, err := tx.Exec(ctx, query, companyID, documentID, hash, previousHash, sequence)
	if err != nil {
		return fmt.Errorf("failed to link document %s to chain: %w", documentID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: document %s is already linked to the fiscal chain", apperrors.ErrConflict, documentID)
	}
	return nil
}

// LinkDocumentToChain appends one document to its fiscal chain under the
// document chain lock.
func (r *PgxDocumentRepository) LinkDocumentToChain(ctx context.Context, companyID string, document domain.Document) (*domain.Document, error) {
	scope := documentChainScope + "|" + string(document.DocumentType)

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if err := acquireChainLockTx(ctx, tx, companyID, scope); err != nil {
		return nil, err
	}

	// Re-read the document under lock; the immutable fields feed the hash.
	lockQuery := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE company_id = $1 AND document_id = $2
		FOR UPDATE;
	`
	m, err := scanDocumentRow(tx.QueryRow(ctx, lockQuery, companyID, document.DocumentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock document %s for chaining: %w", document.DocumentID, err)
	}
	if m.FiscalHash != nil {
		return nil, fmt.Errorf("%w: document %s is already linked to the fiscal chain", apperrors.ErrConflict, document.DocumentID)
	}
	doc := mapping.ToDomainDocument(m)

	previousHash, sequence, err := chainHeadTx(ctx, tx, companyID, string(doc.DocumentType))
	if err != nil {
		return nil, err
	}
	hash := r.hasher.CalculateHash(r.hasher.SerializeDocument(doc), previousHash)

	if err := assignChainFieldsTx(ctx, tx, companyID, doc.DocumentID, sequence, previousHash, hash); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	doc.FiscalHash = &hash
	doc.PreviousHash = &previousHash
	doc.ChainSequence = &sequence
	return &doc, nil
}

// BackfillDocumentChain links unchained documents of the scope in
// chronological order, one transaction per document. A failure leaves the
// documents linked so far committed; rerunning resumes from the new chain
// head. The previews committed before a failure are returned with the error.
func (r *PgxDocumentRepository) BackfillDocumentChain(ctx context.Context, companyID string, docType domain.DocumentType) ([]domain.BackfillPreview, error) {
	scope := documentChainScope + "|" + string(docType)

	previews := make([]domain.BackfillPreview, 0)
	for {
		preview, err := r.backfillNextDocument(ctx, companyID, string(docType), scope)
		if err != nil {
			return previews, err
		}
		if preview == nil {
			return previews, nil
		}
		previews = append(previews, *preview)
	}
}

// backfillNextDocument links the oldest unchained document of the scope in
// its own transaction. It returns nil when no unchained document remains.
func (r *PgxDocumentRepository) backfillNextDocument(ctx context.Context, companyID string, docType string, scope string) (*domain.BackfillPreview, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if err := acquireChainLockTx(ctx, tx, companyID, scope); err != nil {
		return nil, err
	}

	previousHash, sequence, err := chainHeadTx(ctx, tx, companyID, docType)
	if err != nil {
		return nil, err
	}

	nextQuery := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE company_id = $1 AND document_type = $2 AND fiscal_hash IS NULL
		ORDER BY document_date ASC, document_number ASC
		LIMIT 1
		FOR UPDATE;
	`
	m, err := scanDocumentRow(tx.QueryRow(ctx, nextQuery, companyID, docType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock next unchained document for company %s: %w", companyID, err)
	}
	doc := mapping.ToDomainDocument(m)

	hash := r.hasher.CalculateHash(r.hasher.SerializeDocument(doc), previousHash)
	if err := assignChainFieldsTx(ctx, tx, companyID, doc.DocumentID, sequence, previousHash, hash); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	return &domain.BackfillPreview{
		DocumentID:     doc.DocumentID,
		DocumentNumber: doc.DocumentNumber,
		ChainSequence:  sequence,
		PreviousHash:   previousHash,
		Hash:           hash,
	}, nil
}

// FindDocumentsByIDsForUpdate retrieves multiple documents by IDs and locks
// the rows for update. Must be called within a transaction.
func (r *PgxDocumentRepository) FindDocumentsByIDsForUpdate(ctx context.Context, tx pgx.Tx, companyID string, documentIDs []string) (map[string]domain.Document, error) {
	if len(documentIDs) == 0 {
		return map[string]domain.Document{}, nil
	}

	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE company_id = $1 AND document_id = ANY($2)
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, companyID, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents by IDs for update: %w", err)
	}
	defer rows.Close()

	documentsMap := make(map[string]domain.Document)
	for rows.Next() {
		m, err := scanDocumentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked document row: %w", err)
		}
		documentsMap[m.DocumentID] = mapping.ToDomainDocument(m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked document rows: %w", err)
	}

	if len(documentsMap) != len(documentIDs) {
		missing := []string{}
		for _, id := range documentIDs {
			if _, found := documentsMap[id]; !found {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("%w: could not find or lock all requested documents, missing: %v", apperrors.ErrNotFound, missing)
	}

	return documentsMap, nil
}

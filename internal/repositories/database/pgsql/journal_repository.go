package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fincore-erp/fincore/internal/apperrors"
	"github.com/fincore-erp/fincore/internal/core/domain"
	portsrepo "github.com/fincore-erp/fincore/internal/core/ports/repositories"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
	"github.com/fincore-erp/fincore/internal/models"
	"github.com/fincore-erp/fincore/internal/utils/mapping"
	"github.com/fincore-erp/fincore/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const entryColumns = `entry_id, company_id, entry_number, entry_date, description, status, source_type, source_id, hash, previous_hash, chain_sequence, posted_at, posted_by, original_entry_id, reversing_entry_id, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, entry_id, account_id, debit, credit, description, line_index, partner_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxEntryRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
	hasher      portssvc.ChainHasherSvc
}

// newPgxEntryRepository creates a new repository for journal entry data.
// The hasher computes chain hashes inside posting transactions.
func newPgxEntryRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade, hasher portssvc.ChainHasherSvc) *PgxEntryRepository {
	return &PgxEntryRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
		hasher:         hasher,
	}
}

// Ensure PgxEntryRepository implements the facade
var _ portsrepo.EntryRepositoryWithTx = (*PgxEntryRepository)(nil)

// scanEntryRow scans one journal_entries row into a model. Nullable columns
// scan into the model's pointer fields directly.
func scanEntryRow(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.CompanyID,
		&m.EntryNumber,
		&m.EntryDate,
		&m.Description,
		&m.Status,
		&m.SourceType,
		&m.SourceID,
		&m.Hash,
		&m.PreviousHash,
		&m.ChainSequence,
		&m.PostedAt,
		&m.PostedBy,
		&m.OriginalEntryID,
		&m.ReversingEntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func scanLineRow(row pgx.Row) (models.JournalLine, error) {
	var m models.JournalLine
	err := row.Scan(
		&m.LineID,
		&m.EntryID,
		&m.AccountID,
		&m.Debit,
		&m.Credit,
		&m.Description,
		&m.LineIndex,
		&m.PartnerID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// nextEntryNumberTx reserves the next sequential entry number for the company
// and year. Callers must hold the journal chain lock so two drafts never
// receive the same number.
func nextEntryNumberTx(ctx context.Context, tx pgx.Tx, companyID string, year int) (string, error) {
	prefix := fmt.Sprintf("JE-%d-", year)

	query := `
		SELECT COALESCE(MAX(CAST(RIGHT(entry_number, 6) AS INTEGER)), 0)
		FROM journal_entries
		WHERE company_id = $1 AND entry_number LIKE $2;
	`
	var highest int
	if err := tx.QueryRow(ctx, query, companyID, prefix+"%").Scan(&highest); err != nil {
		return "", fmt.Errorf("failed to read highest entry number for company %s: %w", companyID, err)
	}

	return fmt.Sprintf("%s%06d", prefix, highest+1), nil
}

// journalChainHeadTx returns the head hash of the company's journal chain and
// the sequence the next posted entry must take. Callers must hold the journal
// chain lock; the sequence is only meaningful while the lock is held. An empty
// chain yields ("", 1). REVERSED entries stay in the chain; only their status
// changed after posting.
func journalChainHeadTx(ctx context.Context, tx pgx.Tx, companyID string) (string, int64, error) {
	query := `
		SELECT hash, chain_sequence
		FROM journal_entries
		WHERE company_id = $1 AND chain_sequence IS NOT NULL
		ORDER BY chain_sequence DESC
		LIMIT 1;
	`
	var hash string
	var headSequence int64
	err := tx.QueryRow(ctx, query, companyID).Scan(&hash, &headSequence)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 1, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to read journal chain head for company %s: %w", companyID, err)
	}
	return hash, headSequence + 1, nil
}

// insertEntryHeaderTx inserts one journal_entries row.
func insertEntryHeaderTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err := tx.Exec(ctx, query,
		m.EntryID,
		m.CompanyID,
		m.EntryNumber,
		m.EntryDate,
		m.Description,
		m.Status,
		m.SourceType,
		m.SourceID,
		m.Hash,
		m.PreviousHash,
		m.ChainSequence,
		m.PostedAt,
		m.PostedBy,
		m.OriginalEntryID,
		m.ReversingEntryID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry %s: %w", m.EntryID, err)
	}
	return nil
}

// insertLinesTx batch-inserts the lines of one entry.
func insertLinesTx(ctx context.Context, tx pgx.Tx, lines []domain.JournalLine) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	for _, line := range lines {
		m := mapping.ToModelJournalLine(line)
		batch.Queue(query,
			m.LineID,
			m.EntryID,
			m.AccountID,
			m.Debit,
			m.Credit,
			m.Description,
			m.LineIndex,
			m.PartnerID,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute journal line batch: %w", err)
	}
	return nil
}

// insertPostedEntryTx inserts a prepared entry directly in POSTED state,
// assigning its entry number and chain hash, and applies its balance effect.
// Callers must hold the journal chain lock for the entry's company.
func (r *PgxEntryRepository) insertPostedEntryTx(ctx context.Context, tx pgx.Tx, prepared domain.PreparedEntry, userID string, now time.Time) (*domain.JournalEntry, error) {
	entry := prepared.Entry

	entryNumber, err := nextEntryNumberTx(ctx, tx, entry.CompanyID, entry.EntryDate.Year())
	if err != nil {
		return nil, err
	}
	entry.EntryNumber = entryNumber

	lines := make([]domain.JournalLine, len(prepared.Lines))
	for i, line := range prepared.Lines {
		line.EntryID = entry.EntryID
		line.CreatedAt = now
		line.CreatedBy = userID
		line.LastUpdatedAt = now
		line.LastUpdatedBy = userID
		lines[i] = line
	}

	previousHash, sequence, err := journalChainHeadTx(ctx, tx, entry.CompanyID)
	if err != nil {
		return nil, err
	}
	entry.PreviousHash = previousHash
	entry.Hash = r.hasher.CalculateHash(r.hasher.SerializeEntry(entry, lines), previousHash)
	entry.ChainSequence = &sequence

	entry.Status = domain.Posted
	entry.PostedAt = &now
	entry.PostedBy = &userID
	entry.CreatedAt = now
	entry.CreatedBy = userID
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	if err := insertEntryHeaderTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := insertLinesTx(ctx, tx, lines); err != nil {
		return nil, err
	}

	accountIDs := make([]string, 0, len(prepared.BalanceChanges))
	for accID := range prepared.BalanceChanges {
		accountIDs = append(accountIDs, accID)
	}
	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock accounts for update", err)
	}
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, prepared.BalanceChanges, userID, now); err != nil {
		return nil, apperrors.NewAppError(500, "failed to update account balances", err)
	}

	entry.Lines = lines
	return &entry, nil
}

// SaveDraftEntry persists a new DRAFT entry and its lines, reserving the next
// entry number under the journal chain lock.
func (r *PgxEntryRepository) SaveDraftEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) (*domain.JournalEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if err := acquireChainLockTx(ctx, tx, entry.CompanyID, journalChainScope); err != nil {
		return nil, err
	}

	entryNumber, err := nextEntryNumberTx(ctx, tx, entry.CompanyID, entry.EntryDate.Year())
	if err != nil {
		return nil, err
	}
	entry.EntryNumber = entryNumber
	entry.Status = domain.Draft

	if err := insertEntryHeaderTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := insertLinesTx(ctx, tx, lines); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	entry.Lines = lines
	return &entry, nil
}

// PostEntry transitions a DRAFT entry to POSTED under the journal chain lock,
// chaining its hash to the current head and applying the balance deltas.
func (r *PgxEntryRepository) PostEntry(ctx context.Context, companyID string, entryID string, postedBy string, now time.Time, balanceChanges map[string]decimal.Decimal) (*domain.JournalEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if err := acquireChainLockTx(ctx, tx, companyID, journalChainScope); err != nil {
		return nil, err
	}

	// Re-read the entry under lock; the status may have changed since the
	// service checked it.
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE company_id = $1 AND entry_id = $2
		FOR UPDATE;
	`
	m, err := scanEntryRow(tx.QueryRow(ctx, query, companyID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry %s for posting: %w", entryID, err)
	}
	if m.Status != models.EntryStatus(domain.Draft) {
		return nil, fmt.Errorf("%w: entry %s is %s, only DRAFT entries can be posted", apperrors.ErrConflict, entryID, m.Status)
	}
	entry := mapping.ToDomainJournalEntry(m)

	lines, err := r.findLinesByEntryIDTx(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	// The chain position is taken under the lock; wall-clock posted_at is
	// recorded for audit but never used to order the chain.
	previousHash, sequence, err := journalChainHeadTx(ctx, tx, companyID)
	if err != nil {
		return nil, err
	}
	hash := r.hasher.CalculateHash(r.hasher.SerializeEntry(entry, lines), previousHash)

	updateQuery := `
		UPDATE journal_entries
		SET status = 'POSTED', hash = $3, previous_hash = $4, chain_sequence = $5, posted_at = $6, posted_by = $7, last_updated_at = $6, last_updated_by = $7
		WHERE company_id = $1 AND entry_id = $2;
	`
	if _, err := tx.Exec(ctx, updateQuery, companyID, entryID, hash, previousHash, sequence, now, postedBy); err != nil {
		return nil, fmt.Errorf("failed to post entry %s: %w", entryID, err)
	}

	accountIDs := make([]string, 0, len(balanceChanges))
	for accID := range balanceChanges {
		accountIDs = append(accountIDs, accID)
	}
	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock accounts for update", err)
	}
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, postedBy, now); err != nil {
		return nil, apperrors.NewAppError(500, "failed to update account balances", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	entry.Status = domain.Posted
	entry.Hash = hash
	entry.PreviousHash = previousHash
	entry.ChainSequence = &sequence
	entry.PostedAt = &now
	entry.PostedBy = &postedBy
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = postedBy
	entry.Lines = lines
	return &entry, nil
}

// ReverseEntry inserts the prepared reversing entry in POSTED state and marks
// the original REVERSED with the linkage, all in one transaction.
func (r *PgxEntryRepository) ReverseEntry(ctx context.Context, originalEntryID string, reversing domain.PreparedEntry, userID string, now time.Time) (*domain.JournalEntry, error) {
	companyID := reversing.Entry.CompanyID

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if err := acquireChainLockTx(ctx, tx, companyID, journalChainScope); err != nil {
		return nil, err
	}

	// Lock the original and re-check its status inside the transaction.
	var status models.EntryStatus
	lockQuery := `
		SELECT status
		FROM journal_entries
		WHERE company_id = $1 AND entry_id = $2
		FOR UPDATE;
	`
	if err := tx.QueryRow(ctx, lockQuery, companyID, originalEntryID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock entry %s for reversal: %w", originalEntryID, err)
	}
	if status != models.EntryStatus(domain.Posted) {
		return nil, fmt.Errorf("%w: entry %s is %s, only POSTED entries can be reversed", apperrors.ErrConflict, originalEntryID, status)
	}

	posted, err := r.insertPostedEntryTx(ctx, tx, reversing, userID, now)
	if err != nil {
		return nil, err
	}

	linkQuery := `
		UPDATE journal_entries
		SET status = 'REVERSED', reversing_entry_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE company_id = $1 AND entry_id = $2;
	`
	if _, err := tx.Exec(ctx, linkQuery, companyID, originalEntryID, posted.EntryID, now, userID); err != nil {
		return nil, fmt.Errorf("failed to mark entry %s reversed: %w", originalEntryID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	return posted, nil
}

// FindEntryByID retrieves an entry header by its ID within a company.
func (r *PgxEntryRepository) FindEntryByID(ctx context.Context, companyID string, entryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE company_id = $1 AND entry_id = $2;
	`
	m, err := scanEntryRow(r.Pool.QueryRow(ctx, query, companyID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry by ID %s: %w", entryID, err)
	}

	entry := mapping.ToDomainJournalEntry(m)
	return &entry, nil
}

func (r *PgxEntryRepository) findLinesByEntryIDTx(ctx context.Context, tx pgx.Tx, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY line_index ASC;
	`
	rows, err := tx.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for entry %s: %w", entryID, err)
	}
	defer rows.Close()

	return collectLines(rows, entryID)
}

// FindLinesByEntryID retrieves all lines of a single entry in LineIndex order.
func (r *PgxEntryRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY line_index ASC;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for entry %s: %w", entryID, err)
	}
	defer rows.Close()

	return collectLines(rows, entryID)
}

func collectLines(rows pgx.Rows, entryID string) ([]domain.JournalLine, error) {
	lines := make([]models.JournalLine, 0)
	for rows.Next() {
		m, err := scanLineRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line row for entry %s: %w", entryID, err)
		}
		lines = append(lines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows for entry %s: %w", entryID, err)
	}
	return mapping.ToDomainJournalLineSlice(lines), nil
}

// FindLinesByEntryIDs retrieves lines for multiple entries, grouped by entry ID.
func (r *PgxEntryRepository) FindLinesByEntryIDs(ctx context.Context, entryIDs []string) (map[string][]domain.JournalLine, error) {
	if len(entryIDs) == 0 {
		return map[string][]domain.JournalLine{}, nil
	}

	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_index ASC;
	`
	rows, err := r.Pool.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines by entry IDs: %w", err)
	}
	defer rows.Close()

	linesMap := make(map[string][]domain.JournalLine)
	for rows.Next() {
		m, err := scanLineRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line row: %w", err)
		}
		linesMap[m.EntryID] = append(linesMap[m.EntryID], mapping.ToDomainJournalLine(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows: %w", err)
	}

	return linesMap, nil
}

// ListEntries retrieves a paginated list of entries for a company using token-based pagination.
// It returns the entries, a token for the next page (if any), and an error.
func (r *PgxEntryRepository) ListEntries(ctx context.Context, companyID string, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	// Default limit handling
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + entryColumns + `
		FROM journal_entries
	`
	// Conditionally exclude reversed and reversing entries
	filterClause := `WHERE company_id = $1`
	if !includeReversals {
		filterClause += ` AND status != 'REVERSED' AND reversing_entry_id IS NULL AND original_entry_id IS NULL`
	}

	// Ordering must be stable; created_at breaks entry_date ties.
	orderByClause := `ORDER BY entry_date DESC, created_at DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{companyID}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		// Tuple comparison is concise and efficient in Postgres
		cursorClause := `AND (entry_date, created_at) < ($2, $3)`
		args = append(args, lastDate, lastCreatedAt)

		query := baseQuery + " " + filterClause + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}

	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query entries for company "+companyID, err)
	}
	defer rows.Close()

	entries := make([]models.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanEntryRow(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan entry row for company "+companyID, scanErr)
		}
		entries = append(entries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating entry rows for company "+companyID, err)
	}

	// Determine the next token
	var nextTokenVal *string
	if len(entries) > limit {
		// The token points to the last item included in this response page.
		last := entries[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		nextTokenVal = &token
		entries = entries[:limit]
	}

	results := make([]domain.JournalEntry, len(entries))
	for i, m := range entries {
		results[i] = mapping.ToDomainJournalEntry(m)
	}
	return results, nextTokenVal, nil
}

// ListPostedEntriesWithLines retrieves every POSTED and REVERSED entry of a
// company in chain-sequence order, lines populated.
func (r *PgxEntryRepository) ListPostedEntriesWithLines(ctx context.Context, companyID string) ([]domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE company_id = $1 AND chain_sequence IS NOT NULL
		ORDER BY chain_sequence ASC;
	`
	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query posted entries for company %s: %w", companyID, err)
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0)
	entryIDs := make([]string, 0)
	for rows.Next() {
		m, scanErr := scanEntryRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan posted entry row: %w", scanErr)
		}
		entries = append(entries, mapping.ToDomainJournalEntry(m))
		entryIDs = append(entryIDs, m.EntryID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posted entry rows: %w", err)
	}

	linesMap, err := r.FindLinesByEntryIDs(ctx, entryIDs)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Lines = linesMap[entries[i].EntryID]
	}

	return entries, nil
}

package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fincore-erp/fincore/internal/apperrors"
	"github.com/fincore-erp/fincore/internal/core/domain"
	portsrepo "github.com/fincore-erp/fincore/internal/core/ports/repositories"
	"github.com/fincore-erp/fincore/internal/models"
	"github.com/fincore-erp/fincore/internal/utils/mapping"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `payment_id, company_id, partner_id, amount, currency_code, payment_date, status, kind, journal_entry_id, created_at, created_by, last_updated_at, last_updated_by`

const allocationColumns = `allocation_id, payment_id, document_id, amount, write_off_amount, created_at, created_by, last_updated_at, last_updated_by`

type PgxPaymentRepository struct {
	BaseRepository
	documentRepo portsrepo.DocumentRepositoryFacade
	entryRepo    *PgxEntryRepository
}

// newPgxPaymentRepository creates a new repository for payment data. The
// entry repository posts the GL entries of an allocation inside the same
// transaction.
func newPgxPaymentRepository(pool *pgxpool.Pool, documentRepo portsrepo.DocumentRepositoryFacade, entryRepo *PgxEntryRepository) portsrepo.PaymentRepositoryWithTx {
	return &PgxPaymentRepository{
		BaseRepository: BaseRepository{Pool: pool},
		documentRepo:   documentRepo,
		entryRepo:      entryRepo,
	}
}

// Ensure PgxPaymentRepository implements the facade
var _ portsrepo.PaymentRepositoryWithTx = (*PgxPaymentRepository)(nil)

func scanPaymentRow(row pgx.Row) (models.Payment, error) {
	var m models.Payment
	err := row.Scan(
		&m.PaymentID,
		&m.CompanyID,
		&m.PartnerID,
		&m.Amount,
		&m.CurrencyCode,
		&m.PaymentDate,
		&m.Status,
		&m.Kind,
		&m.JournalEntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func scanAllocationRow(row pgx.Row) (models.PaymentAllocation, error) {
	var m models.PaymentAllocation
	err := row.Scan(
		&m.AllocationID,
		&m.PaymentID,
		&m.DocumentID,
		&m.Amount,
		&m.WriteOffAmount,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// FindPaymentByID retrieves a payment by its ID within a company.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, companyID string, paymentID string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE company_id = $1 AND payment_id = $2;
	`
	m, err := scanPaymentRow(r.Pool.QueryRow(ctx, query, companyID, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment by ID %s: %w", paymentID, err)
	}

	payment := mapping.ToDomainPayment(m)
	return &payment, nil
}

func (r *PgxPaymentRepository) findAllocations(ctx context.Context, whereColumn string, id string) ([]domain.PaymentAllocation, error) {
	query := `
		SELECT ` + allocationColumns + `
		FROM payment_allocations
		WHERE ` + whereColumn + ` = $1
		ORDER BY created_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations for %s %s: %w", whereColumn, id, err)
	}
	defer rows.Close()

	allocations := make([]models.PaymentAllocation, 0)
	for rows.Next() {
		m, err := scanAllocationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation row: %w", err)
		}
		allocations = append(allocations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation rows: %w", err)
	}
	return mapping.ToDomainPaymentAllocationSlice(allocations), nil
}

// FindAllocationsByPaymentID retrieves all allocations recorded for a payment.
func (r *PgxPaymentRepository) FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error) {
	return r.findAllocations(ctx, "payment_id", paymentID)
}

// FindAllocationsByDocumentID retrieves all allocations recorded against a document.
func (r *PgxPaymentRepository) FindAllocationsByDocumentID(ctx context.Context, documentID string) ([]domain.PaymentAllocation, error) {
	return r.findAllocations(ctx, "document_id", documentID)
}

// SavePayment persists a new payment.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.Pool.Exec(ctx, query,
		payment.PaymentID,
		payment.CompanyID,
		payment.PartnerID,
		payment.Amount,
		payment.CurrencyCode,
		payment.PaymentDate,
		string(payment.Status),
		string(payment.Kind),
		payment.JournalEntryID,
		payment.CreatedAt,
		payment.CreatedBy,
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save payment %s: %w", payment.PaymentID, err)
	}
	return nil
}

// ApplyAllocationPlan executes an allocation plan in one transaction. The
// plan was computed outside the transaction, so document balances are
// re-checked under lock and any drift aborts with a conflict.
func (r *PgxPaymentRepository) ApplyAllocationPlan(ctx context.Context, plan domain.AllocationPlan, glEntries []domain.PreparedEntry, userID string, now time.Time) (*domain.AllocationResult, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	// 1. Lock the payment and re-check its state inside the transaction.
	paymentQuery := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE company_id = $1 AND payment_id = $2
		FOR UPDATE;
	`
	m, err := scanPaymentRow(tx.QueryRow(ctx, paymentQuery, plan.CompanyID, plan.PaymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock payment %s: %w", plan.PaymentID, err)
	}
	if m.Status != string(domain.PaymentCompleted) {
		return nil, fmt.Errorf("%w: payment %s is %s, only COMPLETED payments can be allocated", apperrors.ErrConflict, plan.PaymentID, m.Status)
	}

	var existing int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM payment_allocations WHERE payment_id = $1;`, plan.PaymentID).Scan(&existing); err != nil {
		return nil, fmt.Errorf("failed to count allocations for payment %s: %w", plan.PaymentID, err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: payment %s already has allocations", apperrors.ErrConflict, plan.PaymentID)
	}

	// 2. Lock the planned documents and verify their balances still match
	// what the plan was computed against.
	documentIDs := make([]string, 0, len(plan.Lines))
	for _, line := range plan.Lines {
		documentIDs = append(documentIDs, line.DocumentID)
	}
	lockedDocs, err := r.documentRepo.FindDocumentsByIDsForUpdate(ctx, tx, plan.CompanyID, documentIDs)
	if err != nil {
		return nil, err
	}
	for _, line := range plan.Lines {
		doc := lockedDocs[line.DocumentID]
		if !doc.BalanceDue.Equal(line.DocumentBalance) {
			return nil, fmt.Errorf("%w: balance of document %s changed from %s to %s since the plan was computed",
				apperrors.ErrConflict, line.DocumentID,
				line.DocumentBalance.StringFixed(domain.MoneyScale), doc.BalanceDue.StringFixed(domain.MoneyScale))
		}
	}

	// 3. Insert the allocations and settle the documents.
	allocations := make([]domain.PaymentAllocation, 0, len(plan.Lines))
	allocationQuery := `
		INSERT INTO payment_allocations (` + allocationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	settleQuery := `
		UPDATE documents
		SET balance_due = $3, status = $4, last_updated_at = $5, last_updated_by = $6
		WHERE company_id = $1 AND document_id = $2;
	`
	for _, line := range plan.Lines {
		allocation := domain.PaymentAllocation{
			AllocationID:   uuid.NewString(),
			PaymentID:      plan.PaymentID,
			DocumentID:     line.DocumentID,
			Amount:         line.Amount,
			WriteOffAmount: line.WriteOffAmount,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if _, err := tx.Exec(ctx, allocationQuery,
			allocation.AllocationID,
			allocation.PaymentID,
			allocation.DocumentID,
			allocation.Amount,
			allocation.WriteOffAmount,
			now, userID, now, userID,
		); err != nil {
			return nil, fmt.Errorf("failed to insert allocation for document %s: %w", line.DocumentID, err)
		}
		allocations = append(allocations, allocation)

		newBalance := line.DocumentBalance.Sub(line.Amount).Sub(line.WriteOffAmount)
		status := domain.DocPartiallyPaid
		if newBalance.IsZero() {
			status = domain.DocPaid
		}
		if _, err := tx.Exec(ctx, settleQuery, plan.CompanyID, line.DocumentID, newBalance, string(status), now, userID); err != nil {
			return nil, fmt.Errorf("failed to settle document %s: %w", line.DocumentID, err)
		}
	}

	// 4. Post the prepared GL entries under the journal chain lock.
	if err := acquireChainLockTx(ctx, tx, plan.CompanyID, journalChainScope); err != nil {
		return nil, err
	}

	result := domain.AllocationResult{
		Plan:        plan,
		Allocations: allocations,
		PaymentKind: domain.PaymentStandard,
	}
	if plan.TotalAllocated.IsZero() && plan.Excess.IsPositive() {
		result.PaymentKind = domain.PaymentAdvance
	}

	for _, prepared := range glEntries {
		posted, err := r.entryRepo.insertPostedEntryTx(ctx, tx, prepared, userID, now)
		if err != nil {
			return nil, err
		}
		entryID := posted.EntryID
		switch posted.SourceType {
		case domain.SourcePayment:
			result.PaymentEntryID = &entryID
		case domain.SourceWriteOff:
			result.WriteOffEntryID = &entryID
		case domain.SourceAdvance:
			result.AdvanceEntryID = &entryID
		}
	}

	// 5. Link the payment to its receipt entry. An advance-only payment
	// links to the advance entry instead.
	receiptEntryID := result.PaymentEntryID
	if receiptEntryID == nil {
		receiptEntryID = result.AdvanceEntryID
	}
	linkQuery := `
		UPDATE payments
		SET journal_entry_id = $3, kind = $4, last_updated_at = $5, last_updated_by = $6
		WHERE company_id = $1 AND payment_id = $2;
	`
	if _, err := tx.Exec(ctx, linkQuery, plan.CompanyID, plan.PaymentID, receiptEntryID, string(result.PaymentKind), now, userID); err != nil {
		return nil, fmt.Errorf("failed to link payment %s to its receipt entry: %w", plan.PaymentID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	return &result, nil
}

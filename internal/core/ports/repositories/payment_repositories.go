package repositories

import (
	"context"
	"time"

	"github.com/fincore-erp/fincore/internal/core/domain"
)

// PaymentReader defines read operations for payment data
type PaymentReader interface {
	// FindPaymentByID retrieves a specific payment by its unique identifier within a company.
	FindPaymentByID(ctx context.Context, companyID string, paymentID string) (*domain.Payment, error)

	// FindAllocationsByPaymentID retrieves all allocations recorded for a payment.
	FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error)

	// FindAllocationsByDocumentID retrieves all allocations recorded against a document.
	FindAllocationsByDocumentID(ctx context.Context, documentID string) ([]domain.PaymentAllocation, error)
}

// PaymentWriter defines write operations for payment data
type PaymentWriter interface {
	// SavePayment persists a new payment.
	SavePayment(ctx context.Context, payment domain.Payment) error

	// ApplyAllocationPlan executes an allocation plan in one transaction:
	// it locks the payment and the planned documents, verifies their balances
	// still match the plan (aborting with a conflict on drift), inserts the
	// allocations, updates document balances and statuses, posts the prepared
	// GL entries under the journal chain lock, and links the payment to its
	// receipt entry. Prepared entries are matched by source type (PAYMENT,
	// WRITEOFF, ADVANCE).
	ApplyAllocationPlan(ctx context.Context, plan domain.AllocationPlan, glEntries []domain.PreparedEntry, userID string, now time.Time) (*domain.AllocationResult, error)
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
// This is a facade for clients that need access to all operations
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}

// PaymentRepositoryWithTx extends PaymentRepositoryFacade with transaction capabilities
type PaymentRepositoryWithTx interface {
	PaymentRepositoryFacade
	TransactionManager
}

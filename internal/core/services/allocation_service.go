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
	ErrPaymentNotCompleted  = errors.New("payment is not in COMPLETED status")
	ErrPaymentAllocated     = errors.New("payment already has allocations")
	ErrManualLinesRequired  = errors.New("manual strategy requires allocation lines")
	ErrManualLinesForbidden = errors.New("allocation lines are only valid with the manual strategy")
	ErrManualOverAllocation = errors.New("manual amount exceeds document balance")
	ErrManualOverPayment    = errors.New("manual amounts exceed the payment amount")
)

// allocationService computes and applies payment allocation plans.
// Preview is pure; Apply recomputes the plan and hands it to the payment
// repository for transactional execution.
type allocationService struct {
	paymentRepo  portsrepo.PaymentRepositoryFacade
	documentRepo portsrepo.DocumentRepositoryFacade
	accountRepo  portsrepo.AccountRepositoryFacade
	toleranceSvc portssvc.ToleranceSvc
}

// NewAllocationService creates a new AllocationService.
func NewAllocationService(paymentRepo portsrepo.PaymentRepositoryFacade, documentRepo portsrepo.DocumentRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, toleranceSvc portssvc.ToleranceSvc) portssvc.AllocationSvcFacade {
	return &allocationService{
		paymentRepo:  paymentRepo,
		documentRepo: documentRepo,
		accountRepo:  accountRepo,
		toleranceSvc: toleranceSvc,
	}
}

var _ portssvc.AllocationSvcFacade = (*allocationService)(nil)

// PreviewAllocation computes an allocation plan without side effects.
func (s *allocationService) PreviewAllocation(ctx context.Context, companyID string, req dto.AllocationRequest) (*domain.AllocationPlan, error) {
	payment, err := s.loadAllocatablePayment(ctx, companyID, req.PaymentID)
	if err != nil {
		return nil, err
	}
	return s.buildPlan(ctx, companyID, payment, req)
}

// ApplyAllocation recomputes the plan, prepares the GL entries it implies,
// and executes everything in one repository transaction.
func (s *allocationService) ApplyAllocation(ctx context.Context, companyID string, req dto.AllocationRequest, userID string) (*domain.AllocationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now()

	payment, err := s.loadAllocatablePayment(ctx, companyID, req.PaymentID)
	if err != nil {
		return nil, err
	}

	plan, err := s.buildPlan(ctx, companyID, payment, req)
	if err != nil {
		return nil, err
	}

	glEntries, err := s.prepareGLEntries(ctx, companyID, payment, plan, userID, now)
	if err != nil {
		return nil, err
	}

	result, err := s.paymentRepo.ApplyAllocationPlan(ctx, *plan, glEntries, userID, now)
	if err != nil {
		logger.Error("Failed to apply allocation plan",
			slog.String("payment_id", req.PaymentID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	logger.Info("Allocation applied",
		slog.String("payment_id", req.PaymentID),
		slog.String("strategy", string(plan.Strategy)),
		slog.Int("documents", len(plan.Lines)),
		slog.String("allocated", plan.TotalAllocated.StringFixed(domain.MoneyScale)),
		slog.String("excess", plan.Excess.StringFixed(domain.MoneyScale)),
		slog.String("payment_kind", string(result.PaymentKind)),
	)
	return result, nil
}

// loadAllocatablePayment fetches the payment and rejects anything that is
// not COMPLETED or that already carries allocations.
func (s *allocationService) loadAllocatablePayment(ctx context.Context, companyID string, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, companyID, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("payment %s not found", paymentID))
		}
		return nil, fmt.Errorf("failed to load payment %s: %w", paymentID, err)
	}
	if payment.Status != domain.PaymentCompleted {
		return nil, apperrors.NewAppError(http.StatusConflict,
			fmt.Sprintf("payment %s has status %s: %v", paymentID, payment.Status, ErrPaymentNotCompleted), apperrors.ErrConflict)
	}

	existing, err := s.paymentRepo.FindAllocationsByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations for payment %s: %w", paymentID, err)
	}
	if len(existing) > 0 {
		return nil, apperrors.NewAppError(http.StatusConflict,
			fmt.Sprintf("payment %s: %v", paymentID, ErrPaymentAllocated), apperrors.ErrConflict)
	}
	return payment, nil
}

func (s *allocationService) buildPlan(ctx context.Context, companyID string, payment *domain.Payment, req dto.AllocationRequest) (*domain.AllocationPlan, error) {
	if !req.Strategy.IsValid() {
		return nil, apperrors.NewAppError(http.StatusBadRequest,
			fmt.Sprintf("unknown allocation strategy %q", req.Strategy), apperrors.ErrValidation)
	}

	if req.Strategy == domain.StrategyManual {
		if len(req.ManualLines) == 0 {
			return nil, apperrors.NewAppError(http.StatusBadRequest, ErrManualLinesRequired.Error(), apperrors.ErrValidation)
		}
		return s.buildManualPlan(ctx, companyID, payment, req.ManualLines)
	}
	if len(req.ManualLines) > 0 {
		return nil, apperrors.NewAppError(http.StatusBadRequest, ErrManualLinesForbidden.Error(), apperrors.ErrValidation)
	}
	return s.buildOrderedPlan(ctx, companyID, payment, req.Strategy)
}

// buildOrderedPlan walks the partner's open documents in strategy order.
// A qualifying tolerance mismatch is terminal: it settles its document and
// ends the run. Exact and partial coverage continue down the list.
func (s *allocationService) buildOrderedPlan(ctx context.Context, companyID string, payment *domain.Payment, strategy domain.AllocationStrategy) (*domain.AllocationPlan, error) {
	settings, err := s.toleranceSvc.ResolveSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}

	documents, err := s.documentRepo.ListOpenDocumentsByPartner(ctx, companyID, payment.PartnerID, strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to list open documents for partner %s: %w", payment.PartnerID, err)
	}

	plan := domain.AllocationPlan{
		PaymentID:      payment.PaymentID,
		CompanyID:      companyID,
		Strategy:       strategy,
		PaymentAmount:  payment.Amount,
		TotalAllocated: decimal.Zero,
		TotalWriteOff:  decimal.Zero,
		ExcessHandling: domain.ExcessNone,
	}

	remaining := payment.Amount
	toleranceTerminal := false
	for _, doc := range documents {
		if remaining.IsZero() {
			break
		}

		check := s.toleranceSvc.Check(settings, doc.BalanceDue, remaining)
		line := domain.AllocationPlanLine{
			DocumentID:      doc.DocumentID,
			DocumentNumber:  doc.DocumentNumber,
			DocumentBalance: doc.BalanceDue,
		}

		if check.Qualifies && !check.Difference.IsZero() {
			line.ToleranceApplied = true
			line.ToleranceReason = check.Reason
			if check.Classification == domain.Overpayment {
				// Settle the document with its full balance; the surplus
				// stays at payment level as a tolerance write-off.
				line.Amount = doc.BalanceDue
				remaining = remaining.Sub(doc.BalanceDue)
				toleranceTerminal = true
			} else {
				// Forgive the shortfall so the document still closes.
				line.Amount = remaining
				line.WriteOffAmount = doc.BalanceDue.Sub(remaining)
				remaining = decimal.Zero
			}
			plan.Lines = append(plan.Lines, line)
			break
		}

		allocated := decimal.Min(remaining, doc.BalanceDue)
		line.Amount = allocated
		remaining = remaining.Sub(allocated)
		plan.Lines = append(plan.Lines, line)
	}

	for _, line := range plan.Lines {
		plan.TotalAllocated = plan.TotalAllocated.Add(line.Amount)
		plan.TotalWriteOff = plan.TotalWriteOff.Add(line.WriteOffAmount)
	}
	plan.Excess = remaining
	switch {
	case toleranceTerminal && remaining.IsPositive():
		plan.ExcessHandling = domain.ExcessToleranceWriteoff
	case remaining.IsPositive():
		plan.ExcessHandling = domain.ExcessCreditBalance
	}
	return &plan, nil
}

// buildManualPlan validates caller-chosen pairs. Manual allocation never
// applies tolerance and never exceeds a document's balance.
func (s *allocationService) buildManualPlan(ctx context.Context, companyID string, payment *domain.Payment, manualLines []dto.ManualAllocationLine) (*domain.AllocationPlan, error) {
	plan := domain.AllocationPlan{
		PaymentID:      payment.PaymentID,
		CompanyID:      companyID,
		Strategy:       domain.StrategyManual,
		PaymentAmount:  payment.Amount,
		TotalAllocated: decimal.Zero,
		TotalWriteOff:  decimal.Zero,
		ExcessHandling: domain.ExcessNone,
	}

	total := decimal.Zero
	seen := make(map[string]struct{}, len(manualLines))
	for _, manual := range manualLines {
		if !manual.Amount.IsPositive() || !manual.Amount.Equal(manual.Amount.Round(domain.MoneyScale)) {
			return nil, apperrors.NewAppError(http.StatusBadRequest,
				fmt.Sprintf("invalid allocation amount %s for document %s", manual.Amount.String(), manual.DocumentID), apperrors.ErrValidation)
		}
		if _, dup := seen[manual.DocumentID]; dup {
			return nil, apperrors.NewAppError(http.StatusBadRequest,
				fmt.Sprintf("document %s appears more than once", manual.DocumentID), apperrors.ErrValidation)
		}
		seen[manual.DocumentID] = struct{}{}

		doc, err := s.documentRepo.FindDocumentByID(ctx, companyID, manual.DocumentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewNotFoundError(fmt.Sprintf("document %s not found", manual.DocumentID))
			}
			return nil, fmt.Errorf("failed to load document %s: %w", manual.DocumentID, err)
		}
		if doc.PartnerID != payment.PartnerID {
			return nil, apperrors.NewAppError(http.StatusBadRequest,
				fmt.Sprintf("document %s belongs to a different partner", manual.DocumentID), apperrors.ErrValidation)
		}
		if doc.Status == domain.DocPaid {
			return nil, apperrors.NewAppError(http.StatusConflict,
				fmt.Sprintf("document %s is already settled", manual.DocumentID), apperrors.ErrConflict)
		}
		if manual.Amount.GreaterThan(doc.BalanceDue) {
			return nil, apperrors.NewAppError(http.StatusBadRequest,
				fmt.Sprintf("document %s: %v (%s > %s)", manual.DocumentID, ErrManualOverAllocation,
					manual.Amount.StringFixed(domain.MoneyScale), doc.BalanceDue.StringFixed(domain.MoneyScale)), apperrors.ErrValidation)
		}

		plan.Lines = append(plan.Lines, domain.AllocationPlanLine{
			DocumentID:      doc.DocumentID,
			DocumentNumber:  doc.DocumentNumber,
			DocumentBalance: doc.BalanceDue,
			Amount:          manual.Amount,
		})
		total = total.Add(manual.Amount)
	}

	if total.GreaterThan(payment.Amount) {
		return nil, apperrors.NewAppError(http.StatusBadRequest,
			fmt.Sprintf("%v (%s > %s)", ErrManualOverPayment,
				total.StringFixed(domain.MoneyScale), payment.Amount.StringFixed(domain.MoneyScale)), apperrors.ErrValidation)
	}

	plan.TotalAllocated = total
	plan.Excess = payment.Amount.Sub(total)
	if plan.Excess.IsPositive() {
		plan.ExcessHandling = domain.ExcessCreditBalance
	}
	return &plan, nil
}

// prepareGLEntries builds the draft entries an allocation plan implies:
// a consolidated receipt entry for the allocated amount, a write-off entry
// for a qualifying tolerance difference, and an advance entry for a
// remainder banked as customer credit.
func (s *allocationService) prepareGLEntries(ctx context.Context, companyID string, payment *domain.Payment, plan *domain.AllocationPlan, userID string, now time.Time) ([]domain.PreparedEntry, error) {
	var entries []domain.PreparedEntry

	if plan.TotalAllocated.IsPositive() {
		entry, err := s.prepareEntry(ctx, companyID, payment, userID, now,
			domain.SourcePayment, fmt.Sprintf("Payment %s", payment.PaymentID),
			[]templateLeg{
				{purpose: domain.PurposeCash, amount: plan.TotalAllocated, isDebit: true},
				{purpose: domain.PurposeAccountsReceivable, amount: plan.TotalAllocated, isDebit: false},
			})
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if plan.TotalWriteOff.IsPositive() {
		entry, err := s.prepareEntry(ctx, companyID, payment, userID, now,
			domain.SourceWriteOff, fmt.Sprintf("Underpayment write-off for payment %s", payment.PaymentID),
			[]templateLeg{
				{purpose: domain.PurposePaymentWriteOff, amount: plan.TotalWriteOff, isDebit: true},
				{purpose: domain.PurposeAccountsReceivable, amount: plan.TotalWriteOff, isDebit: false},
			})
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if plan.Excess.IsPositive() {
		switch plan.ExcessHandling {
		case domain.ExcessToleranceWriteoff:
			entry, err := s.prepareEntry(ctx, companyID, payment, userID, now,
				domain.SourceWriteOff, fmt.Sprintf("Overpayment write-off for payment %s", payment.PaymentID),
				[]templateLeg{
					{purpose: domain.PurposeCash, amount: plan.Excess, isDebit: true},
					{purpose: domain.PurposePaymentWriteOff, amount: plan.Excess, isDebit: false},
				})
			if err != nil {
				return nil, err
			}
			entries = append(entries, *entry)
		case domain.ExcessCreditBalance:
			entry, err := s.prepareEntry(ctx, companyID, payment, userID, now,
				domain.SourceAdvance, fmt.Sprintf("Customer advance from payment %s", payment.PaymentID),
				[]templateLeg{
					{purpose: domain.PurposeCash, amount: plan.Excess, isDebit: true},
					{purpose: domain.PurposeCustomerAdvances, amount: plan.Excess, isDebit: false},
				})
			if err != nil {
				return nil, err
			}
			entries = append(entries, *entry)
		}
	}

	return entries, nil
}

func (s *allocationService) prepareEntry(ctx context.Context, companyID string, payment *domain.Payment, userID string, now time.Time, sourceType domain.SourceType, description string, legs []templateLeg) (*domain.PreparedEntry, error) {
	entryID := uuid.NewString()
	lines := make([]domain.JournalLine, 0, len(legs))
	accountTypes := make(map[string]domain.AccountType, len(legs))

	for i, leg := range legs {
		account, err := s.accountRepo.FindAccountByPurpose(ctx, companyID, leg.purpose)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewAppError(http.StatusBadRequest,
					fmt.Sprintf("company %s has no account with purpose %s", companyID, leg.purpose), apperrors.ErrValidation)
			}
			return nil, fmt.Errorf("failed to resolve %s account: %w", leg.purpose, err)
		}
		accountTypes[account.AccountID] = account.AccountType

		line := domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     entryID,
			AccountID:   account.AccountID,
			Description: description,
			LineIndex:   i,
			PartnerID:   &payment.PartnerID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if leg.isDebit {
			line.Debit = leg.amount
		} else {
			line.Credit = leg.amount
		}
		lines = append(lines, line)
	}

	balanceChanges, err := accounting.BalanceChanges(lines, accountTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance changes: %w", err)
	}

	sourceID := payment.PaymentID
	return &domain.PreparedEntry{
		Entry: domain.JournalEntry{
			EntryID:     entryID,
			CompanyID:   companyID,
			EntryDate:   payment.PaymentDate,
			Description: description,
			Status:      domain.Draft,
			SourceType:  sourceType,
			SourceID:    &sourceID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		},
		Lines:          lines,
		BalanceChanges: balanceChanges,
	}, nil
}

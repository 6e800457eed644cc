package services

import (
	"context"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/fincore-erp/fincore/internal/dto"
)

// AllocationSvcFacade runs the two-phase payment allocation flow.
type AllocationSvcFacade interface {
	// PreviewAllocation computes an allocation plan without side effects.
	// The same inputs always yield the same plan.
	PreviewAllocation(ctx context.Context, companyID string, req dto.AllocationRequest) (*domain.AllocationPlan, error)

	// ApplyAllocation recomputes the plan and executes it transactionally:
	// allocations, document balances, write-off and receipt GL entries, and
	// the payment's advance classification.
	ApplyAllocation(ctx context.Context, companyID string, req dto.AllocationRequest, userID string) (*domain.AllocationResult, error)
}

package dto

import (
	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ManualAllocationLine is one caller-chosen (document, amount) pair for
// the MANUAL strategy.
type ManualAllocationLine struct {
	DocumentID string          `json:"documentID" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// AllocationRequest drives both the preview and the apply phase.
// ManualLines is required for the MANUAL strategy and rejected otherwise.
type AllocationRequest struct {
	PaymentID   string                    `json:"paymentID" binding:"required"`
	Strategy    domain.AllocationStrategy `json:"strategy" binding:"required,allocationstrategy"`
	ManualLines []ManualAllocationLine    `json:"manualLines,omitempty" binding:"omitempty,dive"`
}

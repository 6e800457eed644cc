package services

import (
	"context"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ToleranceSvc resolves effective payment tolerance settings and evaluates
// payment/invoice mismatches against them.
type ToleranceSvc interface {
	// ResolveSettings returns the effective settings for a company after the
	// company -> country -> system default resolution, applied per field.
	ResolveSettings(ctx context.Context, companyID string) (domain.ToleranceSettings, error)

	// Check evaluates a payment amount against an invoice amount under the
	// given settings. Boundaries are inclusive on both the percentage
	// threshold and the absolute cap.
	Check(settings domain.ToleranceSettings, invoiceAmount decimal.Decimal, paymentAmount decimal.Decimal) domain.ToleranceCheck
}

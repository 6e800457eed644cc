package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fincore-erp/fincore/internal/apperrors"
	"github.com/fincore-erp/fincore/internal/core/domain"
	portsrepo "github.com/fincore-erp/fincore/internal/core/ports/repositories"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
	"github.com/fincore-erp/fincore/internal/middleware"
	"github.com/shopspring/decimal"
)

// System-wide tolerance defaults, used when neither the company nor its
// country configures a value.
var (
	defaultTolerancePercent   = decimal.RequireFromString("0.5")
	defaultMaxToleranceAmount = decimal.RequireFromString("0.50")
)

const defaultToleranceEnabled = true

// toleranceService resolves effective tolerance settings per company and
// evaluates payment mismatches against them.
type toleranceService struct {
	settingsRepo portsrepo.SettingsRepositoryFacade
}

// NewToleranceService creates a new ToleranceService.
func NewToleranceService(settingsRepo portsrepo.SettingsRepositoryFacade) portssvc.ToleranceSvc {
	return &toleranceService{settingsRepo: settingsRepo}
}

var _ portssvc.ToleranceSvc = (*toleranceService)(nil)

// ResolveSettings applies the company -> country -> system default fallback
// independently per field. Source records the level that supplied the
// percentage threshold.
func (s *toleranceService) ResolveSettings(ctx context.Context, companyID string) (domain.ToleranceSettings, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	company, err := s.settingsRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.ToleranceSettings{}, apperrors.NewNotFoundError(fmt.Sprintf("company %s not found", companyID))
		}
		return domain.ToleranceSettings{}, fmt.Errorf("failed to load company %s: %w", companyID, err)
	}

	var country *domain.CountryPaymentSettings
	if company.CountryCode != "" {
		country, err = s.settingsRepo.FindCountrySettings(ctx, company.CountryCode)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return domain.ToleranceSettings{}, fmt.Errorf("failed to load country settings for %s: %w", company.CountryCode, err)
		}
	}

	settings := domain.ToleranceSettings{
		TolerancePercent:   defaultTolerancePercent,
		MaxToleranceAmount: defaultMaxToleranceAmount,
		Enabled:            defaultToleranceEnabled,
		Source:             domain.ToleranceFromSystem,
	}

	if country != nil {
		if country.TolerancePercent != nil {
			settings.TolerancePercent = *country.TolerancePercent
			settings.Source = domain.ToleranceFromCountry
		}
		if country.MaxToleranceAmount != nil {
			settings.MaxToleranceAmount = *country.MaxToleranceAmount
		}
		if country.Enabled != nil {
			settings.Enabled = *country.Enabled
		}
	}

	if company.TolerancePercent != nil {
		settings.TolerancePercent = *company.TolerancePercent
		settings.Source = domain.ToleranceFromCompany
	}
	if company.MaxToleranceAmount != nil {
		settings.MaxToleranceAmount = *company.MaxToleranceAmount
	}
	if company.ToleranceEnabled != nil {
		settings.Enabled = *company.ToleranceEnabled
	}

	logger.Debug("Resolved tolerance settings",
		slog.String("company_id", companyID),
		slog.String("source", string(settings.Source)),
		slog.String("percent", settings.TolerancePercent.String()),
		slog.String("max_amount", settings.MaxToleranceAmount.String()),
		slog.Bool("enabled", settings.Enabled),
	)
	return settings, nil
}

// Check evaluates paymentAmount against invoiceAmount. The percentage
// threshold is computed from the invoice amount; both it and the absolute
// cap are inclusive boundaries.
func (s *toleranceService) Check(settings domain.ToleranceSettings, invoiceAmount decimal.Decimal, paymentAmount decimal.Decimal) domain.ToleranceCheck {
	difference := paymentAmount.Sub(invoiceAmount)
	threshold := invoiceAmount.Abs().Mul(settings.TolerancePercent).Div(decimal.NewFromInt(100))

	check := domain.ToleranceCheck{
		Difference: difference,
		Threshold:  threshold,
	}

	if difference.IsZero() {
		check.Qualifies = true
		check.Reason = "payment matches invoice exactly"
		return check
	}

	if difference.IsPositive() {
		check.Classification = domain.Overpayment
	} else {
		check.Classification = domain.Underpayment
	}

	absDifference := difference.Abs()
	switch {
	case !settings.Enabled:
		check.Reason = "tolerance disabled"
	case absDifference.GreaterThan(threshold):
		check.Reason = fmt.Sprintf("difference %s exceeds threshold %s (%s%% of %s)",
			absDifference.StringFixed(domain.MoneyScale), threshold.String(),
			settings.TolerancePercent.String(), invoiceAmount.StringFixed(domain.MoneyScale))
	case absDifference.GreaterThan(settings.MaxToleranceAmount):
		check.Reason = fmt.Sprintf("difference %s exceeds absolute cap %s",
			absDifference.StringFixed(domain.MoneyScale), settings.MaxToleranceAmount.StringFixed(domain.MoneyScale))
	default:
		check.Qualifies = true
		check.Reason = fmt.Sprintf("%s of %s within threshold %s and cap %s (source %s)",
			string(check.Classification), absDifference.StringFixed(domain.MoneyScale),
			threshold.String(), settings.MaxToleranceAmount.StringFixed(domain.MoneyScale), string(settings.Source))
	}
	return check
}

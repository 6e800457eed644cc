package repositories

import (
	"context"

	"github.com/fincore-erp/fincore/internal/core/domain"
)

// CompanyReader defines read operations for the company read-side
type CompanyReader interface {
	// FindCompanyByID retrieves a company with its tolerance overrides.
	FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)
}

// CountrySettingsReader defines read operations for country-level payment settings
type CountrySettingsReader interface {
	// FindCountrySettings retrieves country defaults, or apperrors.ErrNotFound
	// when the country has none configured.
	FindCountrySettings(ctx context.Context, countryCode string) (*domain.CountryPaymentSettings, error)
}

// SettingsRepositoryFacade combines the settings read interfaces consumed
// by tolerance resolution
type SettingsRepositoryFacade interface {
	CompanyReader
	CountrySettingsReader
}

package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/fincore-erp/fincore/internal/apperrors"
	"github.com/fincore-erp/fincore/internal/core/domain"
	portsrepo "github.com/fincore-erp/fincore/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSettingsRepository struct {
	BaseRepository
}

// newPgxSettingsRepository creates a new repository for the company and
// country settings read-side.
func newPgxSettingsRepository(pool *pgxpool.Pool) portsrepo.SettingsRepositoryFacade {
	return &PgxSettingsRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxSettingsRepository implements the facade
var _ portsrepo.SettingsRepositoryFacade = (*PgxSettingsRepository)(nil)

// FindCompanyByID retrieves a company with its tolerance overrides.
func (r *PgxSettingsRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	query := `
		SELECT company_id, name, country_code, tolerance_percent, max_tolerance_amount, tolerance_enabled
		FROM companies
		WHERE company_id = $1;
	`
	var company domain.Company
	err := r.Pool.QueryRow(ctx, query, companyID).Scan(
		&company.CompanyID,
		&company.Name,
		&company.CountryCode,
		&company.TolerancePercent,
		&company.MaxToleranceAmount,
		&company.ToleranceEnabled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find company by ID %s: %w", companyID, err)
	}
	return &company, nil
}

// FindCountrySettings retrieves country defaults.
func (r *PgxSettingsRepository) FindCountrySettings(ctx context.Context, countryCode string) (*domain.CountryPaymentSettings, error) {
	query := `
		SELECT country_code, tolerance_percent, max_tolerance_amount, tolerance_enabled, created_at, created_by, last_updated_at, last_updated_by
		FROM country_payment_settings
		WHERE country_code = $1;
	`
	var settings domain.CountryPaymentSettings
	err := r.Pool.QueryRow(ctx, query, countryCode).Scan(
		&settings.CountryCode,
		&settings.TolerancePercent,
		&settings.MaxToleranceAmount,
		&settings.Enabled,
		&settings.CreatedAt,
		&settings.CreatedBy,
		&settings.LastUpdatedAt,
		&settings.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment settings for country %s: %w", countryCode, err)
	}
	return &settings, nil
}

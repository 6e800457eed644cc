package services_test

import (
	"context"
	"testing"

	"github.com/fincore-erp/fincore/internal/apperrors"
	"github.com/fincore-erp/fincore/internal/core/domain"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
	"github.com/fincore-erp/fincore/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ToleranceServiceTestSuite struct {
	suite.Suite
	mockSettingsRepo *MockSettingsRepository
	service          portssvc.ToleranceSvc
	companyID        string
}

func (suite *ToleranceServiceTestSuite) SetupTest() {
	suite.mockSettingsRepo = new(MockSettingsRepository)
	suite.service = services.NewToleranceService(suite.mockSettingsRepo)
	suite.companyID = uuid.NewString()
}

func (suite *ToleranceServiceTestSuite) dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	suite.Require().NoError(err)
	return d
}

func (suite *ToleranceServiceTestSuite) decPtr(s string) *decimal.Decimal {
	d := suite.dec(s)
	return &d
}

func boolPtr(b bool) *bool { return &b }

// --- ResolveSettings ---

func (suite *ToleranceServiceTestSuite) TestResolveSettings_SystemDefaults() {
	ctx := context.Background()
	suite.mockSettingsRepo.On("FindCompanyByID", ctx, suite.companyID).
		Return(&domain.Company{CompanyID: suite.companyID, CountryCode: "DE"}, nil).Once()
	suite.mockSettingsRepo.On("FindCountrySettings", ctx, "DE").
		Return(nil, apperrors.ErrNotFound).Once()

	settings, err := suite.service.ResolveSettings(ctx, suite.companyID)

	suite.Require().NoError(err)
	suite.True(settings.TolerancePercent.Equal(suite.dec("0.5")))
	suite.True(settings.MaxToleranceAmount.Equal(suite.dec("0.50")))
	suite.True(settings.Enabled)
	suite.Equal(domain.ToleranceFromSystem, settings.Source)
}

func (suite *ToleranceServiceTestSuite) TestResolveSettings_CountryFallback() {
	ctx := context.Background()
	suite.mockSettingsRepo.On("FindCompanyByID", ctx, suite.companyID).
		Return(&domain.Company{CompanyID: suite.companyID, CountryCode: "ES"}, nil).Once()
	suite.mockSettingsRepo.On("FindCountrySettings", ctx, "ES").
		Return(&domain.CountryPaymentSettings{
			CountryCode:        "ES",
			TolerancePercent:   suite.decPtr("1.0"),
			MaxToleranceAmount: suite.decPtr("2.00"),
		}, nil).Once()

	settings, err := suite.service.ResolveSettings(ctx, suite.companyID)

	suite.Require().NoError(err)
	suite.True(settings.TolerancePercent.Equal(suite.dec("1.0")))
	suite.True(settings.MaxToleranceAmount.Equal(suite.dec("2.00")))
	suite.True(settings.Enabled) // country did not set it, system default applies
	suite.Equal(domain.ToleranceFromCountry, settings.Source)
}

func (suite *ToleranceServiceTestSuite) TestResolveSettings_CompanyOverridesCountry() {
	ctx := context.Background()
	suite.mockSettingsRepo.On("FindCompanyByID", ctx, suite.companyID).
		Return(&domain.Company{
			CompanyID:        suite.companyID,
			CountryCode:      "ES",
			TolerancePercent: suite.decPtr("0.25"),
			ToleranceEnabled: boolPtr(false),
		}, nil).Once()
	suite.mockSettingsRepo.On("FindCountrySettings", ctx, "ES").
		Return(&domain.CountryPaymentSettings{
			CountryCode:        "ES",
			TolerancePercent:   suite.decPtr("1.0"),
			MaxToleranceAmount: suite.decPtr("2.00"),
		}, nil).Once()

	settings, err := suite.service.ResolveSettings(ctx, suite.companyID)

	suite.Require().NoError(err)
	suite.True(settings.TolerancePercent.Equal(suite.dec("0.25")))
	// resolution is per field: the cap still comes from the country level
	suite.True(settings.MaxToleranceAmount.Equal(suite.dec("2.00")))
	suite.False(settings.Enabled)
	suite.Equal(domain.ToleranceFromCompany, settings.Source)
}

func (suite *ToleranceServiceTestSuite) TestResolveSettings_CompanyNotFound() {
	ctx := context.Background()
	suite.mockSettingsRepo.On("FindCompanyByID", ctx, suite.companyID).
		Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ResolveSettings(ctx, suite.companyID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Check ---

func (suite *ToleranceServiceTestSuite) defaultSettings() domain.ToleranceSettings {
	return domain.ToleranceSettings{
		TolerancePercent:   suite.dec("0.5"),
		MaxToleranceAmount: suite.dec("0.50"),
		Enabled:            true,
		Source:             domain.ToleranceFromSystem,
	}
}

func (suite *ToleranceServiceTestSuite) TestCheck_ExactMatch() {
	check := suite.service.Check(suite.defaultSettings(), suite.dec("100.00"), suite.dec("100.00"))

	suite.True(check.Qualifies)
	suite.True(check.Difference.IsZero())
}

func (suite *ToleranceServiceTestSuite) TestCheck_OverpaymentWithinTolerance() {
	check := suite.service.Check(suite.defaultSettings(), suite.dec("100.00"), suite.dec("100.30"))

	suite.True(check.Qualifies)
	suite.Equal(domain.Overpayment, check.Classification)
	suite.True(check.Difference.Equal(suite.dec("0.30")))
}

func (suite *ToleranceServiceTestSuite) TestCheck_UnderpaymentWithinTolerance() {
	check := suite.service.Check(suite.defaultSettings(), suite.dec("100.00"), suite.dec("99.80"))

	suite.True(check.Qualifies)
	suite.Equal(domain.Underpayment, check.Classification)
	suite.True(check.Difference.Equal(suite.dec("-0.20")))
}

// Both boundaries are inclusive. With a 100.00 invoice the percentage
// threshold and the absolute cap coincide at 0.50.
func (suite *ToleranceServiceTestSuite) TestCheck_ExactlyAtBoundary() {
	check := suite.service.Check(suite.defaultSettings(), suite.dec("100.00"), suite.dec("100.50"))

	suite.True(check.Qualifies)
	suite.Equal(domain.Overpayment, check.Classification)
}

func (suite *ToleranceServiceTestSuite) TestCheck_JustPastBoundary() {
	check := suite.service.Check(suite.defaultSettings(), suite.dec("100.00"), suite.dec("100.51"))

	suite.False(check.Qualifies)
	suite.Equal(domain.Overpayment, check.Classification)
	suite.Contains(check.Reason, "exceeds")
}

// A large invoice widens the percentage threshold but the absolute cap
// still binds.
func (suite *ToleranceServiceTestSuite) TestCheck_CapBindsOnLargeInvoice() {
	check := suite.service.Check(suite.defaultSettings(), suite.dec("200.00"), suite.dec("200.75"))

	suite.False(check.Qualifies)
	suite.True(check.Threshold.Equal(suite.dec("1.00")))
	suite.Contains(check.Reason, "cap")
}

func (suite *ToleranceServiceTestSuite) TestCheck_Disabled() {
	settings := suite.defaultSettings()
	settings.Enabled = false

	check := suite.service.Check(settings, suite.dec("100.00"), suite.dec("100.10"))

	suite.False(check.Qualifies)
	suite.Equal("tolerance disabled", check.Reason)
}

func TestToleranceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ToleranceServiceTestSuite))
}

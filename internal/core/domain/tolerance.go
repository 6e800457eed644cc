package domain

import "github.com/shopspring/decimal"

// ToleranceSource records which level supplied an effective setting.
type ToleranceSource string

const (
	ToleranceFromCompany ToleranceSource = "COMPANY"
	ToleranceFromCountry ToleranceSource = "COUNTRY"
	ToleranceFromSystem  ToleranceSource = "SYSTEM"
)

// ToleranceSettings are the effective payment tolerance thresholds after
// the company -> country -> system default resolution.
type ToleranceSettings struct {
	TolerancePercent   decimal.Decimal `json:"tolerancePercent"`   // e.g. 0.5 means 0.5% of the invoice amount
	MaxToleranceAmount decimal.Decimal `json:"maxToleranceAmount"` // absolute cap in document currency
	Enabled            bool            `json:"enabled"`
	Source             ToleranceSource `json:"source"` // level that supplied the percent threshold
}

// MismatchKind classifies a qualifying payment/invoice difference.
type MismatchKind string

const (
	Overpayment  MismatchKind = "OVERPAYMENT"
	Underpayment MismatchKind = "UNDERPAYMENT"
)

// ToleranceCheck is the outcome of comparing a payment against an invoice
// amount. Reason is a human-readable audit string in both outcomes.
type ToleranceCheck struct {
	Qualifies      bool            `json:"qualifies"`
	Classification MismatchKind    `json:"classification"`
	Difference     decimal.Decimal `json:"difference"` // signed: payment - invoice
	Threshold      decimal.Decimal `json:"threshold"`  // effective percentage threshold for this invoice
	Reason         string          `json:"reason"`
}

// CountryPaymentSettings are country-level tolerance defaults.
type CountryPaymentSettings struct {
	CountryCode        string           `json:"countryCode"`
	TolerancePercent   *decimal.Decimal `json:"tolerancePercent,omitempty"`
	MaxToleranceAmount *decimal.Decimal `json:"maxToleranceAmount,omitempty"`
	Enabled            *bool            `json:"enabled,omitempty"`
	AuditFields
}

// Company is the tenant read-side consumed by the ledger core: country
// context plus optional tolerance overrides. Provisioning lives elsewhere.
type Company struct {
	CompanyID          string           `json:"companyID"`
	Name               string           `json:"name"`
	CountryCode        string           `json:"countryCode"`
	TolerancePercent   *decimal.Decimal `json:"tolerancePercent,omitempty"`
	MaxToleranceAmount *decimal.Decimal `json:"maxToleranceAmount,omitempty"`
	ToleranceEnabled   *bool            `json:"toleranceEnabled,omitempty"`
}

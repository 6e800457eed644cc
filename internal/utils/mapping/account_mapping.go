package mapping

import (
	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/fincore-erp/fincore/internal/models"
)

// ToModelAccount converts a domain Account to a model Account.
func ToModelAccount(d domain.Account) models.Account {
	var purpose *models.SystemPurpose
	if d.SystemPurpose != nil {
		p := models.SystemPurpose(*d.SystemPurpose)
		purpose = &p
	}
	return models.Account{
		AccountID:     d.AccountID,
		CompanyID:     d.CompanyID,
		Code:          d.Code,
		Name:          d.Name,
		AccountType:   models.AccountType(d.AccountType),
		SystemPurpose: purpose,
		IsActive:      d.IsActive,
		IsSystem:      d.IsSystem,
		AuditFields:   ToModelAuditFields(d.AuditFields),
		Balance:       d.Balance,
	}
}

// ToDomainAccount converts a model Account to a domain Account.
func ToDomainAccount(m models.Account) domain.Account {
	var purpose *domain.SystemPurpose
	if m.SystemPurpose != nil {
		p := domain.SystemPurpose(*m.SystemPurpose)
		purpose = &p
	}
	return domain.Account{
		AccountID:     m.AccountID,
		CompanyID:     m.CompanyID,
		Code:          m.Code,
		Name:          m.Name,
		AccountType:   domain.AccountType(m.AccountType),
		SystemPurpose: purpose,
		IsActive:      m.IsActive,
		IsSystem:      m.IsSystem,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
		Balance:       m.Balance,
	}
}

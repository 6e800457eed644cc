package mapping

import (
	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/fincore-erp/fincore/internal/models"
)

// ToDomainPayment converts a model Payment to a domain Payment.
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:      m.PaymentID,
		CompanyID:      m.CompanyID,
		PartnerID:      m.PartnerID,
		Amount:         m.Amount,
		CurrencyCode:   m.CurrencyCode,
		PaymentDate:    m.PaymentDate,
		Status:         domain.PaymentStatus(m.Status),
		Kind:           domain.PaymentKind(m.Kind),
		JournalEntryID: m.JournalEntryID,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelPaymentAllocation converts a domain allocation to its model counterpart.
func ToModelPaymentAllocation(d domain.PaymentAllocation) models.PaymentAllocation {
	return models.PaymentAllocation{
		AllocationID:   d.AllocationID,
		PaymentID:      d.PaymentID,
		DocumentID:     d.DocumentID,
		Amount:         d.Amount,
		WriteOffAmount: d.WriteOffAmount,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPaymentAllocation converts a model allocation to its domain counterpart.
func ToDomainPaymentAllocation(m models.PaymentAllocation) domain.PaymentAllocation {
	return domain.PaymentAllocation{
		AllocationID:   m.AllocationID,
		PaymentID:      m.PaymentID,
		DocumentID:     m.DocumentID,
		Amount:         m.Amount,
		WriteOffAmount: m.WriteOffAmount,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPaymentAllocationSlice converts model allocations to domain allocations.
func ToDomainPaymentAllocationSlice(ms []models.PaymentAllocation) []domain.PaymentAllocation {
	ds := make([]domain.PaymentAllocation, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPaymentAllocation(m)
	}
	return ds
}

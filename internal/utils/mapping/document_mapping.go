package mapping

import (
	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/fincore-erp/fincore/internal/models"
)

// ToDomainDocument converts a model Document to a domain Document.
func ToDomainDocument(m models.Document) domain.Document {
	return domain.Document{
		DocumentID:     m.DocumentID,
		CompanyID:      m.CompanyID,
		DocumentType:   domain.DocumentType(m.DocumentType),
		DocumentNumber: m.DocumentNumber,
		DocumentDate:   m.DocumentDate,
		DueDate:        m.DueDate,
		CurrencyCode:   m.CurrencyCode,
		PartnerID:      m.PartnerID,
		Subtotal:       m.Subtotal,
		Tax:            m.Tax,
		Total:          m.Total,
		BalanceDue:     m.BalanceDue,
		Status:         domain.DocumentStatus(m.Status),
		FiscalHash:     m.FiscalHash,
		PreviousHash:   m.PreviousHash,
		ChainSequence:  m.ChainSequence,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainDocumentSlice converts a slice of model documents to domain documents.
func ToDomainDocumentSlice(ms []models.Document) []domain.Document {
	ds := make([]domain.Document, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainDocument(m)
	}
	return ds
}

package mapping

import (
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/models"
)

// ToModelCompany converts a domain Company to a model Company
func ToModelCompany(d domain.Company) models.Company {
	return models.Company{
		CompanyID:   d.CompanyID,
		TenantID:    d.TenantID,
		Name:        d.Name,
		Email:       d.Email,
		Phone:       d.Phone,
		SyncColumns: ToModelSyncColumns(d.Sync),
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCompany converts a model Company to a domain Company
func ToDomainCompany(m models.Company) domain.Company {
	return domain.Company{
		CompanyID:   m.CompanyID,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Email:       m.Email,
		Phone:       m.Phone,
		Sync:        ToDomainSyncState(m.SyncColumns),
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainCompanySlice converts a slice of model Companies to a slice of domain Companies
func ToDomainCompanySlice(ms []models.Company) []domain.Company {
	ds := make([]domain.Company, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainCompany(m)
	}
	return ds
}

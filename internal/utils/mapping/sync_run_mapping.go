package mapping

import (
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/models"
)

// ToModelSyncRun converts a domain SyncRun to a model SyncRun
func ToModelSyncRun(d domain.SyncRun) models.SyncRun {
	errs := d.Errors
	if errs == nil {
		errs = []string{}
	}
	return models.SyncRun{
		SyncRunID:       d.SyncRunID,
		TenantID:        d.TenantID,
		Mode:            string(d.Mode),
		Status:          string(d.Status),
		RunAt:           d.RunAt,
		DurationMS:      d.DurationMS,
		CustomersPushed: d.CustomersPushed,
		InvoicesPushed:  d.InvoicesPushed,
		InvoicesPulled:  d.InvoicesPulled,
		BillsPulled:     d.BillsPulled,
		PaymentsPulled:  d.PaymentsPulled,
		PaymentsSkipped: d.PaymentsSkipped,
		Errors:          errs,
	}
}

// ToDomainSyncRun converts a model SyncRun to a domain SyncRun
func ToDomainSyncRun(m models.SyncRun) domain.SyncRun {
	errs := m.Errors
	if errs == nil {
		errs = []string{}
	}
	return domain.SyncRun{
		SyncRunID:  m.SyncRunID,
		TenantID:   m.TenantID,
		Mode:       domain.SyncMode(m.Mode),
		Status:     domain.SyncRunStatus(m.Status),
		RunAt:      m.RunAt,
		DurationMS: m.DurationMS,
		SyncCounts: domain.SyncCounts{
			CustomersPushed: m.CustomersPushed,
			InvoicesPushed:  m.InvoicesPushed,
			InvoicesPulled:  m.InvoicesPulled,
			BillsPulled:     m.BillsPulled,
			PaymentsPulled:  m.PaymentsPulled,
			PaymentsSkipped: m.PaymentsSkipped,
		},
		Errors: errs,
	}
}

// ToDomainSyncRunSlice converts a slice of model SyncRuns to a slice of domain SyncRuns
func ToDomainSyncRunSlice(ms []models.SyncRun) []domain.SyncRun {
	ds := make([]domain.SyncRun, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainSyncRun(m)
	}
	return ds
}

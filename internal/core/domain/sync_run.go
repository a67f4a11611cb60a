package domain

import (
	"time"
)

// SyncMode selects which sync variant runs.
type SyncMode string

const (
	// SyncModeFull is the periodic catch-up job: token-TTL gated, wide
	// window, pulls invoices, bills and payments.
	SyncModeFull SyncMode = "full"
	// SyncModeBidirectional is the always-on job: runs unconditionally,
	// narrow window, pulls payments only.
	SyncModeBidirectional SyncMode = "bidirectional"
)

// SyncRunStatus is the outcome of a run.
type SyncRunStatus string

const (
	SyncSuccess SyncRunStatus = "success"
	SyncPartial SyncRunStatus = "partial"
	SyncFailed  SyncRunStatus = "failed"
)

// SyncPhase names the states a run moves through.
type SyncPhase string

const (
	PhaseNotStarted    SyncPhase = "not_started"
	PhaseTokenEnsuring SyncPhase = "token_ensuring"
	PhasePushing       SyncPhase = "pushing"
	PhasePulling       SyncPhase = "pulling"
	PhaseLogged        SyncPhase = "logged"
	PhaseDone          SyncPhase = "done"
	PhaseFailed        SyncPhase = "failed"
)

// SyncCounts holds per-entity push and pull counts for one run.
type SyncCounts struct {
	CustomersPushed int `json:"customers_pushed"`
	InvoicesPushed  int `json:"invoices_pushed"`
	InvoicesPulled  int `json:"invoices_pulled"`
	BillsPulled     int `json:"bills_pulled"`
	PaymentsPulled  int `json:"payments_pulled"`
	PaymentsSkipped int `json:"payments_skipped"`
}

// PhaseErrors keeps the error list of each phase separately.
type PhaseErrors struct {
	Customers      []string `json:"customers"`
	Invoices       []string `json:"invoices"`
	Pull           []string `json:"pull"`
	Reconciliation []string `json:"reconciliation"`
	Fatal          []string `json:"fatal"`
}

// All flattens the phase lists in execution order.
func (p PhaseErrors) All() []string {
	out := make([]string, 0, len(p.Fatal)+len(p.Customers)+len(p.Invoices)+len(p.Pull)+len(p.Reconciliation))
	out = append(out, p.Fatal...)
	out = append(out, p.Customers...)
	out = append(out, p.Invoices...)
	out = append(out, p.Pull...)
	out = append(out, p.Reconciliation...)
	return out
}

// SyncResult is the structured summary returned for every run.
type SyncResult struct {
	TenantID       string        `json:"tenant_id"`
	Mode           SyncMode      `json:"mode"`
	Status         SyncRunStatus `json:"status"`
	Phase          SyncPhase     `json:"phase"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	WindowFrom     time.Time     `json:"window_from"`
	WindowTo       time.Time     `json:"window_to"`
	TokenRefreshed bool          `json:"token_refreshed"`
	SyncCounts
	PhaseErrors PhaseErrors `json:"phase_errors"`
	Errors      []string    `json:"errors"`
}

// Finalize computes the flattened error list and the run status.
func (r *SyncResult) Finalize(now time.Time) {
	r.FinishedAt = now
	r.Errors = r.PhaseErrors.All()
	switch {
	case len(r.PhaseErrors.Fatal) > 0:
		r.Status = SyncFailed
	case len(r.Errors) > 0:
		r.Status = SyncPartial
	default:
		r.Status = SyncSuccess
	}
}

// SyncRun is the append-only audit row written once per run.
type SyncRun struct {
	SyncRunID  string        `json:"sync_run_id"`
	TenantID   string        `json:"tenant_id"`
	Mode       SyncMode      `json:"mode"`
	Status     SyncRunStatus `json:"status"`
	RunAt      time.Time     `json:"run_at"`
	DurationMS int64         `json:"duration_ms"`
	SyncCounts
	Errors []string `json:"errors"`
}

// Skipped explains why a scheduled invocation did not run.
type Skipped struct {
	Reason         string    `json:"reason"`
	NextEligibleAt time.Time `json:"next_eligible_at,omitempty"`
}

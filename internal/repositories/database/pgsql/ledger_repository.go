package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_sync/internal/models"
	"github.com/SscSPs/ledger_sync/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

// ledgerTable describes where rows of one kind live. Payables have no
// company or invoice columns, so the select projects NULLs for them.
type ledgerTable struct {
	name     string
	idColumn string
	selects  string
}

var ledgerTables = map[domain.LedgerKind]ledgerTable{
	domain.Receivable: {
		name:     "accounts_receivable",
		idColumn: "ar_id",
		selects: `
SELECT
	ar_id AS entry_id, tenant_id, company_id, invoice_id, counterparty, doc_number,
	amount, amount_paid, manual_paid, snapshot_paid, external_applied, status, due_date, external_id,
	created_at, created_by, last_updated_at, last_updated_by
FROM accounts_receivable
`,
	},
	domain.Payable: {
		name:     "accounts_payable",
		idColumn: "ap_id",
		selects: `
SELECT
	ap_id AS entry_id, tenant_id, NULL::text AS company_id, NULL::text AS invoice_id, counterparty, doc_number,
	amount, amount_paid, manual_paid, snapshot_paid, external_applied, status, due_date, external_id,
	created_at, created_by, last_updated_at, last_updated_by
FROM accounts_payable
`,
	},
}

func tableFor(kind domain.LedgerKind) (ledgerTable, error) {
	t, ok := ledgerTables[kind]
	if !ok {
		return ledgerTable{}, apperrors.NewValidationError("unknown ledger kind " + string(kind))
	}
	return t, nil
}

const paymentSelect = `
SELECT
	payment_id, tenant_id, ar_id, ap_id, amount, payment_date, method, reference,
	source, external_payment_id, created_at, created_by
FROM payment_transactions
`

func collectLedgerEntry(rows pgx.Rows, kind domain.LedgerKind) (*domain.LedgerEntry, error) {
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.LedgerEntry])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to collect %s row: %w", kind, err)
	}
	entry := mapping.ToDomainLedgerEntry(m, kind)
	return &entry, nil
}

func collectPayment(rows pgx.Rows) (*domain.PaymentTransaction, error) {
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.PaymentTransaction])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to collect payment row: %w", err)
	}
	p := mapping.ToDomainPayment(m)
	return &p, nil
}

func (r *PgxLedgerRepository) FindLedgerEntryByExternalID(ctx context.Context, tenantID string, kind domain.LedgerKind, externalID string) (*domain.LedgerEntry, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.Pool.Query(ctx, t.selects+`WHERE tenant_id = $1 AND external_id = $2`, tenantID, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	return collectLedgerEntry(rows, kind)
}

func (r *PgxLedgerRepository) FindPaymentByExternalID(ctx context.Context, tenantID, externalPaymentID string) (*domain.PaymentTransaction, error) {
	rows, err := r.Pool.Query(ctx, paymentSelect+`WHERE tenant_id = $1 AND external_payment_id = $2`, tenantID, externalPaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return collectPayment(rows)
}

func (r *PgxLedgerRepository) FindLedgerEntryByExternalIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, kind domain.LedgerKind, externalID string) (*domain.LedgerEntry, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, t.selects+`WHERE tenant_id = $1 AND external_id = $2 FOR UPDATE`, tenantID, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s row: %w", t.name, err)
	}
	return collectLedgerEntry(rows, kind)
}

// InsertLedgerEntryInTx relies on the (tenant_id, external_id) constraint to
// detect a row created concurrently for the same document.
func (r *PgxLedgerRepository) InsertLedgerEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (bool, error) {
	if entry.ExternalID == "" {
		return false, apperrors.NewValidationError("external id is required")
	}
	m := mapping.ToModelLedgerEntry(entry)

	var query string
	var args []any
	switch entry.Kind {
	case domain.Receivable:
		query = `
			INSERT INTO accounts_receivable (
				ar_id, tenant_id, company_id, invoice_id, counterparty, doc_number, amount,
				amount_paid, manual_paid, snapshot_paid, external_applied,
				status, due_date, external_id, created_at, created_by, last_updated_at, last_updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			ON CONFLICT (tenant_id, external_id) DO NOTHING`
		args = []any{m.EntryID, m.TenantID, m.CompanyID, m.InvoiceID, m.Counterparty, m.DocNumber, m.Amount,
			m.AmountPaid, m.ManualPaid, m.SnapshotPaid, m.ExternalApplied,
			m.Status, m.DueDate, m.ExternalID, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy}
	case domain.Payable:
		query = `
			INSERT INTO accounts_payable (
				ap_id, tenant_id, counterparty, doc_number, amount,
				amount_paid, manual_paid, snapshot_paid, external_applied,
				status, due_date, external_id, created_at, created_by, last_updated_at, last_updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (tenant_id, external_id) DO NOTHING`
		args = []any{m.EntryID, m.TenantID, m.Counterparty, m.DocNumber, m.Amount,
			m.AmountPaid, m.ManualPaid, m.SnapshotPaid, m.ExternalApplied,
			m.Status, m.DueDate, m.ExternalID, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy}
	default:
		return false, apperrors.NewValidationError("unknown ledger kind " + string(entry.Kind))
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert %s row %s: %w", entry.Kind, entry.ExternalID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// RefreshOverdueStatuses only touches unpaid open rows; partial and paid rows
// keep their status regardless of the due date.
func (r *PgxLedgerRepository) RefreshOverdueStatuses(ctx context.Context, tenantID string, today time.Time) (int64, error) {
	var total int64
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		for _, kind := range []domain.LedgerKind{domain.Receivable, domain.Payable} {
			t := ledgerTables[kind]
			tag, err := tx.Exec(ctx, `
				UPDATE `+t.name+`
				SET status = 'overdue', last_updated_at = $3, last_updated_by = $4
				WHERE tenant_id = $1 AND status = 'open' AND amount_paid = 0 AND due_date < $2`,
				tenantID, today, time.Now().UTC(), domain.SystemUserID)
			if err != nil {
				return fmt.Errorf("failed to refresh overdue %s rows: %w", kind, err)
			}
			total += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PgxLedgerRepository) FindLedgerEntryForUpdate(ctx context.Context, tx pgx.Tx, kind domain.LedgerKind, entryID string) (*domain.LedgerEntry, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, t.selects+`WHERE `+t.idColumn+` = $1 FOR UPDATE`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s row: %w", t.name, err)
	}
	return collectLedgerEntry(rows, kind)
}

// UpdateLedgerEntryInTx never clears a company link that is already set.
func (r *PgxLedgerRepository) UpdateLedgerEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) error {
	t, err := tableFor(entry.Kind)
	if err != nil {
		return err
	}
	m := mapping.ToModelLedgerEntry(entry)
	set := `counterparty = $2, doc_number = $3, amount = $4, amount_paid = $5, manual_paid = $6,
			snapshot_paid = $7, external_applied = $8, status = $9, due_date = $10,
			last_updated_at = $11, last_updated_by = $12`
	args := []any{m.EntryID, m.Counterparty, m.DocNumber, m.Amount, m.AmountPaid, m.ManualPaid,
		m.SnapshotPaid, m.ExternalApplied, m.Status, m.DueDate, m.LastUpdatedAt, m.LastUpdatedBy}
	if entry.Kind == domain.Receivable {
		set += `, company_id = COALESCE(company_id, $13)`
		args = append(args, m.CompanyID)
	}

	tag, err := tx.Exec(ctx, `UPDATE `+t.name+` SET `+set+` WHERE `+t.idColumn+` = $1`, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s row: %w", t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// InsertPaymentInTx relies on the (tenant_id, external_payment_id) constraint;
// manual payments carry a NULL external id and never conflict.
func (r *PgxLedgerRepository) InsertPaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.PaymentTransaction) (bool, error) {
	m := mapping.ToModelPayment(payment)
	tag, err := tx.Exec(ctx, `
		INSERT INTO payment_transactions (
			payment_id, tenant_id, ar_id, ap_id, amount, payment_date, method, reference,
			source, external_payment_id, created_at, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (tenant_id, external_payment_id) DO NOTHING`,
		m.PaymentID, m.TenantID, m.ARID, m.APID, m.Amount, m.PaymentDate, m.Method, m.Reference,
		m.Source, m.ExternalPaymentID, m.CreatedAt, m.CreatedBy)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return false, apperrors.NewNotFoundError("ledger entry for payment " + m.PaymentID + " not found")
		}
		return false, fmt.Errorf("failed to insert payment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgxLedgerRepository) FindPaymentForUpdate(ctx context.Context, tx pgx.Tx, tenantID, paymentID string) (*domain.PaymentTransaction, error) {
	rows, err := tx.Query(ctx, paymentSelect+`WHERE payment_id = $1 AND tenant_id = $2 FOR UPDATE`, paymentID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment: %w", err)
	}
	return collectPayment(rows)
}

func (r *PgxLedgerRepository) DeletePaymentInTx(ctx context.Context, tx pgx.Tx, paymentID string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM payment_transactions WHERE payment_id = $1`, paymentID)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

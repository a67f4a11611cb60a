package pgsql

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_sync/internal/models"
	"github.com/SscSPs/ledger_sync/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxInvoiceRepository struct {
	BaseRepository
}

func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

// pendingInvoiceRow flattens the invoice/company join. Company columns are
// prefixed so they do not collide with the invoice's own sync columns.
type pendingInvoiceRow struct {
	models.Invoice
	CompanyName             string     `db:"company_name"`
	CompanyEmail            string     `db:"company_email"`
	CompanyPhone            string     `db:"company_phone"`
	CompanyExternalID       *string    `db:"company_external_id"`
	CompanyExternalSyncedAt *time.Time `db:"company_external_synced_at"`
}

func (row pendingInvoiceRow) toDomain() domain.PendingInvoice {
	return domain.PendingInvoice{
		Invoice: mapping.ToDomainInvoice(row.Invoice),
		Company: mapping.ToDomainCompany(models.Company{
			CompanyID: row.CompanyID,
			TenantID:  row.TenantID,
			Name:      row.CompanyName,
			Email:     row.CompanyEmail,
			Phone:     row.CompanyPhone,
			SyncColumns: models.SyncColumns{
				ExternalID:       row.CompanyExternalID,
				ExternalSyncedAt: row.CompanyExternalSyncedAt,
			},
		}),
	}
}

// ListPendingInvoices only returns invoices whose company already has an
// external id; the rest wait for the customer push.
func (r *PgxInvoiceRepository) ListPendingInvoices(ctx context.Context, tenantID string, limit int) ([]domain.PendingInvoice, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT
			i.invoice_id, i.tenant_id, i.company_id, i.invoice_number, i.invoice_date, i.due_date,
			i.total_amount, i.memo, i.external_id, i.external_synced_at,
			i.created_at, i.created_by, i.last_updated_at, i.last_updated_by,
			c.name AS company_name, c.email AS company_email, c.phone AS company_phone,
			c.external_id AS company_external_id, c.external_synced_at AS company_external_synced_at
		FROM invoices i
		JOIN companies c ON c.company_id = i.company_id
		WHERE i.tenant_id = $1 AND i.external_id IS NULL AND c.external_id IS NOT NULL
		ORDER BY i.invoice_date, i.invoice_id
		LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending invoices: %w", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[pendingInvoiceRow])
	if err != nil {
		return nil, fmt.Errorf("failed to collect pending invoice rows: %w", err)
	}
	pending := make([]domain.PendingInvoice, len(ms))
	for i, m := range ms {
		pending[i] = m.toDomain()
	}
	return pending, nil
}

func (r *PgxInvoiceRepository) CountPendingInvoices(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE tenant_id = $1 AND external_id IS NULL`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending invoices: %w", err)
	}
	return n, nil
}

func (r *PgxInvoiceRepository) FindLineItems(ctx context.Context, invoiceID string) ([]domain.InvoiceLineItem, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT line_item_id, invoice_id, description, quantity, unit_price, amount, sort_order
		FROM invoice_line_items
		WHERE invoice_id = $1
		ORDER BY sort_order, line_item_id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.InvoiceLineItem])
	if err != nil {
		return nil, fmt.Errorf("failed to collect line item rows: %w", err)
	}
	return mapping.ToDomainInvoiceLineItemSlice(ms), nil
}

func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice, lines []domain.InvoiceLineItem, receivable domain.LedgerEntry) error {
	inv := mapping.ToModelInvoice(invoice)
	ar := mapping.ToModelLedgerEntry(receivable)

	return r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO invoices (
				invoice_id, tenant_id, company_id, invoice_number, invoice_date, due_date, total_amount, memo,
				external_id, external_synced_at, created_at, created_by, last_updated_at, last_updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			inv.InvoiceID, inv.TenantID, inv.CompanyID, inv.InvoiceNumber, inv.InvoiceDate, inv.DueDate,
			inv.TotalAmount, inv.Memo, inv.ExternalID, inv.ExternalSyncedAt,
			inv.CreatedAt, inv.CreatedBy, inv.LastUpdatedAt, inv.LastUpdatedBy)
		if err != nil {
			switch code, _ := pgErrorCode(err); code {
			case pgUniqueViolation:
				return apperrors.NewAppError(http.StatusConflict, "invoice number "+inv.InvoiceNumber+" already exists", apperrors.ErrDuplicate)
			case pgForeignKeyViolation:
				return apperrors.NewNotFoundError("company " + inv.CompanyID + " not found")
			}
			return fmt.Errorf("failed to insert invoice: %w", err)
		}

		batch := &pgx.Batch{}
		for _, li := range lines {
			m := mapping.ToModelInvoiceLineItem(li)
			batch.Queue(`
				INSERT INTO invoice_line_items (line_item_id, invoice_id, description, quantity, unit_price, amount, sort_order)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				m.LineItemID, m.InvoiceID, m.Description, m.Quantity, m.UnitPrice, m.Amount, m.SortOrder)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("failed to insert line items: %w", err)
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO accounts_receivable (
				ar_id, tenant_id, company_id, invoice_id, counterparty, doc_number, amount, amount_paid,
				status, due_date, external_id, created_at, created_by, last_updated_at, last_updated_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			ar.EntryID, ar.TenantID, ar.CompanyID, ar.InvoiceID, ar.Counterparty, ar.DocNumber, ar.Amount, ar.AmountPaid,
			ar.Status, ar.DueDate, ar.ExternalID, ar.CreatedAt, ar.CreatedBy, ar.LastUpdatedAt, ar.LastUpdatedBy)
		if err != nil {
			return fmt.Errorf("failed to insert receivable: %w", err)
		}
		return nil
	})
}

// MarkInvoiceSynced stamps the invoice and its receivable row together, so a
// later pull of the same external invoice updates the row instead of adding one.
func (r *PgxInvoiceRepository) MarkInvoiceSynced(ctx context.Context, invoiceID, externalID string, at time.Time) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE invoices
			SET external_id = $2, external_synced_at = $3
			WHERE invoice_id = $1 AND (external_id IS NULL OR external_id = $2)`,
			invoiceID, externalID, at)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: invoice %s is mirrored by another local invoice", domain.ErrExternalIDConflict, externalID)
			}
			return fmt.Errorf("failed to mark invoice %s synced: %w", invoiceID, err)
		}
		if tag.RowsAffected() == 0 {
			return r.explainNoUpdate(ctx, "invoices", "invoice_id", invoiceID, externalID)
		}

		_, err = tx.Exec(ctx, `
			UPDATE accounts_receivable
			SET external_id = $2, last_updated_at = $3, last_updated_by = $4
			WHERE invoice_id = $1 AND (external_id IS NULL OR external_id = $2)`,
			invoiceID, externalID, at, domain.SystemUserID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: receivable for invoice %s already pulled separately", domain.ErrExternalIDConflict, externalID)
			}
			return fmt.Errorf("failed to stamp receivable of invoice %s: %w", invoiceID, err)
		}
		return nil
	})
}

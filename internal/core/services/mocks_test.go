package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
)

// fakeTx stands in for a database transaction; repository mocks never use it.
type fakeTx struct {
	pgx.Tx
}

// --- Mock ConnectionRepository ---
type MockConnectionRepository struct {
	mock.Mock
}

var _ portsrepo.ConnectionRepositoryFacade = (*MockConnectionRepository)(nil)

func (m *MockConnectionRepository) FindActiveConnection(ctx context.Context, tenantID string) (*domain.Connection, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Connection), args.Error(1)
}

func (m *MockConnectionRepository) FindConnectionByID(ctx context.Context, connectionID string) (*domain.Connection, error) {
	args := m.Called(ctx, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Connection), args.Error(1)
}

func (m *MockConnectionRepository) SaveConnection(ctx context.Context, conn domain.Connection) error {
	return m.Called(ctx, conn).Error(0)
}

func (m *MockConnectionRepository) UpdateTokens(ctx context.Context, conn domain.Connection, expectedVersion int64) (*domain.Connection, error) {
	args := m.Called(ctx, conn, expectedVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Connection), args.Error(1)
}

func (m *MockConnectionRepository) MarkExpired(ctx context.Context, connectionID string) error {
	return m.Called(ctx, connectionID).Error(0)
}

// --- Mock CompanyRepository ---
type MockCompanyRepository struct {
	mock.Mock
}

var _ portsrepo.CompanyRepositoryFacade = (*MockCompanyRepository)(nil)

func (m *MockCompanyRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindCompanyByExternalID(ctx context.Context, tenantID, externalID string) (*domain.Company, error) {
	args := m.Called(ctx, tenantID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *MockCompanyRepository) ListPendingCompanies(ctx context.Context, tenantID string, limit int) ([]domain.Company, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Company), args.Error(1)
}

func (m *MockCompanyRepository) CountPendingCompanies(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *MockCompanyRepository) MarkCompanySynced(ctx context.Context, companyID, externalID string, at time.Time) error {
	return m.Called(ctx, companyID, externalID, at).Error(0)
}

// --- Mock InvoiceRepository ---
type MockInvoiceRepository struct {
	mock.Mock
}

var _ portsrepo.InvoiceRepositoryFacade = (*MockInvoiceRepository)(nil)

func (m *MockInvoiceRepository) ListPendingInvoices(ctx context.Context, tenantID string, limit int) ([]domain.PendingInvoice, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PendingInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountPendingInvoices(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceRepository) FindLineItems(ctx context.Context, invoiceID string) ([]domain.InvoiceLineItem, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceLineItem), args.Error(1)
}

func (m *MockInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice, lines []domain.InvoiceLineItem, receivable domain.LedgerEntry) error {
	return m.Called(ctx, invoice, lines, receivable).Error(0)
}

func (m *MockInvoiceRepository) MarkInvoiceSynced(ctx context.Context, invoiceID, externalID string, at time.Time) error {
	return m.Called(ctx, invoiceID, externalID, at).Error(0)
}

// --- Mock LedgerRepository ---
type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryWithTx = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockLedgerRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockLedgerRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockLedgerRepository) FindLedgerEntryByExternalID(ctx context.Context, tenantID string, kind domain.LedgerKind, externalID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, tenantID, kind, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindPaymentByExternalID(ctx context.Context, tenantID, externalPaymentID string) (*domain.PaymentTransaction, error) {
	args := m.Called(ctx, tenantID, externalPaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTransaction), args.Error(1)
}

func (m *MockLedgerRepository) RefreshOverdueStatuses(ctx context.Context, tenantID string, today time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, today)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) FindLedgerEntryForUpdate(ctx context.Context, tx pgx.Tx, kind domain.LedgerKind, entryID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, tx, kind, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindLedgerEntryByExternalIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, kind domain.LedgerKind, externalID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, tx, tenantID, kind, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) InsertLedgerEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (bool, error) {
	args := m.Called(ctx, tx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) UpdateLedgerEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) error {
	return m.Called(ctx, tx, entry).Error(0)
}

func (m *MockLedgerRepository) InsertPaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.PaymentTransaction) (bool, error) {
	args := m.Called(ctx, tx, payment)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) FindPaymentForUpdate(ctx context.Context, tx pgx.Tx, tenantID, paymentID string) (*domain.PaymentTransaction, error) {
	args := m.Called(ctx, tx, tenantID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTransaction), args.Error(1)
}

func (m *MockLedgerRepository) DeletePaymentInTx(ctx context.Context, tx pgx.Tx, paymentID string) error {
	return m.Called(ctx, tx, paymentID).Error(0)
}

// --- Mock SyncRunRepository ---
type MockSyncRunRepository struct {
	mock.Mock
}

var _ portsrepo.SyncRunRepository = (*MockSyncRunRepository)(nil)

func (m *MockSyncRunRepository) SaveSyncRun(ctx context.Context, run domain.SyncRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockSyncRunRepository) FindLastSyncRun(ctx context.Context, tenantID string, modes ...domain.SyncMode) (*domain.SyncRun, error) {
	args := m.Called(ctx, tenantID, modes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncRun), args.Error(1)
}

func (m *MockSyncRunRepository) ListSyncRuns(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.SyncRun, *string, error) {
	args := m.Called(ctx, tenantID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.SyncRun), returnedNextToken, args.Error(2)
}

// --- Mock AccountingGateway ---
type MockAccountingGateway struct {
	mock.Mock
}

var _ gateways.AccountingGateway = (*MockAccountingGateway)(nil)

func (m *MockAccountingGateway) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenGrant), args.Error(1)
}

func (m *MockAccountingGateway) UpsertCustomer(ctx context.Context, conn domain.Connection, payload domain.CustomerPayload) (string, error) {
	args := m.Called(ctx, conn, payload)
	return args.String(0), args.Error(1)
}

func (m *MockAccountingGateway) CreateInvoice(ctx context.Context, conn domain.Connection, payload domain.InvoicePayload) (string, error) {
	args := m.Called(ctx, conn, payload)
	return args.String(0), args.Error(1)
}

func (m *MockAccountingGateway) ListInvoices(ctx context.Context, conn domain.Connection, from, to time.Time) ([]domain.ExternalInvoice, error) {
	args := m.Called(ctx, conn, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExternalInvoice), args.Error(1)
}

func (m *MockAccountingGateway) ListBills(ctx context.Context, conn domain.Connection, from, to time.Time) ([]domain.ExternalBill, error) {
	args := m.Called(ctx, conn, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExternalBill), args.Error(1)
}

func (m *MockAccountingGateway) ListPayments(ctx context.Context, conn domain.Connection, from, to time.Time) ([]domain.ExternalPayment, error) {
	args := m.Called(ctx, conn, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExternalPayment), args.Error(1)
}

// --- Mock TenantLocker ---
type MockTenantLocker struct {
	mock.Mock
	released int
}

var _ portssvc.TenantLocker = (*MockTenantLocker)(nil)

func (m *MockTenantLocker) Obtain(ctx context.Context, tenantID string) (func(context.Context) error, error) {
	args := m.Called(ctx, tenantID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func(context.Context) error {
		m.released++
		return nil
	}, nil
}

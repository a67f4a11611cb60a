package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/core/services"
)

// --- Mock LedgerReconciler ---
type MockLedgerReconciler struct {
	mock.Mock
}

var _ portssvc.LedgerReconcilerSvc = (*MockLedgerReconciler)(nil)

func (m *MockLedgerReconciler) MirrorDocument(ctx context.Context, snapshot domain.LedgerEntry, today time.Time) (bool, error) {
	args := m.Called(ctx, snapshot, today)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerReconciler) ApplyExternalPayment(ctx context.Context, tenantID string, payment domain.ExternalPayment, today time.Time) (portssvc.ApplyOutcome, error) {
	args := m.Called(ctx, tenantID, payment, today)
	return args.Get(0).(portssvc.ApplyOutcome), args.Error(1)
}

type EntityPullerTestSuite struct {
	suite.Suite
	companyRepo *MockCompanyRepository
	reconciler  *MockLedgerReconciler
	gateway     *MockAccountingGateway
	puller      portssvc.EntityPullerSvc
	conn        domain.Connection
	opts        portssvc.PullOptions
	today       time.Time
}

func (s *EntityPullerTestSuite) SetupTest() {
	s.companyRepo = new(MockCompanyRepository)
	s.reconciler = new(MockLedgerReconciler)
	s.gateway = new(MockAccountingGateway)
	s.puller = services.NewEntityPuller(s.companyRepo, s.reconciler, s.gateway, time.Second)
	s.conn = domain.Connection{ConnectionID: "conn-1", TenantID: "tenant-1", Status: domain.ConnectionActive}

	to := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	s.today = domain.DateOnly(to)
	s.opts = portssvc.PullOptions{From: to.AddDate(0, 0, -30), To: to, Invoices: true, Bills: true, Payments: true}
}

func TestEntityPullerTestSuite(t *testing.T) {
	suite.Run(t, new(EntityPullerTestSuite))
}

func (s *EntityPullerTestSuite) TestPull_FullWindow() {
	invoice := domain.ExternalInvoice{
		ExternalID:         "130",
		CustomerExternalID: "58",
		DocNumber:          "1001",
		DueDate:            s.today.AddDate(0, 0, 5),
		TotalAmount:        dec("100"),
		Balance:            dec("60"),
	}
	bill := domain.ExternalBill{ExternalID: "b-9", VendorName: "Office Supply Co", TotalAmount: dec("250"), Balance: dec("250"), DueDate: s.today.AddDate(0, 0, -1)}
	knownPayment := domain.ExternalPayment{ExternalID: "Payment:pay-1:130", Kind: domain.Receivable, LinkedExternalID: "130", Amount: dec("40")}
	unknownPayment := domain.ExternalPayment{ExternalID: "Payment:pay-2:999", Kind: domain.Receivable, LinkedExternalID: "999", Amount: dec("10")}

	s.gateway.On("ListInvoices", mock.Anything, s.conn, s.opts.From, s.opts.To).Return([]domain.ExternalInvoice{invoice}, nil).Once()
	s.gateway.On("ListBills", mock.Anything, s.conn, s.opts.From, s.opts.To).Return([]domain.ExternalBill{bill}, nil).Once()
	s.gateway.On("ListPayments", mock.Anything, s.conn, s.opts.From, s.opts.To).Return([]domain.ExternalPayment{knownPayment, unknownPayment}, nil).Once()

	s.companyRepo.On("FindCompanyByExternalID", mock.Anything, "tenant-1", "58").Return(&domain.Company{CompanyID: "co-1", Name: "Acme Corp"}, nil).Once()
	s.reconciler.On("MirrorDocument", mock.Anything, mock.MatchedBy(func(e domain.LedgerEntry) bool {
		return e.Kind == domain.Receivable && e.CompanyID == "co-1" && e.Counterparty == "Acme Corp" &&
			e.SnapshotPaid.Equal(dec("40")) && e.ExternalID == "130"
	}), s.today).Return(true, nil).Once()
	s.reconciler.On("MirrorDocument", mock.Anything, mock.MatchedBy(func(e domain.LedgerEntry) bool {
		return e.Kind == domain.Payable && e.SnapshotPaid.IsZero() && e.ExternalID == "b-9"
	}), s.today).Return(true, nil).Once()

	s.reconciler.On("ApplyExternalPayment", mock.Anything, "tenant-1", knownPayment, s.today).Return(portssvc.OutcomeApplied, nil).Once()
	s.reconciler.On("ApplyExternalPayment", mock.Anything, "tenant-1", unknownPayment, s.today).Return(portssvc.OutcomeUnresolved, nil).Once()

	result := &domain.SyncResult{}
	s.puller.Pull(context.Background(), s.conn, s.opts, result)

	s.Equal(1, result.InvoicesPulled)
	s.Equal(1, result.BillsPulled)
	s.Equal(1, result.PaymentsPulled)
	s.Equal(1, result.PaymentsSkipped)
	s.Empty(result.PhaseErrors.All())
	s.reconciler.AssertExpectations(s.T())
}

func (s *EntityPullerTestSuite) TestPull_UnknownCustomerStillMirrored() {
	s.opts.Bills, s.opts.Payments = false, false
	invoice := domain.ExternalInvoice{ExternalID: "130", CustomerExternalID: "58", TotalAmount: dec("100"), Balance: dec("100"), DueDate: s.today}
	s.gateway.On("ListInvoices", mock.Anything, s.conn, s.opts.From, s.opts.To).Return([]domain.ExternalInvoice{invoice}, nil).Once()
	s.companyRepo.On("FindCompanyByExternalID", mock.Anything, "tenant-1", "58").Return(nil, apperrors.ErrNotFound).Once()
	s.reconciler.On("MirrorDocument", mock.Anything, mock.MatchedBy(func(e domain.LedgerEntry) bool {
		return e.ExternalID == "130" && e.CompanyID == ""
	}), s.today).Return(false, nil).Once()

	result := &domain.SyncResult{}
	s.puller.Pull(context.Background(), s.conn, s.opts, result)

	s.Equal(1, result.InvoicesPulled)
	s.reconciler.AssertExpectations(s.T())
	s.gateway.AssertNotCalled(s.T(), "ListPayments", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *EntityPullerTestSuite) TestPull_ShrunkDocumentIsReconciliationError() {
	s.opts.Invoices, s.opts.Payments = false, false
	bill := domain.ExternalBill{ExternalID: "b-9", TotalAmount: dec("20"), Balance: dec("20")}
	s.gateway.On("ListBills", mock.Anything, s.conn, s.opts.From, s.opts.To).Return([]domain.ExternalBill{bill}, nil).Once()
	s.reconciler.On("MirrorDocument", mock.Anything, mock.Anything, s.today).Return(false, &apperrors.ReconciliationError{
		TenantID: "tenant-1", LedgerEntryID: "ap-1", LinkedExternalID: "b-9", Amount: dec("20"), Err: domain.ErrAmountBelowPaid,
	}).Once()

	result := &domain.SyncResult{}
	s.puller.Pull(context.Background(), s.conn, s.opts, result)

	s.Zero(result.BillsPulled)
	s.Empty(result.PhaseErrors.Pull)
	s.Require().Len(result.PhaseErrors.Reconciliation, 1)
	s.Contains(result.PhaseErrors.Reconciliation[0], "b-9")
}

func (s *EntityPullerTestSuite) TestPull_PerRecordFailuresAreAccumulated() {
	s.opts.Invoices = false
	s.gateway.On("ListBills", mock.Anything, s.conn, s.opts.From, s.opts.To).Return(nil, errors.New("timeout")).Once()

	invalid := domain.ExternalPayment{ExternalID: "pay-0", Kind: domain.Receivable, Amount: dec("5")}
	failing := domain.ExternalPayment{ExternalID: "pay-1", Kind: domain.Payable, LinkedExternalID: "b-1", Amount: dec("5")}
	overpaying := domain.ExternalPayment{ExternalID: "pay-2", Kind: domain.Receivable, LinkedExternalID: "130", Amount: dec("500")}
	applied := domain.ExternalPayment{ExternalID: "pay-3", Kind: domain.Receivable, LinkedExternalID: "130", Amount: dec("5")}
	s.gateway.On("ListPayments", mock.Anything, s.conn, s.opts.From, s.opts.To).
		Return([]domain.ExternalPayment{invalid, failing, overpaying, applied}, nil).Once()

	s.reconciler.On("ApplyExternalPayment", mock.Anything, "tenant-1", failing, s.today).Return(portssvc.ApplyOutcome(""), errors.New("db down")).Once()
	s.reconciler.On("ApplyExternalPayment", mock.Anything, "tenant-1", overpaying, s.today).Return(portssvc.ApplyOutcome(""), &apperrors.ReconciliationError{
		ExternalPaymentID: "pay-2", LedgerEntryID: "ar-1", LinkedExternalID: "130", Amount: dec("500"), Err: domain.ErrOverpayment,
	}).Once()
	s.reconciler.On("ApplyExternalPayment", mock.Anything, "tenant-1", applied, s.today).Return(portssvc.OutcomeApplied, nil).Once()

	result := &domain.SyncResult{}
	s.puller.Pull(context.Background(), s.conn, s.opts, result)

	s.Equal(1, result.PaymentsPulled)
	s.Require().Len(result.PhaseErrors.Pull, 3)
	s.Equal("list bills: timeout", result.PhaseErrors.Pull[0])
	s.Contains(result.PhaseErrors.Pull[1], "payment pay-0: invalid payment")
	s.Equal("payment pay-1: db down", result.PhaseErrors.Pull[2])
	s.Require().Len(result.PhaseErrors.Reconciliation, 1)
	s.Contains(result.PhaseErrors.Reconciliation[0], "ar-1")
	s.reconciler.AssertExpectations(s.T())
}

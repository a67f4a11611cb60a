package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/dto"
	"github.com/SscSPs/ledger_sync/internal/handlers"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/SscSPs/ledger_sync/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// --- Mock SyncScheduler ---
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) MaybeRun(ctx context.Context, tenantID string, now time.Time) (*domain.SyncResult, *domain.Skipped, error) {
	args := m.Called(ctx, tenantID, now)
	return resultArg(args, 0), skippedArg(args, 1), args.Error(2)
}

func (m *MockScheduler) Run(ctx context.Context, tenantID string, mode domain.SyncMode, now time.Time) (*domain.SyncResult, *domain.Skipped, error) {
	args := m.Called(ctx, tenantID, mode, now)
	return resultArg(args, 0), skippedArg(args, 1), args.Error(2)
}

func (m *MockScheduler) Status(ctx context.Context, tenantID string, limit int, nextToken *string) (*portssvc.SyncStatus, error) {
	args := m.Called(ctx, tenantID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.SyncStatus), args.Error(1)
}

func resultArg(args mock.Arguments, i int) *domain.SyncResult {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*domain.SyncResult)
}

func skippedArg(args mock.Arguments, i int) *domain.Skipped {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*domain.Skipped)
}

// --- Mock PaymentService ---
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) RecordPayment(ctx context.Context, tenantID string, req dto.RecordPaymentRequest, userID string) (*domain.PaymentTransaction, *domain.LedgerEntry, error) {
	args := m.Called(ctx, tenantID, req, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.PaymentTransaction), args.Get(1).(*domain.LedgerEntry), args.Error(2)
}

func (m *MockPaymentService) DeletePayment(ctx context.Context, tenantID, paymentID, userID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, tenantID, paymentID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockPaymentService) RefreshOverdue(ctx context.Context, tenantID string, today time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, today)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock BillingService ---
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) GenerateInvoice(ctx context.Context, tenantID string, req dto.GenerateInvoiceRequest, userID string) (*domain.Invoice, []domain.InvoiceLineItem, error) {
	args := m.Called(ctx, tenantID, req, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Invoice), args.Get(1).([]domain.InvoiceLineItem), args.Error(2)
}

// --- Mock ConnectionService ---
type MockConnectionService struct {
	mock.Mock
}

func (m *MockConnectionService) StartConnect(ctx context.Context, tenantID string) (string, string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockConnectionService) CompleteConnect(ctx context.Context, tenantID, code, realmID, actorID string) (*domain.Connection, error) {
	args := m.Called(ctx, tenantID, code, realmID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Connection), args.Error(1)
}

var (
	_ portssvc.SyncSchedulerSvc = (*MockScheduler)(nil)
	_ portssvc.PaymentSvc       = (*MockPaymentService)(nil)
	_ portssvc.BillingSvc       = (*MockBillingService)(nil)
	_ portssvc.ConnectionSvc    = (*MockConnectionService)(nil)
)

const (
	testJWTSecret  = "handler-test-jwt"
	testSyncSecret = "cron-secret"
	testTenant     = "tenant-1"
	testUser       = "user-1"
)

// --- Test Suite ---
type HandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	scheduler   *MockScheduler
	payments    *MockPaymentService
	billing     *MockBillingService
	connections *MockConnectionService
	token       string
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.scheduler = new(MockScheduler)
	s.payments = new(MockPaymentService)
	s.billing = new(MockBillingService)
	s.connections = new(MockConnectionService)

	cfg := &config.Config{
		JWTSecret:       testJWTSecret,
		JWTIssuer:       "ledger-sync",
		SyncSecret:      testSyncSecret,
		DefaultTenantID: testTenant,
		IsProduction:    true,
	}
	rate, err := limiter.NewRateFromFormatted("100-M")
	s.Require().NoError(err)

	s.router = gin.New()
	handlers.RegisterRoutes(s.router, cfg, &portssvc.ServiceContainer{
		Scheduler:   s.scheduler,
		Payments:    s.payments,
		Billing:     s.billing,
		Connections: s.connections,
	}, limiter.New(memory.NewStore(), rate), nil)

	claims := middleware.Claims{
		TenantID: testTenant,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testUser,
			Issuer:    "ledger-sync",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s.token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	s.Require().NoError(err)
}

func (s *HandlerTestSuite) TearDownTest() {
	s.scheduler.AssertExpectations(s.T())
	s.payments.AssertExpectations(s.T())
	s.billing.AssertExpectations(s.T())
	s.connections.AssertExpectations(s.T())
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) do(method, path, bearer string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v))
}

// --- Sync trigger ---

func (s *HandlerTestSuite) TestTriggerSync_RejectsBadSecret() {
	w := s.do(http.MethodPost, "/sync", "wrong", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/sync/status", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestTriggerSync_DefaultsToGatedFullRun() {
	result := &domain.SyncResult{TenantID: testTenant, Mode: domain.SyncModeFull, Status: domain.SyncSuccess}
	result.CustomersPushed = 2
	s.scheduler.On("MaybeRun", mock.Anything, testTenant, mock.AnythingOfType("time.Time")).Return(result, nil, nil).Once()

	w := s.do(http.MethodPost, "/sync", testSyncSecret, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp dto.TriggerSyncResponse
	s.decode(w, &resp)
	s.True(resp.OK)
	s.Require().NotNil(resp.Results)
	s.Equal(2, resp.Results.CustomersPushed)
}

func (s *HandlerTestSuite) TestTriggerSync_ForceAndBidirectionalBypassGate() {
	forced := &domain.SyncResult{TenantID: "tenant-2", Mode: domain.SyncModeFull, Status: domain.SyncPartial}
	s.scheduler.On("Run", mock.Anything, "tenant-2", domain.SyncModeFull, mock.AnythingOfType("time.Time")).Return(forced, nil, nil).Once()
	w := s.do(http.MethodPost, "/sync?force=true&tenant_id=tenant-2", testSyncSecret, nil)
	s.Equal(http.StatusOK, w.Code)

	bidi := &domain.SyncResult{TenantID: testTenant, Mode: domain.SyncModeBidirectional, Status: domain.SyncFailed, Errors: []string{"token refresh failed"}}
	s.scheduler.On("Run", mock.Anything, testTenant, domain.SyncModeBidirectional, mock.AnythingOfType("time.Time")).Return(bidi, nil, nil).Once()
	w = s.do(http.MethodPost, "/sync?mode=bidirectional", testSyncSecret, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp dto.TriggerSyncResponse
	s.decode(w, &resp)
	s.False(resp.OK, "a failed run reports ok=false")
	s.Equal([]string{"token refresh failed"}, resp.Results.Errors)
}

func (s *HandlerTestSuite) TestTriggerSync_Skipped() {
	next := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.scheduler.On("MaybeRun", mock.Anything, testTenant, mock.AnythingOfType("time.Time")).
		Return(nil, &domain.Skipped{Reason: "token still fresh", NextEligibleAt: next}, nil).Once()

	w := s.do(http.MethodPost, "/sync", testSyncSecret, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp dto.TriggerSyncResponse
	s.decode(w, &resp)
	s.False(resp.OK)
	s.True(resp.Skipped)
	s.Equal("token still fresh", resp.Error)
	s.Equal(next.Format(time.RFC3339), resp.NextEligibleAt)
}

func (s *HandlerTestSuite) TestTriggerSync_Errors() {
	w := s.do(http.MethodPost, "/sync?mode=sideways", testSyncSecret, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	s.scheduler.On("MaybeRun", mock.Anything, testTenant, mock.AnythingOfType("time.Time")).
		Return(nil, nil, errors.New("lock backend down")).Once()
	w = s.do(http.MethodPost, "/sync", testSyncSecret, nil)
	s.Equal(http.StatusInternalServerError, w.Code)

	var resp dto.TriggerSyncResponse
	s.decode(w, &resp)
	s.False(resp.OK)
	s.Contains(resp.Error, "lock backend down")
}

// --- Sync status ---

func (s *HandlerTestSuite) TestGetSyncStatus() {
	last := domain.SyncRun{SyncRunID: "run-2", TenantID: testTenant, Mode: domain.SyncModeFull, Status: domain.SyncPartial, Errors: []string{"Acme Corp: network error"}}
	next := "cursor"
	status := &portssvc.SyncStatus{
		ConnectionActive: true,
		LastSync:         &last,
		Pending:          domain.PendingCount{Customers: 1, Invoices: 3},
		History:          []domain.SyncRun{last},
		NextToken:        &next,
	}
	s.scheduler.On("Status", mock.Anything, testTenant, 5, (*string)(nil)).Return(status, nil).Once()

	w := s.do(http.MethodGet, "/sync/status?limit=5", testSyncSecret, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.SyncStatusResponse
	s.decode(w, &resp)
	s.True(resp.ConnectionActive)
	s.Equal([]string{"Acme Corp: network error"}, resp.LastErrors)
	s.Equal(3, resp.PendingSync.Invoices)
	s.Len(resp.SyncHistory, 1)
	s.Require().NotNil(resp.NextToken)
	s.Equal("cursor", *resp.NextToken)
}

func (s *HandlerTestSuite) TestGetSyncStatus_EmptyListsAreNotNull() {
	s.scheduler.On("Status", mock.Anything, testTenant, 10, (*string)(nil)).Return(&portssvc.SyncStatus{}, nil).Once()

	w := s.do(http.MethodGet, "/sync/status", testSyncSecret, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"last_errors":[]`)
	s.Contains(w.Body.String(), `"sync_history":[]`)
	s.Contains(w.Body.String(), `"last_sync":null`)
}

// --- Payments ---

func (s *HandlerTestSuite) TestRecordPayment() {
	req := dto.RecordPaymentRequest{
		ReceivableID: "ar-1",
		Amount:       decimal.NewFromInt(40),
		PaymentDate:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Method:       "check",
	}
	payment := &domain.PaymentTransaction{PaymentID: "pay-1", ReceivableID: "ar-1", Amount: req.Amount, Source: domain.PaymentManual}
	entry := &domain.LedgerEntry{EntryID: "ar-1", Kind: domain.Receivable, Amount: decimal.NewFromInt(100), AmountPaid: decimal.NewFromInt(40), Status: domain.StatusPartial}
	s.payments.On("RecordPayment", mock.Anything, testTenant, mock.AnythingOfType("dto.RecordPaymentRequest"), testUser).Return(payment, entry, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/payments", s.token, req)
	s.Require().Equal(http.StatusCreated, w.Code)

	var resp dto.PaymentResponse
	s.decode(w, &resp)
	s.Equal("pay-1", resp.Payment.PaymentID)
	s.Equal(domain.StatusPartial, resp.Ledger.Status)
	s.True(resp.Ledger.BalanceDue.Equal(decimal.NewFromInt(60)))
}

func (s *HandlerTestSuite) TestRecordPayment_ValidationAndAuth() {
	w := s.do(http.MethodPost, "/api/v1/payments", "", map[string]any{"receivableID": "ar-1"})
	s.Equal(http.StatusUnauthorized, w.Code)

	both := map[string]any{"receivableID": "ar-1", "payableID": "ap-1", "amount": "10", "paymentDate": "2025-02-01T00:00:00Z"}
	w = s.do(http.MethodPost, "/api/v1/payments", s.token, both)
	s.Equal(http.StatusBadRequest, w.Code)

	s.payments.On("RecordPayment", mock.Anything, testTenant, mock.Anything, testUser).
		Return(nil, nil, apperrors.NewValidationError("payment exceeds remaining balance")).Once()
	over := map[string]any{"receivableID": "ar-1", "amount": "1000", "paymentDate": "2025-02-01T00:00:00Z"}
	w = s.do(http.MethodPost, "/api/v1/payments", s.token, over)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "remaining balance")
}

func (s *HandlerTestSuite) TestDeletePayment() {
	entry := &domain.LedgerEntry{EntryID: "ap-1", Kind: domain.Payable, Amount: decimal.NewFromInt(50), Status: domain.StatusOpen}
	s.payments.On("DeletePayment", mock.Anything, testTenant, "pay-1", testUser).Return(entry, nil).Once()
	s.payments.On("DeletePayment", mock.Anything, testTenant, "missing", testUser).Return(nil, apperrors.NewNotFoundError("payment not found")).Once()

	w := s.do(http.MethodDelete, "/api/v1/payments/pay-1", s.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var resp dto.LedgerEntryResponse
	s.decode(w, &resp)
	s.Equal(domain.StatusOpen, resp.Status)

	w = s.do(http.MethodDelete, "/api/v1/payments/missing", s.token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestRefreshOverdue() {
	s.payments.On("RefreshOverdue", mock.Anything, testTenant, mock.AnythingOfType("time.Time")).Return(int64(4), nil).Once()

	w := s.do(http.MethodPost, "/api/v1/ledger/refresh-overdue", s.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var resp dto.RefreshOverdueResponse
	s.decode(w, &resp)
	s.Equal(int64(4), resp.Updated)
}

// --- Invoices ---

func (s *HandlerTestSuite) TestGenerateInvoice() {
	body := map[string]any{
		"companyID":     "co-1",
		"invoiceNumber": "INV-1001",
		"invoiceDate":   "2025-02-01T00:00:00Z",
		"dueDate":       "2025-03-01T00:00:00Z",
		"feeModel":      map[string]any{"kind": "flat_per_employee", "employerFlat": "25", "employeeCount": 10},
	}
	invoice := &domain.Invoice{InvoiceID: "inv-1", CompanyID: "co-1", InvoiceNumber: "INV-1001", TotalAmount: decimal.NewFromInt(250)}
	lines := []domain.InvoiceLineItem{{Description: "Monthly service fee", Amount: decimal.NewFromInt(250)}}
	s.billing.On("GenerateInvoice", mock.Anything, testTenant, mock.AnythingOfType("dto.GenerateInvoiceRequest"), testUser).Return(invoice, lines, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/invoices", s.token, body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp dto.InvoiceResponse
	s.decode(w, &resp)
	s.Equal("inv-1", resp.InvoiceID)
	s.False(resp.Synced)
	s.Len(resp.LineItems, 1)
}

func (s *HandlerTestSuite) TestGenerateInvoice_DuplicateNumber() {
	body := map[string]any{
		"companyID":     "co-1",
		"invoiceNumber": "INV-1001",
		"invoiceDate":   "2025-02-01T00:00:00Z",
		"dueDate":       "2025-03-01T00:00:00Z",
		"feeModel":      map[string]any{"kind": "flat_per_employee", "employerFlat": "25", "employeeCount": 10},
	}
	s.billing.On("GenerateInvoice", mock.Anything, testTenant, mock.Anything, testUser).
		Return(nil, nil, apperrors.NewAppError(http.StatusConflict, "invoice number already used", apperrors.ErrDuplicate)).Once()

	w := s.do(http.MethodPost, "/api/v1/invoices", s.token, body)
	s.Equal(http.StatusConflict, w.Code)
}

// --- Accounting connect ---

func (s *HandlerTestSuite) TestConnectFlow() {
	s.connections.On("StartConnect", mock.Anything, testTenant).Return("https://appcenter.example/connect?state=abc", "abc", nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounting/connect", s.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var stateCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "qbo_connect_state" {
			stateCookie = c
		}
	}
	s.Require().NotNil(stateCookie)
	s.Equal("abc", stateCookie.Value)
	s.True(stateCookie.HttpOnly)

	conn := &domain.Connection{ConnectionID: "conn-1", TenantID: testTenant, RealmID: "realm-9", Status: domain.ConnectionActive, AccessToken: "at-secret", RefreshToken: "rt-secret"}
	s.connections.On("CompleteConnect", mock.Anything, testTenant, "code-1", "realm-9", testUser).Return(conn, nil).Once()

	exchange := dto.ExchangeConnectRequest{Code: "code-1", RealmID: "realm-9", State: "abc"}
	w = s.do(http.MethodPost, "/api/v1/accounting/connect/exchange", s.token, exchange, &http.Cookie{Name: "qbo_connect_state", Value: "abc"})
	s.Require().Equal(http.StatusCreated, w.Code)
	s.NotContains(w.Body.String(), "at-secret")
	s.NotContains(w.Body.String(), "rt-secret")

	var resp dto.ConnectionResponse
	s.decode(w, &resp)
	s.Equal("realm-9", resp.RealmID)
}

func (s *HandlerTestSuite) TestConnectExchange_StateMismatch() {
	exchange := dto.ExchangeConnectRequest{Code: "code-1", RealmID: "realm-9", State: "forged"}

	w := s.do(http.MethodPost, "/api/v1/accounting/connect/exchange", s.token, exchange, &http.Cookie{Name: "qbo_connect_state", Value: "abc"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/accounting/connect/exchange", s.token, exchange)
	s.Equal(http.StatusBadRequest, w.Code)
	s.True(strings.Contains(w.Body.String(), "state"))
}

func (s *HandlerTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("OK", w.Body.String())
}

func TestHealth_DatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rate, err := limiter.NewRateFromFormatted("10-M")
	if err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	handlers.RegisterRoutes(r, &config.Config{IsProduction: true}, &portssvc.ServiceContainer{}, limiter.New(memory.NewStore(), rate),
		func(context.Context) error { return errors.New("connection refused") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/dto"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles manual payments against AR and AP rows.
type paymentHandler struct {
	paymentService portssvc.PaymentSvc
}

func newPaymentHandler(ps portssvc.PaymentSvc) *paymentHandler {
	return &paymentHandler{paymentService: ps}
}

func registerPaymentRoutes(rg *gin.RouterGroup, ps portssvc.PaymentSvc) {
	h := newPaymentHandler(ps)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.recordPayment)
		payments.DELETE("/:paymentID", h.deletePayment)
	}
	rg.POST("/ledger/refresh-overdue", h.refreshOverdue)
}

// recordPayment godoc
// @Summary Record a manual payment
// @Description Applies a payment to exactly one receivable or payable row. Payments above the remaining balance are rejected.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.RecordPaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} apperrors.AppError "Invalid input or overpayment"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} apperrors.AppError "Ledger row not found"
// @Failure 500 {object} apperrors.AppError "Failed to record payment"
// @Security BearerAuth
// @Router /payments [post]
func (h *paymentHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := tenantAndUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID), slog.String("user_id", userID))

	payment, entry, err := h.paymentService.RecordPayment(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to record payment")
		return
	}

	logger.Info("Payment recorded", slog.String("payment_id", payment.PaymentID))
	c.JSON(http.StatusCreated, dto.PaymentResponse{Payment: *payment, Ledger: dto.ToLedgerEntryResponse(entry)})
}

// deletePayment godoc
// @Summary Delete a manual payment
// @Description Removes a manually entered payment and subtracts it from the ledger row, never below zero. Imported payments cannot be deleted.
// @Tags payments
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Success 200 {object} dto.LedgerEntryResponse
// @Failure 400 {object} apperrors.AppError "Imported payment"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} apperrors.AppError "Payment not found"
// @Failure 500 {object} apperrors.AppError "Failed to delete payment"
// @Security BearerAuth
// @Router /payments/{paymentID} [delete]
func (h *paymentHandler) deletePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("paymentID")

	tenantID, userID, ok := tenantAndUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID), slog.String("payment_id", paymentID))

	entry, err := h.paymentService.DeletePayment(c.Request.Context(), tenantID, paymentID, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to delete payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerEntryResponse(entry))
}

// refreshOverdue godoc
// @Summary Refresh overdue statuses
// @Description Flips unpaid open rows whose due date has passed to overdue.
// @Tags ledger
// @Produce  json
// @Success 200 {object} dto.RefreshOverdueResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} apperrors.AppError "Failed to refresh statuses"
// @Security BearerAuth
// @Router /ledger/refresh-overdue [post]
func (h *paymentHandler) refreshOverdue(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	n, err := h.paymentService.RefreshOverdue(c.Request.Context(), tenantID, nowUTC())
	if err != nil {
		respondWithError(c, logger, err, "Failed to refresh overdue statuses")
		return
	}
	c.JSON(http.StatusOK, dto.RefreshOverdueResponse{Updated: n})
}

package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/dto"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/gin-gonic/gin"
)

type invoiceHandler struct {
	billingService portssvc.BillingSvc
}

func registerInvoiceRoutes(rg *gin.RouterGroup, bs portssvc.BillingSvc) {
	h := &invoiceHandler{billingService: bs}
	rg.POST("/invoices", h.generateInvoice)
}

// generateInvoice godoc
// @Summary Generate an invoice
// @Description Builds fee and profit-share lines for a company, stores the invoice with its receivable row, and leaves it for the next sync to push.
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoice body dto.GenerateInvoiceRequest true "Invoice inputs"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} apperrors.AppError "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} apperrors.AppError "Company not found"
// @Failure 409 {object} apperrors.AppError "Invoice number already used"
// @Failure 500 {object} apperrors.AppError "Failed to generate invoice"
// @Security BearerAuth
// @Router /invoices [post]
func (h *invoiceHandler) generateInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for GenerateInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := tenantAndUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	logger = logger.With(slog.String("tenant_id", tenantID), slog.String("company_id", req.CompanyID))

	invoice, lines, err := h.billingService.GenerateInvoice(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to generate invoice")
		return
	}
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(invoice, lines))
}

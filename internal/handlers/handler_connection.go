package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/dto"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/gin-gonic/gin"
)

const (
	connectStateCookie = "qbo_connect_state"
	connectStateMaxAge = 600 // seconds
)

// connectionHandler drives the operator-facing OAuth consent flow that
// creates a tenant's accounting connection.
type connectionHandler struct {
	connectionService portssvc.ConnectionSvc
	secureCookies     bool
}

func registerConnectionRoutes(rg *gin.RouterGroup, cs portssvc.ConnectionSvc, secureCookies bool) {
	h := &connectionHandler{connectionService: cs, secureCookies: secureCookies}

	accounting := rg.Group("/accounting/connect")
	{
		accounting.GET("", h.startConnect)
		accounting.POST("/exchange", h.exchangeCode)
	}
}

// startConnect godoc
// @Summary Start connecting an accounting company
// @Description Returns the provider consent URL and sets an HttpOnly state cookie checked on exchange.
// @Tags accounting
// @Produce  json
// @Success 200 {object} dto.StartConnectResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} apperrors.AppError "Failed to start connect flow"
// @Security BearerAuth
// @Router /accounting/connect [get]
func (h *connectionHandler) startConnect(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	authURL, state, err := h.connectionService.StartConnect(c.Request.Context(), tenantID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to start connect flow")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(connectStateCookie, state, connectStateMaxAge, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, dto.StartConnectResponse{AuthorizationURL: authURL, State: state})
}

// exchangeCode godoc
// @Summary Complete connecting an accounting company
// @Description Exchanges the authorization code and stores a new active connection, expiring any previous one.
// @Tags accounting
// @Accept  json
// @Produce  json
// @Param   exchange body dto.ExchangeConnectRequest true "Code, realm and state from the provider redirect"
// @Success 201 {object} dto.ConnectionResponse
// @Failure 400 {object} apperrors.AppError "Invalid code or state"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} apperrors.AppError "Failed to complete connect flow"
// @Security BearerAuth
// @Router /accounting/connect/exchange [post]
func (h *connectionHandler) exchangeCode(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ExchangeConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperrors.NewBadRequestError("Invalid request payload: " + err.Error())
		c.JSON(appErr.Code, appErr)
		return
	}

	tenantID, userID, ok := tenantAndUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expected, err := c.Cookie(connectStateCookie)
	if err != nil || subtle.ConstantTimeCompare([]byte(expected), []byte(req.State)) != 1 {
		logger.Warn("Connect state mismatch", slog.String("tenant_id", tenantID))
		appErr := apperrors.NewBadRequestError("state does not match the connect request")
		c.JSON(appErr.Code, appErr)
		return
	}

	conn, err := h.connectionService.CompleteConnect(c.Request.Context(), tenantID, req.Code, req.RealmID, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to complete connect flow")
		return
	}

	// one-shot state
	c.SetCookie(connectStateCookie, "", -1, "/", "", h.secureCookies, true)
	logger.Info("Accounting connection created", slog.String("tenant_id", tenantID), slog.String("realm_id", conn.RealmID))
	c.JSON(http.StatusCreated, dto.ToConnectionResponse(conn))
}

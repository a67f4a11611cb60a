package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondWithError logs err and writes it as an AppError body. Server errors
// get the generic fallback message so internals do not leak to callers.
func respondWithError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	code := apperrors.StatusCode(err)
	if code >= http.StatusInternalServerError {
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(code, apperrors.NewAppError(code, fallback, nil))
		return
	}
	logger.Warn(fallback, slog.String("error", err.Error()))
	c.JSON(code, apperrors.NewAppError(code, err.Error(), nil))
}

// tenantAndUser reads the JWT identity set by AuthMiddleware.
func tenantAndUser(c *gin.Context) (tenantID, userID string, ok bool) {
	tenantID, tok := middleware.GetTenantIDFromContext(c)
	userID, uok := middleware.GetUserIDFromContext(c)
	return tenantID, userID, tok && uok
}

func nowUTC() time.Time { return time.Now().UTC() }

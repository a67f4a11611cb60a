package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/gin-gonic/gin"
)

// healthCheck godoc
// @Summary Show the status of server.
// @Description Liveness check. Pings the database when ENABLE_DB_CHECK is set.
// @Tags root
// @Produce plain
// @Success 200 {string} string "OK"
// @Failure 503 {string} string "database unavailable"
// @Router /health [get]
func healthCheck(dbCheck func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if dbCheck != nil {
			if err := dbCheck(c.Request.Context()); err != nil {
				middleware.GetLoggerFromCtx(c.Request.Context()).Error("Health check failed", slog.String("error", err.Error()))
				c.String(http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		c.String(http.StatusOK, "OK")
	}
}

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/dto"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/gin-gonic/gin"
)

type syncHandler struct {
	scheduler       portssvc.SyncSchedulerSvc
	defaultTenantID string
	now             func() time.Time
}

func newSyncHandler(scheduler portssvc.SyncSchedulerSvc, defaultTenantID string) *syncHandler {
	return &syncHandler{
		scheduler:       scheduler,
		defaultTenantID: defaultTenantID,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// registerSyncRoutes mounts the cron trigger and status endpoints. Both are
// guarded by the shared secret; only the trigger is rate limited.
func registerSyncRoutes(r gin.IRouter, h *syncHandler, secret gin.HandlerFunc, limit gin.HandlerFunc) {
	sync := r.Group("/sync", secret)
	{
		sync.POST("", limit, h.triggerSync)
		sync.GET("/status", h.getSyncStatus)
	}
}

func (h *syncHandler) tenant(requested string) string {
	if requested != "" {
		return requested
	}
	return h.defaultTenantID
}

// triggerSync godoc
// @Summary Run a sync
// @Description Runs a full (token-gated unless force=true) or bidirectional sync for a tenant.
// @Description A skipped run answers 200 with ok=false and skipped=true.
// @Tags sync
// @Produce  json
// @Param   mode      query string false "full or bidirectional" Enums(full, bidirectional)
// @Param   force     query bool   false "bypass the token gate for full runs"
// @Param   tenant_id query string false "tenant, defaults to DEFAULT_TENANT_ID"
// @Success 200 {object} dto.TriggerSyncResponse
// @Failure 400 {object} dto.TriggerSyncResponse "Invalid parameters"
// @Failure 401 {object} dto.TriggerSyncResponse "Bad shared secret"
// @Failure 429 {object} map[string]string "Rate limited"
// @Failure 500 {object} dto.TriggerSyncResponse "Lock or storage failure"
// @Security SyncSecret
// @Router /sync [post]
func (h *syncHandler) triggerSync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.TriggerSyncParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid sync trigger parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.TriggerSyncResponse{OK: false, Error: "invalid parameters: " + err.Error()})
		return
	}
	tenantID := h.tenant(params.TenantID)
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, dto.TriggerSyncResponse{OK: false, Error: "tenant_id is required"})
		return
	}
	if params.Mode == "" {
		params.Mode = domain.SyncModeFull
	}

	logger = logger.With(slog.String("tenant_id", tenantID), slog.String("mode", string(params.Mode)), slog.Bool("force", params.Force))
	logger.Info("Sync triggered")

	ctx := middleware.WithLogger(c.Request.Context(), logger)
	var (
		result  *domain.SyncResult
		skipped *domain.Skipped
		err     error
	)
	if params.Mode == domain.SyncModeFull && !params.Force {
		result, skipped, err = h.scheduler.MaybeRun(ctx, tenantID, h.now())
	} else {
		result, skipped, err = h.scheduler.Run(ctx, tenantID, params.Mode, h.now())
	}

	switch {
	case err != nil:
		code := apperrors.StatusCode(err)
		logger.Error("Sync could not start", slog.String("error", err.Error()))
		c.JSON(code, dto.TriggerSyncResponse{OK: false, Error: err.Error()})
	case skipped != nil:
		logger.Info("Sync skipped", slog.String("reason", skipped.Reason))
		resp := dto.TriggerSyncResponse{OK: false, Error: skipped.Reason, Skipped: true}
		if !skipped.NextEligibleAt.IsZero() {
			resp.NextEligibleAt = skipped.NextEligibleAt.Format(time.RFC3339)
		}
		c.JSON(http.StatusOK, resp)
	default:
		c.JSON(http.StatusOK, dto.TriggerSyncResponse{OK: result.Status != domain.SyncFailed, Results: result})
	}
}

// getSyncStatus godoc
// @Summary Sync status
// @Description Connection state, pending pushes, the last run with its errors, and paged run history.
// @Tags sync
// @Produce  json
// @Param   tenant_id  query string false "tenant, defaults to DEFAULT_TENANT_ID"
// @Param   limit      query int    false "history page size" default(10)
// @Param   next_token query string false "token from a previous page"
// @Success 200 {object} dto.SyncStatusResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 401 {object} map[string]string "Bad shared secret"
// @Failure 500 {object} map[string]string "Failed to load status"
// @Security SyncSecret
// @Router /sync/status [get]
func (h *syncHandler) getSyncStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.SyncStatusParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondWithError(c, logger, apperrors.NewBadRequestError("invalid parameters: "+err.Error()), "Invalid sync status parameters")
		return
	}
	tenantID := h.tenant(params.TenantID)
	if tenantID == "" {
		respondWithError(c, logger, apperrors.NewBadRequestError("tenant_id is required"), "Missing tenant")
		return
	}

	status, err := h.scheduler.Status(c.Request.Context(), tenantID, params.Limit, params.NextToken)
	if err != nil {
		respondWithError(c, logger, err, "Failed to load sync status")
		return
	}
	c.JSON(http.StatusOK, toSyncStatusResponse(status))
}

// toSyncStatusResponse flattens the service status. Lists are never null.
func toSyncStatusResponse(s *portssvc.SyncStatus) dto.SyncStatusResponse {
	resp := dto.SyncStatusResponse{
		ConnectionActive: s.ConnectionActive,
		LastSync:         s.LastSync,
		LastErrors:       []string{},
		PendingSync:      s.Pending,
		SyncHistory:      s.History,
		NextToken:        s.NextToken,
	}
	if s.LastSync != nil && s.LastSync.Errors != nil {
		resp.LastErrors = s.LastSync.Errors
	}
	if resp.SyncHistory == nil {
		resp.SyncHistory = []domain.SyncRun{}
	}
	return resp
}

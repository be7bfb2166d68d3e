package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/application/ledgersync"
	"github.com/retailops/ledgersync/internal/domain/ledger"
	"github.com/retailops/ledgersync/internal/domain/shared"
	"github.com/retailops/ledgersync/internal/infrastructure/scheduler"
	"github.com/retailops/ledgersync/internal/interfaces/http/dto"
)

// QueueAdmin is the queue inspection and operator action surface
type QueueAdmin interface {
	ListJobs(ctx context.Context, filter ledgersync.JobListFilter) (*ledgersync.JobListResult, error)
	GetJob(ctx context.Context, id uuid.UUID) (*ledgersync.SyncJobDTO, error)
	RequeueJob(ctx context.Context, id uuid.UUID) (*ledgersync.SyncJobDTO, error)
	RequeueAllFailed(ctx context.Context) (int64, error)
	GetStats(ctx context.Context) (*ledgersync.QueueStatsDTO, error)
}

// ReconcileTrigger starts an on-demand reconciliation pass
type ReconcileTrigger interface {
	TriggerNow() error
	GetRunHistory(limit int) []*scheduler.ReconcileRun
}

// SettingsStore reads and writes the integration settings row
type SettingsStore interface {
	Get(ctx context.Context) (ledger.Settings, error)
	Save(ctx context.Context, settings ledger.Settings) error
}

// SettingsInvalidator drops cached settings after a save
type SettingsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// LedgerHandler handles the ledger integration admin endpoints
type LedgerHandler struct {
	queueAdmin  QueueAdmin
	prober      ledger.HealthProber
	reconciler  ReconcileTrigger
	settings    SettingsStore
	invalidator SettingsInvalidator
	logger      *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(
	queueAdmin QueueAdmin,
	prober ledger.HealthProber,
	reconciler ReconcileTrigger,
	settings SettingsStore,
	invalidator SettingsInvalidator,
	logger *zap.Logger,
) *LedgerHandler {
	return &LedgerHandler{
		queueAdmin:  queueAdmin,
		prober:      prober,
		reconciler:  reconciler,
		settings:    settings,
		invalidator: invalidator,
		logger:      logger,
	}
}

// RegisterRoutes registers the ledger admin routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/ledger")
	g.GET("/health", h.Health)
	g.GET("/stats", h.GetStats)
	g.GET("/jobs", h.ListJobs)
	g.GET("/jobs/:id", h.GetJob)
	g.POST("/jobs/:id/requeue", h.RequeueJob)
	g.POST("/jobs/requeue-all", h.RequeueAllFailed)
	g.POST("/reconcile", h.TriggerReconcile)
	g.GET("/reconcile/runs", h.ReconcileRuns)
	g.GET("/settings", h.GetSettings)
	g.PUT("/settings", h.UpdateSettings)
}

// HealthResponse reports the ledger system's reachability
type HealthResponse struct {
	Enabled   bool   `json:"enabled"`
	Online    bool   `json:"online"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Health probes the ledger system and reports reachability
func (h *LedgerHandler) Health(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := HealthResponse{Enabled: settings.Enabled}
	if settings.Enabled {
		status := h.prober.Probe(c.Request.Context())
		resp.Online = status.Online
		resp.LatencyMs = status.Latency.Milliseconds()
		resp.Error = status.Err
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetStats returns sync queue counts by status
func (h *LedgerHandler) GetStats(c *gin.Context) {
	stats, err := h.queueAdmin.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// ListJobs returns a paginated sync job listing
func (h *LedgerHandler) ListJobs(c *gin.Context) {
	var filter ledgersync.JobListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_INPUT", err.Error()))
		return
	}

	result, err := h.queueAdmin.ListJobs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// GetJob returns a single sync job
func (h *LedgerHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_INPUT", "invalid job id"))
		return
	}

	job, err := h.queueAdmin.GetJob(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(job))
}

// RequeueJob clones a terminally failed job into a fresh pending one
func (h *LedgerHandler) RequeueJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_INPUT", "invalid job id"))
		return
	}

	job, err := h.queueAdmin.RequeueJob(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(job))
}

// RequeueAllFailedResponse reports how many jobs were requeued
type RequeueAllFailedResponse struct {
	Requeued int64 `json:"requeued"`
}

// RequeueAllFailed clones every terminally failed job
func (h *LedgerHandler) RequeueAllFailed(c *gin.Context) {
	count, err := h.queueAdmin.RequeueAllFailed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(RequeueAllFailedResponse{Requeued: count}))
}

// TriggerReconcile starts an on-demand stock reconciliation pass
func (h *LedgerHandler) TriggerReconcile(c *gin.Context) {
	if err := h.reconciler.TriggerNow(); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrReconcileInProgress):
			c.JSON(http.StatusConflict, dto.NewErrorResponse("RECONCILE_IN_PROGRESS", err.Error()))
		case errors.Is(err, scheduler.ErrSchedulerNotRunning):
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse("SCHEDULER_STOPPED", err.Error()))
		default:
			respondError(c, err)
		}
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"triggered": true}))
}

// ReconcileRuns returns recent reconciliation run history
func (h *LedgerHandler) ReconcileRuns(c *gin.Context) {
	runs := h.reconciler.GetRunHistory(20)
	c.JSON(http.StatusOK, dto.NewSuccessResponse(runs))
}

// SettingsRequest is the update payload for integration settings
type SettingsRequest struct {
	Enabled     bool   `json:"enabled"`
	Endpoint    string `json:"endpoint"`
	CompanyName string `json:"company_name"`
}

// SettingsResponse mirrors the stored integration settings
type SettingsResponse struct {
	Enabled     bool   `json:"enabled"`
	Endpoint    string `json:"endpoint"`
	CompanyName string `json:"company_name"`
}

// GetSettings returns the current integration settings
func (h *LedgerHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(SettingsResponse{
		Enabled:     settings.Enabled,
		Endpoint:    settings.Endpoint,
		CompanyName: settings.CompanyName,
	}))
}

// UpdateSettings writes the integration settings and invalidates the cache so
// the dispatcher and processor see the change within one read
func (h *LedgerHandler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_INPUT", err.Error()))
		return
	}
	if req.Enabled && req.Endpoint == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_INPUT", "endpoint is required when the integration is enabled"))
		return
	}

	settings := ledger.Settings{
		Enabled:     req.Enabled,
		Endpoint:    req.Endpoint,
		CompanyName: req.CompanyName,
	}
	if err := h.settings.Save(c.Request.Context(), settings); err != nil {
		respondError(c, err)
		return
	}

	if err := h.invalidator.Invalidate(c.Request.Context()); err != nil {
		// The save succeeded; stale caches expire within the TTL
		h.logger.Warn("Failed to invalidate settings cache", zap.Error(err))
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(SettingsResponse{
		Enabled:     settings.Enabled,
		Endpoint:    settings.Endpoint,
		CompanyName: settings.CompanyName,
	}))
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := http.StatusInternalServerError
		switch domainErr.Code {
		case "JOB_NOT_FOUND", "NOT_FOUND":
			status = http.StatusNotFound
		case "INVALID_STATUS", "INVALID_STATE":
			status = http.StatusConflict
		case "INVALID_INPUT":
			status = http.StatusBadRequest
		}
		c.JSON(status, dto.NewErrorResponse(domainErr.Code, domainErr.Message))
		return
	}
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("INTERNAL_ERROR", err.Error()))
}

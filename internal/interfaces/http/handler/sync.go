package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retailops/ledgersync/internal/infrastructure/syncqueue"
	"github.com/retailops/ledgersync/internal/interfaces/http/dto"
)

// TransactionSyncer drives a business transaction through its sync phases
type TransactionSyncer interface {
	SyncOrder(ctx context.Context, orderID uuid.UUID) error
	SyncStockEntry(ctx context.Context, entryID uuid.UUID) error
	SyncProcurementRequest(ctx context.Context, requestID uuid.UUID) error
}

// QueueDrainer runs one queue drain cycle on demand
type QueueDrainer interface {
	RunOnce(ctx context.Context) syncqueue.DrainStats
}

// SyncHandler exposes operator-triggered sync and drain actions
type SyncHandler struct {
	syncer  TransactionSyncer
	drainer QueueDrainer
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncer TransactionSyncer, drainer QueueDrainer) *SyncHandler {
	return &SyncHandler{
		syncer:  syncer,
		drainer: drainer,
	}
}

// RegisterRoutes registers the sync trigger routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/ledger")
	g.POST("/sync/orders/:id", h.syncEntity(h.syncer.SyncOrder))
	g.POST("/sync/stock-entries/:id", h.syncEntity(h.syncer.SyncStockEntry))
	g.POST("/sync/procurements/:id", h.syncEntity(h.syncer.SyncProcurementRequest))
	g.POST("/queue/drain", h.DrainQueue)
}

// syncEntity parses the entity id and runs the given sync phase sequence.
// Dispatch outcomes (sent vs queued) are not surfaced here; the job listing
// and the entity's own sync status carry them.
func (h *SyncHandler) syncEntity(sync func(ctx context.Context, id uuid.UUID) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_INPUT", "invalid entity id"))
			return
		}

		if err := sync(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"synced": true}))
	}
}

// DrainStatsResponse reports the outcome of an on-demand drain
type DrainStatsResponse struct {
	Processed int `json:"processed"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
}

// DrainQueue runs a single queue drain cycle and reports what it did
func (h *SyncHandler) DrainQueue(c *gin.Context) {
	stats := h.drainer.RunOnce(c.Request.Context())
	c.JSON(http.StatusOK, dto.NewSuccessResponse(DrainStatsResponse{
		Processed: stats.Processed,
		Synced:    stats.Synced,
		Failed:    stats.Failed,
	}))
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"oip/autopurchase/internal/business/orchestrator"
	"oip/autopurchase/internal/business/selector"
	"oip/autopurchase/internal/model"
	"oip/autopurchase/pkg/ginx"
)

// HealthData is the body of GET /health
type HealthData struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	OrderService     string `json:"order_service"`
	OrderServiceErr  string `json:"order_service_error,omitempty"`
	SchedulerRunning bool   `json:"scheduler_running"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
}

// SelectionData is the body of POST /select-provider
type SelectionData struct {
	Selection  *model.SupplierSelection `json:"selection"`
	Candidates []selector.Candidate     `json:"candidates"`
}

// StatsData is the body of GET /stats
type StatsData struct {
	Orchestrator          orchestrator.Stats `json:"orchestrator"`
	AvailabilityCacheSize int                `json:"availability_cache_size"`
}

// Health reports the engine and order service state.
// GET /health
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	data := HealthData{
		Status:        "ok",
		Service:       "autopurchase",
		OrderService:  "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}
	if h.scheduler != nil {
		data.SchedulerRunning = h.scheduler.Running()
	}

	if resp := h.orders.HealthCheck(ctx); !resp.Success {
		data.Status = "degraded"
		data.OrderService = "unavailable"
		data.OrderServiceErr = resp.Error
		h.logger.Warnf(ctx, "[HTTP] order service unhealthy: %s", resp.Error)
		c.JSON(http.StatusServiceUnavailable, ginx.Response{
			Meta: ginx.Meta{Code: http.StatusServiceUnavailable, Message: "order service unavailable"},
			Data: data,
		})
		return
	}

	ginx.Success(c, data)
}

// SelectProvider returns the best supplier and every ranked candidate.
// POST /select-provider
func (h *Handler) SelectProvider(c *gin.Context) {
	var criteria model.SelectionCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	ctx := c.Request.Context()
	selection, err := h.selector.SelectBest(ctx, criteria)
	if err != nil {
		ginx.FromError(c, err)
		return
	}

	ginx.Success(c, SelectionData{
		Selection:  selection,
		Candidates: h.selector.Rank(ctx, criteria),
	})
}

// Purchase buys one line item synchronously.
// POST /purchase
func (h *Handler) Purchase(c *gin.Context) {
	var req model.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	result := h.purchaser.ExecutePurchase(c.Request.Context(), &req)
	if !result.Success {
		ginx.ErrorWithData(c, http.StatusUnprocessableEntity, result.ErrorCode, result.Error, result)
		return
	}

	ginx.Success(c, result)
}

// Stats returns the orchestrator counters and cache size.
// GET /stats
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	ginx.Success(c, StatsData{
		Orchestrator:          h.orchestrator.Stats(ctx),
		AvailabilityCacheSize: h.cache.CacheSize(ctx),
	})
}

// ProcessPending runs one processing cycle now.
// POST /process-pending
func (h *Handler) ProcessPending(c *gin.Context) {
	summary, err := h.orchestrator.ProcessPending(c.Request.Context())
	if err != nil {
		ginx.FromError(c, err)
		return
	}

	ginx.Success(c, summary)
}

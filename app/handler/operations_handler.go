package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tripops/internal/model"
	"tripops/pkg/breaker"
	"tripops/pkg/config"
	"tripops/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// dashboardBuilder builds the operations dashboard snapshot.
type dashboardBuilder interface {
	BuildSnapshot(ctx context.Context) (*model.DashboardSnapshot, error)
}

// breakerAdmin exposes the breaker operations reachable from the back-office.
type breakerAdmin interface {
	Reset(ctx context.Context, service string) error
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins, production should use stricter checks
	},
}

// OperationsHandler handles operations dashboard HTTP requests
type OperationsHandler struct {
	dashboard dashboardBuilder
	breakers  breakerAdmin
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(dashboard dashboardBuilder, breakers breakerAdmin) *OperationsHandler {
	return &OperationsHandler{
		dashboard: dashboard,
		breakers:  breakers,
	}
}

// GetDashboard returns the aggregated operations dashboard
// @Summary Get operations dashboard
// @Description Aggregated health, queue, failure and schedule view for the admin back-office
// @Tags operations
// @Produce json
// @Success 200 {object} model.DashboardSnapshot
// @Router /api/operations/dashboard [get]
func (h *OperationsHandler) GetDashboard(c *gin.Context) {
	snapshot, err := h.dashboard.BuildSnapshot(c.Request.Context())
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to build operations dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch operations dashboard"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// StreamDashboard pushes dashboard snapshots over a WebSocket
// @Summary Stream operations dashboard
// @Description WebSocket stream of dashboard snapshots at the configured push interval
// @Tags operations
// @Router /api/operations/dashboard/stream [get]
func (h *OperationsHandler) StreamDashboard(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to upgrade to websocket: %v", err)
		return
	}
	defer ws.Close()

	// Drain the read side so close frames are processed.
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := time.Duration(config.GlobalConfig.Stream.PushIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		snapshot, err := h.dashboard.BuildSnapshot(ctx)
		if err != nil {
			logger.WarnCtx(ctx, "dashboard stream build failed: %v", err)
			if werr := ws.WriteJSON(gin.H{"error": "Failed to fetch operations dashboard"}); werr != nil {
				return
			}
		} else if err := ws.WriteJSON(snapshot); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ResetBreaker clears one circuit breaker back to closed
// @Summary Reset a circuit breaker
// @Description Force one external service's breaker back to the closed state
// @Tags operations
// @Produce json
// @Param service path string true "Service name"
// @Router /api/operations/circuit-breakers/{service}/reset [post]
func (h *OperationsHandler) ResetBreaker(c *gin.Context) {
	service := c.Param("service")

	if err := h.breakers.Reset(c.Request.Context(), service); err != nil {
		if errors.Is(err, breaker.ErrUnknownService) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown service: " + service})
			return
		}
		logger.ErrorCtx(c.Request.Context(), "failed to reset breaker for %s: %v", service, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.InfoCtx(c.Request.Context(), "circuit breaker reset, service: %s", service)
	c.JSON(http.StatusOK, gin.H{"service": service, "state": model.BreakerClosed})
}

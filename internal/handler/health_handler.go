// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nano-bridge/internal/config"
	"nano-bridge/internal/model"
	"nano-bridge/internal/utils"
)

// BridgeStatusProvider exposes the board connection state
type BridgeStatusProvider interface {
	IsConnected() bool
	Status() *model.BridgeStatus
}

// HealthHandler handles health check requests
type HealthHandler struct {
	bridge    BridgeStatusProvider
	config    *config.Config
	logger    *utils.ServiceLogger
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(bridge BridgeStatusProvider, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		bridge:    bridge,
		config:    config,
		logger:    utils.NewServiceLogger(logger, "health-handler"),
		startedAt: time.Now(),
	}
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Get overall service health including the board connection
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is up"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startedAt).String(),
		Checks:    make(map[string]CheckResult),
	}

	status := h.bridge.Status()
	if status.Connected {
		health.Checks["board"] = CheckResult{
			Status:  "healthy",
			Message: "Board connected",
			Data: map[string]interface{}{
				"port":         status.Port,
				"connected_at": status.ConnectedAt,
			},
		}
	} else {
		// the service still answers block calls while the board is away
		health.Status = "degraded"
		health.Checks["board"] = CheckResult{
			Status:  "disconnected",
			Message: "No board connected",
		}
	}

	c.JSON(http.StatusOK, health)
}

// ReadinessCheck reports whether a board is connected
// @Summary Readiness check
// @Description Ready once a board is connected
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Board connected"
// @Failure 503 {object} object{status=string,reason=string} "No board connected"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if !h.bridge.IsConnected() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "board not connected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for liveness probes
// @Summary Liveness check
// @Description Check if service is alive
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

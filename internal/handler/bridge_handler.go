// internal/handler/bridge_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nano-bridge/internal/utils"
)

// BridgeHandler exposes the bridge state
type BridgeHandler struct {
	bridge BridgeStatusProvider
	logger *utils.ServiceLogger
}

// NewBridgeHandler creates a new bridge handler
func NewBridgeHandler(bridge BridgeStatusProvider, logger *zap.Logger) *BridgeHandler {
	return &BridgeHandler{
		bridge: bridge,
		logger: utils.NewServiceLogger(logger, "bridge-handler"),
	}
}

// GetStatus returns the connection state and the cached readings
// @Summary Bridge status
// @Description Connection state plus the last analog, digital and pulse values received
// @Tags Bridge
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.BridgeStatus} "Bridge status"
// @Router /bridge/status [get]
func (h *BridgeHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Bridge status retrieved", h.bridge.Status())
}

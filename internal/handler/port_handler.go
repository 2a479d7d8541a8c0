// internal/handler/port_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nano-bridge/internal/discovery"
	"nano-bridge/internal/utils"
)

// PortChooser lists ports and holds the host's choice
type PortChooser interface {
	Scan(ctx context.Context) ([]*discovery.DiscoveredPort, error)
	Choose(name string)
	Clear()
	Chosen() string
}

// PortHandler handles port discovery and selection
type PortHandler struct {
	chooser     PortChooser
	logger      *utils.ServiceLogger
	scanTimeout time.Duration
}

// NewPortHandler creates a new port handler
func NewPortHandler(chooser PortChooser, logger *zap.Logger) *PortHandler {
	return &PortHandler{
		chooser:     chooser,
		logger:      utils.NewServiceLogger(logger, "port-handler"),
		scanTimeout: 10 * time.Second,
	}
}

// SelectPortRequest names the port the next connect opens
type SelectPortRequest struct {
	Port string `json:"port" binding:"required" example:"/dev/ttyUSB0"`
}

// ListPorts scans serial ports
// @Summary List serial ports
// @Description Enumerate serial ports, best Nano candidates first
// @Tags Ports
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{ports=[]discovery.DiscoveredPort,selected=string}} "Ports listed"
// @Failure 500 {object} utils.APIResponse "Scan failed"
// @Router /ports [get]
func (h *PortHandler) ListPorts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.scanTimeout)
	defer cancel()

	ports, err := h.chooser.Scan(ctx)
	if err != nil {
		utils.LogError(h.logger.Logger, "Failed to scan ports", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to scan ports", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Ports listed", gin.H{
		"ports":    ports,
		"selected": h.chooser.Chosen(),
	})
}

// SelectPort records the host's port choice
// @Summary Select port
// @Description Choose the port the next connect block opens
// @Tags Ports
// @Accept json
// @Produce json
// @Param request body SelectPortRequest true "Port to use"
// @Success 200 {object} utils.APIResponse{data=object{selected=string}} "Port selected"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Router /ports/selection [put]
func (h *PortHandler) SelectPort(c *gin.Context) {
	var req SelectPortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"port": "port is required"})
		return
	}

	h.chooser.Choose(req.Port)
	h.logger.Info("Port selected", zap.String("port", req.Port))

	utils.SuccessResponse(c, http.StatusOK, "Port selected", gin.H{"selected": req.Port})
}

// ClearSelection forgets the host's port choice
// @Summary Clear port selection
// @Description Fall back to the configured port or auto-detection
// @Tags Ports
// @Produce json
// @Success 200 {object} utils.APIResponse "Selection cleared"
// @Router /ports/selection [delete]
func (h *PortHandler) ClearSelection(c *gin.Context) {
	h.chooser.Clear()
	utils.SuccessResponse(c, http.StatusOK, "Selection cleared", nil)
}

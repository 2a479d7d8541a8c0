// internal/handler/extension_handler.go
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nano-bridge/internal/extension"
	"nano-bridge/internal/utils"
)

// ExtensionHandler serves extension descriptors and block invocations
type ExtensionHandler struct {
	registry       *extension.Registry
	logger         *utils.ServiceLogger
	connectTimeout time.Duration
}

// NewExtensionHandler creates a new extension handler. connectTimeout
// bounds a connect block, which waits for port selection and board reset.
func NewExtensionHandler(registry *extension.Registry, connectTimeout time.Duration, logger *zap.Logger) *ExtensionHandler {
	return &ExtensionHandler{
		registry:       registry,
		logger:         utils.NewServiceLogger(logger, "extension-handler"),
		connectTimeout: connectTimeout,
	}
}

// BlockResult is the value a block produced
type BlockResult struct {
	Extension string      `json:"extension"`
	Opcode    string      `json:"opcode"`
	Value     interface{} `json:"value"`
}

// ListExtensions returns all descriptors
// @Summary List extensions
// @Description Descriptors of every loaded extension
// @Tags Extensions
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]extension.Info} "Extensions listed"
// @Router /extensions [get]
func (h *ExtensionHandler) ListExtensions(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Extensions listed", h.registry.List())
}

// GetExtension returns one descriptor
// @Summary Get extension
// @Description Descriptor the editor builds its palette from
// @Tags Extensions
// @Produce json
// @Param id path string true "Extension ID" example(arduinoNanoUSB)
// @Success 200 {object} utils.APIResponse{data=extension.Info} "Extension found"
// @Failure 404 {object} utils.APIResponse "Extension not found"
// @Router /extensions/{id} [get]
func (h *ExtensionHandler) GetExtension(c *gin.Context) {
	ext, err := h.registry.Get(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Extension not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Extension found", ext.Info())
}

// InvokeBlock runs one block
// @Summary Invoke block
// @Description Run a block with its arguments. Reporters return the last value the board sent.
// @Tags Extensions
// @Accept json
// @Produce json
// @Param id path string true "Extension ID" example(arduinoNanoUSB)
// @Param opcode path string true "Block opcode" example(analogRead)
// @Param args body object false "Block arguments, e.g. {\"PIN\": 0}"
// @Success 200 {object} utils.APIResponse{data=BlockResult} "Block completed"
// @Failure 400 {object} utils.APIResponse "Invalid request body"
// @Failure 404 {object} utils.APIResponse "Unknown extension or opcode"
// @Failure 422 {object} utils.APIResponse "Invalid argument"
// @Router /extensions/{id}/blocks/{opcode} [post]
func (h *ExtensionHandler) InvokeBlock(c *gin.Context) {
	var args map[string]interface{}
	if err := c.ShouldBindJSON(&args); err != nil && !errors.Is(err, io.EOF) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.invoke(c.Request.Context(), c.Param("id"), c.Param("opcode"), args)
	if err != nil {
		status := blockErrorStatus(err)
		h.logger.Warn("Block invocation rejected",
			zap.String("request_id", c.GetString(utils.RequestIDKey)),
			zap.Error(err),
		)
		utils.ErrorResponse(c, status, "Block invocation failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Block completed", result)
}

func (h *ExtensionHandler) invoke(ctx context.Context, id, opcode string, args map[string]interface{}) (*BlockResult, error) {
	ext, err := h.registry.Get(id)
	if err != nil {
		return nil, err
	}

	if h.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.connectTimeout)
		defer cancel()
	}

	value, err := ext.Invoke(ctx, opcode, args)
	if err != nil {
		return nil, err
	}

	return &BlockResult{Extension: id, Opcode: opcode, Value: value}, nil
}

func blockErrorStatus(err error) int {
	switch {
	case errors.Is(err, extension.ErrUnknownExtension), errors.Is(err, extension.ErrUnknownOpcode):
		return http.StatusNotFound
	case errors.Is(err, extension.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// internal/handler/websocket_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nano-bridge/internal/model"
	"nano-bridge/internal/utils"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// WebSocketHandler streams bridge events and runs blocks sent by clients
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	extensions  *ExtensionHandler
	bridge      BridgeStatusProvider
	eventBus    *EventBus
	logger      *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler. An empty
// allowedOrigins accepts every origin.
func NewWebSocketHandler(
	extensions *ExtensionHandler,
	bridge BridgeStatusProvider,
	eventBus *EventBus,
	allowedOrigins []string,
	logger *zap.Logger,
) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(allowedOrigins),
	}

	return &WebSocketHandler{
		upgrader:    upgrader,
		connections: NewConnectionManager(),
		extensions:  extensions,
		bridge:      bridge,
		eventBus:    eventBus,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}

	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// HandleEventConnection upgrades to the event stream
// @Summary Bridge event stream
// @Description WebSocket carrying bridge events. Clients may send block, status and ping messages.
// @Tags WebSocket
// @Success 101 "Switching protocols"
// @Router /ws/events [get]
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
		done:        make(chan struct{}),
	}

	subscriptionID, events := h.eventBus.Subscribe()

	h.connections.Register(client)
	h.logger.Info("Event WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	h.sendMessage(client, &WebSocketMessage{
		Type:      MessageInitialStatus,
		Data:      h.bridge.Status(),
		Timestamp: time.Now(),
	})

	go h.handleClientWrite(client, events)
	go h.handleClientRead(client, subscriptionID)
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client, subscriptionID string) {
	defer func() {
		h.eventBus.Unsubscribe(subscriptionID)
		h.connections.Unregister(client)
		client.Connection.Close()
		h.logger.Info("Event WebSocket client disconnected", zap.String("client_id", client.ID))
	}()

	client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			return
		}

		var message IncomingMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.logger.Warn("Failed to parse WebSocket message",
				zap.Error(err),
				zap.String("client_id", client.ID),
			)
			h.sendError(client, "", "invalid message")
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite writes queued messages and bridge events to the client
func (h *WebSocketHandler) handleClientWrite(client *Client, events <-chan model.BridgeEvent) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case <-client.done:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-client.Send:
			if err := h.write(client, message); err != nil {
				return
			}

		case event, ok := <-events:
			if !ok {
				client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
				client.Connection.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			message, err := json.Marshal(&WebSocketMessage{
				Type:      MessageBridgeEvent,
				Data:      event,
				Timestamp: event.Timestamp,
			})
			if err != nil {
				h.logger.Error("Failed to marshal bridge event", zap.Error(err))
				continue
			}
			if err := h.write(client, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) write(client *Client, message []byte) error {
	client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
		h.logger.Warn("WebSocket write error",
			zap.Error(err),
			zap.String("client_id", client.ID),
		)
		return err
	}
	return nil
}

// handleClientMessage handles incoming client messages
func (h *WebSocketHandler) handleClientMessage(client *Client, message *IncomingMessage) {
	switch message.Type {
	case MessageBlock:
		h.handleBlock(client, message)
	case MessageStatus:
		h.sendMessage(client, &WebSocketMessage{
			Type:      MessageStatusResult,
			Data:      h.bridge.Status(),
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	case MessagePing:
		h.sendMessage(client, &WebSocketMessage{
			Type:      MessagePong,
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	default:
		h.logger.Warn("Unknown message type",
			zap.String("type", message.Type),
			zap.String("client_id", client.ID),
		)
		h.sendError(client, message.RequestID, "unknown message type: "+message.Type)
	}
}

// handleBlock runs a block inline so results keep the order of requests
func (h *WebSocketHandler) handleBlock(client *Client, message *IncomingMessage) {
	var req BlockRequest
	if err := json.Unmarshal(message.Data, &req); err != nil || req.Extension == "" || req.Opcode == "" {
		h.sendError(client, message.RequestID, "block requires extension and opcode")
		return
	}

	result, err := h.extensions.invoke(context.Background(), req.Extension, req.Opcode, req.Args)
	if err != nil {
		h.sendError(client, message.RequestID, err.Error())
		return
	}

	h.sendMessage(client, &WebSocketMessage{
		Type:      MessageBlockResult,
		Data:      result,
		Timestamp: time.Now(),
		RequestID: message.RequestID,
	})
}

// sendMessage queues a message for a client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
		h.logger.Warn("Client send channel full, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, requestID, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type: MessageError,
		Data: map[string]interface{}{
			"error": errorMsg,
		},
		Timestamp: time.Now(),
		RequestID: requestID,
	})
}

// GetConnectionStats returns connection statistics
// @Summary WebSocket connections
// @Description Clients attached to the event stream
// @Tags WebSocket
// @Produce json
// @Success 200 {object} utils.APIResponse{data=ConnectionStats} "Connection statistics"
// @Router /ws/stats [get]
func (h *WebSocketHandler) GetConnectionStats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Connection statistics", h.connections.GetStats())
}

// Close disconnects every client
func (h *WebSocketHandler) Close() {
	h.connections.CloseAll()
}

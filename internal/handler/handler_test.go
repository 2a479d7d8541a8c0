package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nano-bridge/internal/config"
	"nano-bridge/internal/discovery"
	"nano-bridge/internal/extension"
	"nano-bridge/internal/model"
	"nano-bridge/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBridge implements extension.Board and BridgeStatusProvider
type fakeBridge struct {
	mu        sync.Mutex
	connected bool
	analog    map[int]int
	commands  []string
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{analog: map[int]int{}}
}

func (f *fakeBridge) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeBridge) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *fakeBridge) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeBridge) record(cmd string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
}

func (f *fakeBridge) DigitalWrite(pin, value int) { f.record("DW") }
func (f *fakeBridge) SetPWM(pin, value int)       { f.record("PW") }
func (f *fakeBridge) SetServo(pin, angle int)     { f.record("SW") }
func (f *fakeBridge) DigitalRead(pin int) int     { f.record("DR"); return 0 }
func (f *fakeBridge) ReadPulseIn(pin int) int     { f.record("PI"); return 0 }

func (f *fakeBridge) AnalogRead(pin int) int {
	f.record("AR")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analog[pin]
}

func (f *fakeBridge) Status() *model.BridgeStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	status := &model.BridgeStatus{
		Connected: f.connected,
		Analog:    map[int]int{},
		Digital:   map[int]int{},
	}
	if f.connected {
		status.Port = "/dev/ttyFAKE0"
	}
	for k, v := range f.analog {
		status.Analog[k] = v
	}
	return status
}

type fakeChooser struct {
	ports  []*discovery.DiscoveredPort
	err    error
	chosen string
}

func (f *fakeChooser) Scan(ctx context.Context) ([]*discovery.DiscoveredPort, error) {
	return f.ports, f.err
}
func (f *fakeChooser) Choose(name string) { f.chosen = name }
func (f *fakeChooser) Clear()             { f.chosen = "" }
func (f *fakeChooser) Chosen() string     { return f.chosen }

type testServer struct {
	engine  *gin.Engine
	bridge  *fakeBridge
	chooser *fakeChooser
	bus     *EventBus
	ws      *WebSocketHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop()
	fb := newFakeBridge()
	chooser := &fakeChooser{}

	registry := extension.NewRegistry(logger)
	require.NoError(t, extension.RegisterDefaults(registry, fb, logger))

	bus := NewEventBus(EventBusConfig{IncludeReplies: true}, logger)
	go bus.Start()
	t.Cleanup(bus.Stop)

	cfg := &config.Config{App: config.AppConfig{Name: "nano-bridge", Version: "test"}}

	extensions := NewExtensionHandler(registry, time.Second, logger)
	ws := NewWebSocketHandler(extensions, fb, bus, nil, logger)
	t.Cleanup(ws.Close)

	engine := gin.New()
	NewHealthHandler(fb, cfg, logger).RegisterRoutes(engine)
	api := engine.Group("/api/v1")
	api.GET("/extensions", extensions.ListExtensions)
	api.GET("/extensions/:id", extensions.GetExtension)
	api.POST("/extensions/:id/blocks/:opcode", extensions.InvokeBlock)
	api.GET("/bridge/status", NewBridgeHandler(fb, logger).GetStatus)
	ports := NewPortHandler(chooser, logger)
	api.GET("/ports", ports.ListPorts)
	api.PUT("/ports/selection", ports.SelectPort)
	api.DELETE("/ports/selection", ports.ClearSelection)
	api.GET("/ws/events", ws.HandleEventConnection)
	api.GET("/ws/stats", ws.GetConnectionStats)

	return &testServer{engine: engine, bridge: fb, chooser: chooser, bus: bus, ws: ws}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp utils.APIResponse
	if strings.HasPrefix(path, "/api/") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func dataOf(t *testing.T, resp utils.APIResponse, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestListAndGetExtensions(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodGet, "/api/v1/extensions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var infos []extension.Info
	dataOf(t, resp, &infos)
	require.Len(t, infos, 1)
	assert.Equal(t, "arduinoNanoUSB", infos[0].ID)

	w, resp = s.do(t, http.MethodGet, "/api/v1/extensions/arduinoNanoUSB", "")
	require.Equal(t, http.StatusOK, w.Code)
	var info extension.Info
	dataOf(t, resp, &info)
	assert.Equal(t, "#1381f9", info.Color1)
	assert.Len(t, info.Blocks, 9)

	w, resp = s.do(t, http.MethodGet, "/api/v1/extensions/microbit", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestInvokeBlock(t *testing.T) {
	s := newTestServer(t)
	s.bridge.analog[3] = 512

	w, resp := s.do(t, http.MethodPost, "/api/v1/extensions/arduinoNanoUSB/blocks/analogRead", `{"PIN": "3"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var result BlockResult
	dataOf(t, resp, &result)
	assert.Equal(t, "analogRead", result.Opcode)
	assert.EqualValues(t, 512, result.Value)

	// no body uses the block defaults
	w, resp = s.do(t, http.MethodPost, "/api/v1/extensions/arduinoNanoUSB/blocks/isConnected", "")
	require.Equal(t, http.StatusOK, w.Code)
	dataOf(t, resp, &result)
	assert.Equal(t, false, result.Value)

	w, _ = s.do(t, http.MethodPost, "/api/v1/extensions/arduinoNanoUSB/blocks/connect", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.bridge.IsConnected())
}

func TestInvokeBlockErrors(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		path string
		body string
		code int
		want string
	}{
		{"unknown extension", "/api/v1/extensions/microbit/blocks/analogRead", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown opcode", "/api/v1/extensions/arduinoNanoUSB/blocks/blink", "", http.StatusNotFound, "NOT_FOUND"},
		{"invalid argument", "/api/v1/extensions/arduinoNanoUSB/blocks/analogRead", `{"PIN": "A0"}`, http.StatusUnprocessableEntity, "INVALID_ARGUMENT"},
		{"malformed body", "/api/v1/extensions/arduinoNanoUSB/blocks/analogRead", `{"PIN":`, http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := s.do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.code, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.want, resp.Error.Code)
		})
	}

	assert.Empty(t, s.bridge.commands)
}

func TestBridgeStatus(t *testing.T) {
	s := newTestServer(t)
	s.bridge.connected = true
	s.bridge.analog[0] = 100

	w, resp := s.do(t, http.MethodGet, "/api/v1/bridge/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status model.BridgeStatus
	dataOf(t, resp, &status)
	assert.True(t, status.Connected)
	assert.Equal(t, "/dev/ttyFAKE0", status.Port)
	assert.Equal(t, 100, status.Analog[0])
}

func TestPorts(t *testing.T) {
	s := newTestServer(t)
	s.chooser.ports = []*discovery.DiscoveredPort{{Name: "/dev/ttyUSB0", IsUSB: true, Confidence: 0.85}}

	w, resp := s.do(t, http.MethodGet, "/api/v1/ports", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Ports    []discovery.DiscoveredPort `json:"ports"`
		Selected string                     `json:"selected"`
	}
	dataOf(t, resp, &listed)
	require.Len(t, listed.Ports, 1)
	assert.Equal(t, "/dev/ttyUSB0", listed.Ports[0].Name)

	w, _ = s.do(t, http.MethodPut, "/api/v1/ports/selection", `{"port": "/dev/ttyUSB0"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/dev/ttyUSB0", s.chooser.chosen)

	w, resp = s.do(t, http.MethodPut, "/api/v1/ports/selection", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/ports/selection", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.chooser.chosen)

	s.chooser.err = errors.New("enumeration failed")
	w, _ = s.do(t, http.MethodGet, "/api/v1/ports", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, _ = s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "disconnected", health.Checks["board"].Status)

	s.bridge.connected = true

	w, _ = s.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/health", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus(EventBusConfig{IncludeReplies: false}, zap.NewNop())
	go bus.Start()

	id, events := bus.Subscribe()
	assert.Equal(t, 1, bus.SubscriberCount())

	bus.Report(model.NewEvent(model.EventReply, model.SeverityInfo))
	bus.Report(model.NewEvent(model.EventConnected, model.SeverityInfo))

	select {
	case event := <-events:
		assert.Equal(t, model.EventConnected, event.Type)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	bus.Unsubscribe(id)
	_, ok := <-events
	assert.False(t, ok)
	assert.Equal(t, 0, bus.SubscriberCount())

	_, events = bus.Subscribe()
	bus.Stop()
	bus.Stop()
	for range events {
	}
	bus.Report(model.NewEvent(model.EventConnected, model.SeverityInfo))
}

type wsClient struct {
	conn *websocket.Conn
}

func dialEvents(t *testing.T, s *testServer) *wsClient {
	t.Helper()

	server := httptest.NewServer(s.engine)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &wsClient{conn: conn}
}

func (c *wsClient) send(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, c.conn.WriteJSON(v))
}

// next reads messages until one of type want arrives
func (c *wsClient) next(t *testing.T, want string) map[string]interface{} {
	t.Helper()

	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var message map[string]interface{}
		require.NoError(t, c.conn.ReadJSON(&message))
		if message["type"] == want {
			return message
		}
	}
}

func TestWebSocketEventStream(t *testing.T) {
	s := newTestServer(t)
	client := dialEvents(t, s)

	initial := client.next(t, MessageInitialStatus)
	data := initial["data"].(map[string]interface{})
	assert.Equal(t, false, data["connected"])

	require.Eventually(t, func() bool { return s.bus.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	event := model.NewEvent(model.EventDisconnected, model.SeverityError)
	event.Message = "write failed"
	s.bus.Report(event)

	message := client.next(t, MessageBridgeEvent)
	data = message["data"].(map[string]interface{})
	assert.Equal(t, "DISCONNECTED", data["type"])
	assert.Equal(t, "write failed", data["message"])
}

func TestWebSocketMessages(t *testing.T) {
	s := newTestServer(t)
	s.bridge.analog[0] = 321
	client := dialEvents(t, s)
	client.next(t, MessageInitialStatus)

	client.send(t, map[string]interface{}{"type": "ping", "request_id": "p1"})
	pong := client.next(t, MessagePong)
	assert.Equal(t, "p1", pong["request_id"])

	client.send(t, map[string]interface{}{
		"type":       "block",
		"request_id": "b1",
		"data": map[string]interface{}{
			"extension": "arduinoNanoUSB",
			"opcode":    "analogRead",
			"args":      map[string]interface{}{"PIN": 0},
		},
	})
	result := client.next(t, MessageBlockResult)
	assert.Equal(t, "b1", result["request_id"])
	data := result["data"].(map[string]interface{})
	assert.Equal(t, float64(321), data["value"])

	client.send(t, map[string]interface{}{
		"type": "block",
		"data": map[string]interface{}{"extension": "arduinoNanoUSB", "opcode": "blink"},
	})
	errMessage := client.next(t, MessageError)
	assert.Contains(t, errMessage["data"].(map[string]interface{})["error"], "unknown opcode")

	client.send(t, map[string]interface{}{"type": "status"})
	status := client.next(t, MessageStatusResult)
	assert.Equal(t, float64(321), status["data"].(map[string]interface{})["analog"].(map[string]interface{})["0"])

	client.send(t, map[string]interface{}{"type": "teleport"})
	client.next(t, MessageError)
}

func TestWebSocketStats(t *testing.T) {
	s := newTestServer(t)
	client := dialEvents(t, s)
	client.next(t, MessageInitialStatus)

	w, resp := s.do(t, http.MethodGet, "/api/v1/ws/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats ConnectionStats
	dataOf(t, resp, &stats)
	assert.Equal(t, 1, stats.TotalConnections)
}

func TestCheckOrigin(t *testing.T) {
	allowAll := checkOrigin(nil)
	restricted := checkOrigin([]string{"http://editor.local"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.local")
	assert.True(t, allowAll(req))
	assert.False(t, restricted(req))

	req.Header.Set("Origin", "http://editor.local")
	assert.True(t, restricted(req))
}

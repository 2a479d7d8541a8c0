package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	_ "nano-bridge/docs"
	"nano-bridge/internal/bridge"
	"nano-bridge/internal/config"
	"nano-bridge/internal/discovery"
	"nano-bridge/internal/extension"
	"nano-bridge/internal/handler"
	"nano-bridge/internal/middleware"
	"nano-bridge/internal/model"
	"nano-bridge/internal/protocol"
	"nano-bridge/internal/utils"
)

type emptyScanner struct{}

func (emptyScanner) Scan(ctx context.Context) ([]*discovery.DiscoveredPort, error) {
	return nil, nil
}

func setup(t *testing.T) (*gin.Engine, *handler.EventBus) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.LoadFrom("", t.TempDir())
	require.NoError(t, err)

	logger := zap.NewNop()
	selector := discovery.NewPortSelector(emptyScanner{}, discovery.SelectorConfig{AutoDetect: true}, logger)
	opener := protocol.OpenerFunc(func(ctx context.Context) (protocol.Port, error) {
		if _, err := selector.Select(ctx); err != nil {
			return nil, err
		}
		t.Fatal("nothing to open")
		return nil, nil
	})

	bus := handler.NewEventBus(handler.EventBusConfig{}, logger)
	go bus.Start()
	t.Cleanup(bus.Stop)

	b := bridge.New(opener, model.MultiReporter{bus}, logger, bridge.Config{})
	registry := extension.NewRegistry(logger)
	require.NoError(t, extension.RegisterDefaults(registry, b, logger))

	router := NewRouter(cfg, logger, b, selector, registry, bus)
	t.Cleanup(router.Close)

	return router.SetupRouter(), bus
}

func TestRoutesRegistered(t *testing.T) {
	engine, _ := setup(t)

	want := []string{
		"GET /health",
		"GET /ready",
		"GET /live",
		"GET /api/v1/extensions",
		"GET /api/v1/extensions/:id",
		"POST /api/v1/extensions/:id/blocks/:opcode",
		"GET /api/v1/bridge/status",
		"GET /api/v1/ports",
		"PUT /api/v1/ports/selection",
		"DELETE /api/v1/ports/selection",
		"GET /api/v1/ws/events",
		"GET /api/v1/ws/stats",
		"GET /swagger/*any",
		"GET /docs",
	}

	got := map[string]bool{}
	for _, route := range engine.Routes() {
		got[route.Method+" "+route.Path] = true
	}
	for _, route := range want {
		assert.True(t, got[route], route)
	}
}

func TestConnectBlockWithoutPort(t *testing.T) {
	engine, _ := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extensions/arduinoNanoUSB/blocks/connect", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), resp.RequestID)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/extensions/arduinoNanoUSB/blocks/analogRead", strings.NewReader(`{"PIN": 0}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(0), data["value"])

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGinMode(t *testing.T) {
	tests := []struct {
		environment string
		debug       bool
		want        string
	}{
		{"development", false, gin.DebugMode},
		{"staging", false, gin.ReleaseMode},
		{"staging", true, gin.DebugMode},
		{"production", false, gin.ReleaseMode},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.App.Environment = tt.environment
			cfg.App.Debug = tt.debug
			assert.Equal(t, tt.want, ginMode(cfg))
		})
	}
}

func TestSwaggerServed(t *testing.T) {
	engine, _ := setup(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/extensions/{id}/blocks/{opcode}")
}

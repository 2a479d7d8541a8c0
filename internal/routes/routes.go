// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"nano-bridge/internal/config"
	"nano-bridge/internal/extension"
	"nano-bridge/internal/handler"
	"nano-bridge/internal/middleware"
	"nano-bridge/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config    *config.Config
	logger    *zap.Logger
	bridge    handler.BridgeStatusProvider
	ports     handler.PortChooser
	registry  *extension.Registry
	eventBus  *handler.EventBus
	wsHandler *handler.WebSocketHandler
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	bridge handler.BridgeStatusProvider,
	ports handler.PortChooser,
	registry *extension.Registry,
	eventBus *handler.EventBus,
) *Router {
	return &Router{
		config:   config,
		logger:   logger,
		bridge:   bridge,
		ports:    ports,
		registry: registry,
		eventBus: eventBus,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(ginMode(r.config))
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// ginMode picks debug mode only when the config enables debugging
func ginMode(cfg *config.Config) string {
	if cfg.IsDebugEnabled() {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// Close disconnects WebSocket clients
func (r *Router) Close() {
	if r.wsHandler != nil {
		r.wsHandler.Close()
	}
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(r.logger))

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.bridge, r.config, r.logger)
	extensionHandler := handler.NewExtensionHandler(r.registry, r.config.Serial.ConnectTimeout, r.logger)
	bridgeHandler := handler.NewBridgeHandler(r.bridge, r.logger)
	portHandler := handler.NewPortHandler(r.ports, r.logger)
	r.wsHandler = handler.NewWebSocketHandler(extensionHandler, r.bridge, r.eventBus, r.config.Security.AllowedOrigins, r.logger)

	// Health check routes
	healthHandler.RegisterRoutes(router)

	apiV1 := router.Group("/api/v1")
	r.addExtensionRoutes(apiV1, extensionHandler)
	r.addBridgeRoutes(apiV1, bridgeHandler)
	r.addPortRoutes(apiV1, portHandler)
	r.addWebSocketRoutes(apiV1, r.wsHandler)

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addExtensionRoutes sets up descriptor and block routes
func (r *Router) addExtensionRoutes(api *gin.RouterGroup, handler *handler.ExtensionHandler) {
	extensions := api.Group("/extensions")
	{
		extensions.GET("", handler.ListExtensions)
		extensions.GET("/:id", handler.GetExtension)
		extensions.POST("/:id/blocks/:opcode", handler.InvokeBlock)
	}
}

// addBridgeRoutes sets up bridge state routes
func (r *Router) addBridgeRoutes(api *gin.RouterGroup, handler *handler.BridgeHandler) {
	api.GET("/bridge/status", handler.GetStatus)
}

// addPortRoutes sets up port discovery and selection routes
func (r *Router) addPortRoutes(api *gin.RouterGroup, handler *handler.PortHandler) {
	ports := api.Group("/ports")
	{
		ports.GET("", handler.ListPorts)
		ports.PUT("/selection", handler.SelectPort)
		ports.DELETE("/selection", handler.ClearSelection)
	}
}

// addWebSocketRoutes sets up WebSocket routes
func (r *Router) addWebSocketRoutes(api *gin.RouterGroup, handler *handler.WebSocketHandler) {
	ws := api.Group("/ws")
	{
		ws.GET("/events", handler.HandleEventConnection)
		ws.GET("/stats", handler.GetConnectionStats)
	}
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}

// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "nano-bridge/docs"
	"nano-bridge/internal/bridge"
	"nano-bridge/internal/config"
	"nano-bridge/internal/discovery"
	serialdiscovery "nano-bridge/internal/discovery/serial"
	"nano-bridge/internal/extension"
	"nano-bridge/internal/handler"
	"nano-bridge/internal/model"
	serialtransport "nano-bridge/internal/protocol/serial"
	"nano-bridge/internal/routes"
	"nano-bridge/internal/utils"
)

// Application represents the main application
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server
	router *routes.Router

	selector *discovery.PortSelector
	eventBus *handler.EventBus
	bridge   *bridge.Bridge
	registry *extension.Registry
}

// @title Nano Bridge API
// @version 1.0.0
// @description Serial bridge between a block editor and an Arduino Nano running the pin firmware

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8087
// @BasePath /api/v1
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, cfg.App.Name)
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	app.initializeBridge()

	if err := app.initializeExtensions(); err != nil {
		return nil, fmt.Errorf("failed to initialize extensions: %w", err)
	}

	app.initializeServer()

	return app, nil
}

// initializeBridge wires port selection, the serial transport and the
// event bus into the bridge
func (app *Application) initializeBridge() {
	serialCfg := app.config.Serial

	scanner := serialdiscovery.NewScanner(app.logger)
	app.selector = discovery.NewPortSelector(scanner, discovery.SelectorConfig{
		Port:          serialCfg.Port,
		AutoDetect:    serialCfg.AutoDetect,
		MinConfidence: serialCfg.MinConfidence,
	}, app.logger)

	opener := serialtransport.NewOpener(app.selector, &serialtransport.Config{
		Port:        serialCfg.Port,
		BaudRate:    serialCfg.BaudRate,
		DataBits:    serialCfg.DataBits,
		StopBits:    serialCfg.StopBits,
		Parity:      serialCfg.Parity,
		ReadTimeout: serialCfg.ReadTimeout,
		SettleDelay: serialCfg.SettleDelay,
	}, app.logger)

	app.eventBus = handler.NewEventBus(handler.EventBusConfig{
		BufferSize:       app.config.Events.BufferSize,
		SubscriberBuffer: app.config.Events.SubscriberBuffer,
		IncludeReplies:   app.config.Events.IncludeReplies,
	}, app.logger.With(zap.String("component", "event-bus")))

	reporter := model.MultiReporter{app.eventBus, eventLogger(app.logger)}

	app.bridge = bridge.New(opener, reporter, app.logger, bridge.Config{
		ReadBufferSize: serialCfg.ReadBufferSize,
	})

	app.logger.Info("Bridge initialized",
		zap.String("port", serialCfg.Port),
		zap.Bool("auto_detect", serialCfg.AutoDetect),
		zap.Int("baud_rate", serialCfg.BaudRate),
	)
}

// eventLogger surfaces warnings and errors from the bridge in the log
func eventLogger(logger *zap.Logger) model.EventReporter {
	logger = logger.With(zap.String("component", "bridge-events"))
	return model.ReporterFunc(func(event model.BridgeEvent) {
		fields := []zap.Field{
			zap.String("event_type", string(event.Type)),
			zap.String("port", event.Port),
			zap.String("message", event.Message),
		}
		if event.Error != "" {
			fields = append(fields, zap.String("error", event.Error))
		}

		switch event.Severity {
		case model.SeverityError:
			logger.Error("Bridge event", fields...)
		case model.SeverityWarning:
			logger.Warn("Bridge event", fields...)
		}
	})
}

// initializeExtensions registers the block extensions
func (app *Application) initializeExtensions() error {
	app.registry = extension.NewRegistry(app.logger)

	if err := extension.RegisterDefaults(app.registry, app.bridge, app.logger); err != nil {
		return err
	}

	app.logger.Info("Extension registry initialized successfully",
		zap.Int("registered_extensions", len(app.registry.List())),
	)
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	app.router = routes.NewRouter(
		app.config,
		app.logger,
		app.bridge,
		app.selector,
		app.registry,
		app.eventBus,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      app.router.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)
}

// startBackgroundServices starts background services
func (app *Application) startBackgroundServices() {
	go app.eventBus.Start()

	if app.config.Serial.ConnectOnStart {
		go app.connectOnStart()
	}

	app.logger.Info("Background services started")
}

// connectOnStart attempts one connection without waiting for a connect block
func (app *Application) connectOnStart() {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Serial.ConnectTimeout)
	defer cancel()

	if err := app.bridge.Connect(ctx); err != nil {
		app.logger.Warn("Board not connected at startup", zap.Error(err))
	}
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, app.config.App.Name)
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app.router.Close()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.bridge.Disconnect()
	app.eventBus.Stop()

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start runs the server until a shutdown signal arrives
func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.startBackgroundServices()

	app.waitForShutdown()

	return nil
}

package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/dispatcher"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/messaging/nats"
	httpapi "github.com/tuanbk654123/QLCP-QLKH/internal/interfaces/http"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// It follows Clean Architecture principles with ordered initialization
// and reverse-order teardown.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	store    *StoreBundle
	channels *ChannelBundle

	// Application
	dispatcher dispatcher.Dispatcher
	bridge     *nats.Bridge
	services   *ServiceBundle

	// Interfaces
	server *httpapi.Server

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components.
// Components are initialized in dependency order:
// 1. Document store and repositories
// 2. Delivery channels (websocket hub, email, Lark)
// 3. Event dispatcher and optional NATS bridge
// 4. Application services
// 5. HTTP server
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Initialize store and repositories
	store, err := ProvideStore(c.ctx, &c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	c.store = store
	c.logger.Info("Store initialized", zap.String("driver", c.config.Database.Driver))

	// Step 2: Initialize delivery channels
	channels, err := ProvideChannels(c.config, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize channels: %w", err)
	}
	c.channels = channels
	c.logger.Info("Delivery channels initialized",
		zap.Bool("realtime", channels.Hub != nil),
		zap.Bool("email", channels.Email != nil),
		zap.Bool("chat", channels.Chat != nil))

	// Step 3: Initialize dispatcher and event bridge
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp

	bridge, err := ProvideEventBridge(&c.config.NATS, c.dispatcher, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event bridge: %w", err)
	}
	c.bridge = bridge
	c.logger.Info("Dispatcher initialized", zap.Bool("nats", bridge != nil))

	// Step 4: Initialize application services
	services, err := ProvideServices(&ServiceDeps{
		Store:      c.store,
		Channels:   c.channels,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Application services initialized")

	// Step 5: Initialize HTTP server
	if c.config.Server.Mode != "" {
		gin.SetMode(c.config.Server.Mode)
	}
	server, err := ProvideHTTPServer(&c.config.Server, c.services, c.channels.Hub, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}
	c.server = server

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Run serves HTTP until ctx is cancelled
func (c *Container) Run(ctx context.Context) error {
	if !c.ready.Load() {
		return fmt.Errorf("container not started")
	}
	return c.server.Start(ctx)
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Cancel context to signal all goroutines
	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop HTTP server (reverse of step 5)
	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
	}

	// Step 2: Services don't need explicit cleanup (reverse of step 4)

	// Step 3: Close dispatcher, then the bridge it feeds (reverse of step 3)
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}
	if c.bridge != nil {
		if err := c.bridge.Close(); err != nil {
			c.logger.Error("Failed to close NATS bridge", zap.Error(err))
			errs = append(errs, fmt.Errorf("close nats bridge: %w", err))
		}
	}

	// Step 4: Disconnect realtime clients (reverse of step 2)
	if c.channels != nil && c.channels.Hub != nil {
		if err := c.channels.Hub.Close(); err != nil {
			c.logger.Error("Failed to close realtime hub", zap.Error(err))
			errs = append(errs, fmt.Errorf("close realtime hub: %w", err))
		}
	}

	// Step 5: Close store (reverse of step 1)
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Error("Failed to close store", zap.Error(err))
			errs = append(errs, fmt.Errorf("close store: %w", err))
		} else {
			c.logger.Info("Store closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	// Check store
	if c.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.store.Health(pingCtx)
		cancel()
		if err != nil {
			status.Components["store"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["store"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["store"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check dispatcher
	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Optional components report their state without failing the whole
	if c.channels != nil {
		status.Components["realtime"] = optional(c.channels.Hub != nil)
		status.Components["email"] = optional(c.channels.Email != nil)
		status.Components["chat"] = optional(c.channels.Chat != nil)
	}
	status.Components["nats"] = optional(c.bridge != nil)

	return status
}

func optional(enabled bool) ComponentHealth {
	if enabled {
		return ComponentHealth{Healthy: true}
	}
	return ComponentHealth{Healthy: true, Message: "disabled"}
}

// Getters for accessing container components

// Store returns the repositories of the configured driver.
func (c *Container) Store() *StoreBundle {
	return c.store
}

// Channels returns the delivery channels.
func (c *Container) Channels() *ChannelBundle {
	return c.channels
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Server returns the HTTP server.
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the Info/Error key-value loggers of
// the application and interface layers.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Info(msg, fields...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Error(msg, fields...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

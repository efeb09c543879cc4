// Package container provides dependency injection and lifecycle management
// for the claim approval service following Clean Architecture principles.
package container

import (
	"context"
	"fmt"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/dispatcher"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/service"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/workflow"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/event"
	"github.com/tuanbk654123/QLCP-QLKH/internal/email"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/export"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/external/lark"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/messaging/nats"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/persistence/mongostore"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/persistence/repository"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/tuanbk654123/QLCP-QLKH/internal/interfaces/http"
	"github.com/tuanbk654123/QLCP-QLKH/internal/interfaces/websocket"
	"github.com/tuanbk654123/QLCP-QLKH/pkg/database"
	"go.uber.org/zap"
)

// StoreBundle holds the repositories of one storage driver.
type StoreBundle struct {
	Claims        port.ClaimRepository
	Users         port.UserRepository
	Notifications port.NotificationRepository
	TxManager     port.TransactionManager

	health func(ctx context.Context) error
	close  func() error
}

// Health pings the underlying store
func (b *StoreBundle) Health(ctx context.Context) error {
	if b.health == nil {
		return nil
	}
	return b.health(ctx)
}

// Close releases the underlying connection
func (b *StoreBundle) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// ChannelBundle holds the optional delivery channels. Nil fields are disabled.
type ChannelBundle struct {
	Hub   *websocket.Hub
	Email *email.Sender
	Chat  *lark.Messenger
}

// Options converts the enabled channels into dispatcher options
func (b *ChannelBundle) Options() []service.DispatcherOption {
	var opts []service.DispatcherOption
	if b.Hub != nil {
		opts = append(opts, service.WithRealtime(b.Hub))
	}
	if b.Email != nil {
		opts = append(opts, service.WithEmail(b.Email))
	}
	if b.Chat != nil {
		opts = append(opts, service.WithChat(b.Chat))
	}
	return opts
}

// ProvideStore opens the configured document store and builds its repositories.
// SQLite migrations run automatically.
func ProvideStore(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case DriverMongo:
		return provideMongoStore(ctx, cfg, logger)
	case DriverSQLite, "":
		return provideSQLiteStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func provideSQLiteStore(cfg *DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(conn, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrationsFromDir(cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrations(sqlite.Migrations())
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db := sqlite.NewDB(conn.DB, logger)

	return &StoreBundle{
		Claims:        repository.NewClaimRepository(db, logger),
		Users:         repository.NewUserRepository(db, logger),
		Notifications: repository.NewNotificationRepository(db, logger),
		TxManager:     db,
		health:        conn.Health,
		close:         conn.Close,
	}, nil
}

func provideMongoStore(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	store, err := mongostore.Connect(ctx, mongostore.Config{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		ConnectTimeout: cfg.MongoConnectTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &StoreBundle{
		Claims:        mongostore.NewClaimRepository(store),
		Users:         mongostore.NewUserRepository(store),
		Notifications: mongostore.NewNotificationRepository(store),
		TxManager:     mongostore.Transactions{},
		health:        store.Health,
		close:         store.Close,
	}, nil
}

// ProvideChannels builds every delivery channel that has configuration.
func ProvideChannels(cfg *Config, logger *zap.Logger) (*ChannelBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	bundle := &ChannelBundle{}

	if cfg.Realtime.Enabled {
		bundle.Hub = websocket.NewHub(websocket.HubConfig{
			AllowedOrigins: cfg.Realtime.AllowedOrigins,
		}, logger.Named("realtime"))
	}

	sender := email.NewSender(cfg.Email, logger.Named("email"))
	if sender.Enabled() {
		bundle.Email = sender
	} else {
		logger.Warn("Email settings are not configured, email channel disabled")
	}

	if cfg.Lark.Enabled() {
		sdk := lark.NewSDKClient(cfg.Lark, logger.Named("lark"))
		bundle.Chat = lark.NewMessenger(sdk, logger.Named("lark"))
	}

	return bundle, nil
}

// ProvideDispatcher creates the event dispatcher.
// Returns dispatcher.Dispatcher implementation.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	d := dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("events")}),
	)
	d.SubscribeAll("event-log", eventLogHandler(logger.Named("events")))
	return d, nil
}

// eventLogHandler records every committed claim event
func eventLogHandler(logger *zap.Logger) dispatcher.Handler {
	return func(_ context.Context, evt *event.Event) error {
		logger.Info("Claim event",
			zap.String("event_type", evt.Type.String()),
			zap.Int64("claim_id", evt.ClaimID),
			zap.Int64("actor_user_id", evt.ActorUserID),
			zap.String("from", evt.FromStatus),
			zap.String("to", evt.ToStatus))
		return nil
	}
}

// ProvideEventBridge connects the NATS bridge and subscribes it to d.
// Returns nil when no NATS URL is configured.
func ProvideEventBridge(cfg *nats.Config, d dispatcher.Dispatcher, logger *zap.Logger) (*nats.Bridge, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil
	}

	bridge, err := nats.Connect(*cfg, logger.Named("nats"))
	if err != nil {
		return nil, err
	}
	bridge.Register(d)
	return bridge, nil
}

// ServiceDeps holds dependencies required for creating application services.
type ServiceDeps struct {
	Store      *StoreBundle
	Channels   *ChannelBundle
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Resolver service.HierarchyResolver
	Notifier service.NotificationDispatcher
	Engine   workflow.WorkflowEngine
	Claims   service.ClaimService
	Inbox    service.InboxService
}

// ProvideServices creates the workflow engine and the services around it.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Channels == nil {
		return nil, fmt.Errorf("channels are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}
	store := deps.Store

	resolver := service.NewHierarchyResolver(store.Users, serviceLogger)
	notifier := service.NewNotificationDispatcher(
		store.Notifications,
		store.Users,
		store.Claims,
		resolver,
		serviceLogger,
		deps.Channels.Options()...,
	)
	engine := workflow.NewEngine(store.Claims, store.TxManager)

	return &ServiceBundle{
		Resolver: resolver,
		Notifier: notifier,
		Engine:   engine,
		Claims: service.NewClaimService(
			store.Claims,
			store.Users,
			engine,
			notifier,
			deps.Dispatcher,
			export.NewExcelExporter(deps.Logger.Named("export")),
			serviceLogger,
		),
		Inbox: service.NewInboxService(store.Notifications, serviceLogger),
	}, nil
}

// ProvideHTTPServer creates the HTTP server. hub may be nil.
func ProvideHTTPServer(cfg *ServerConfig, services *ServiceBundle, hub *websocket.Hub, logger *zap.Logger) (*httpapi.Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}

	var realtime httpapi.RealtimeServer
	if hub != nil {
		realtime = hub
	}

	return httpapi.NewServer(
		httpapi.ServerConfig{
			Host:         cfg.Host,
			Port:         cfg.Port,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			PageSize:     cfg.PageSize,
			Identity: httpapi.IdentityConfig{
				UserIDHeader: cfg.UserIDHeader,
				RoleHeader:   cfg.RoleHeader,
				NameHeader:   cfg.NameHeader,
			},
		},
		services.Claims,
		services.Inbox,
		realtime,
		&zapLoggerAdapter{logger: logger.Named("http")},
	), nil
}

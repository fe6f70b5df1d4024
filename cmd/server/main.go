package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	orderapp "github.com/inventree/backend/internal/application/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/infrastructure/cache"
	"github.com/inventree/backend/internal/infrastructure/config"
	"github.com/inventree/backend/internal/infrastructure/event"
	"github.com/inventree/backend/internal/infrastructure/logger"
	"github.com/inventree/backend/internal/infrastructure/persistence"
	"github.com/inventree/backend/internal/infrastructure/scheduler"
	"github.com/inventree/backend/internal/infrastructure/telemetry"
	"github.com/inventree/backend/internal/interfaces/http/handler"
	"github.com/inventree/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting order service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.TracingConfig{
		Enabled:           cfg.Telemetry.TracingEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.GormLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("Failed to migrate sqlite database", zap.Error(err))
		}
	}
	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.TracingEnabled && cfg.Telemetry.DBTracing,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.SlowQueryThreshold,
		DBSystem:        dbSystem,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql handle", zap.Error(err))
	}
	isolation, err := cfg.Database.IsolationLevel()
	if err != nil {
		log.Fatal("Invalid isolation level", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	var businessMetrics *telemetry.BusinessMetrics
	if meterProvider.IsEnabled() {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:           meterProvider.Meter("inventree/orders"),
			Logger:          log,
			CollectInterval: cfg.Telemetry.CollectInterval,
			OrderProvider:   persistence.NewOrderMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
		businessMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.CollectInterval)
		defer businessMetrics.Stop()
	}

	// Event delivery
	store, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cfg.Event, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	idempotency := event.WithIdempotencyConfig(shared.IdempotencyConfig{
		TTL:     cfg.Event.IdempotencyTTL,
		Enabled: true,
	})
	eventBus := event.NewInMemoryEventBus(log, event.WithHandlerTimeout(cfg.Event.HandlerTimeout))
	notifications := event.NewIdempotentHandler("notifications",
		event.NewNotificationHandler(event.NewLogNotificationSink(log), cfg.Event.NotifyOverdue),
		store, log, idempotency)
	plugins := event.NewIdempotentHandler("plugins",
		event.NewPluginEventHandler(event.NewLogPluginEventSink(log), cfg.Event.PluginsEnabled),
		store, log, idempotency)
	eventBus.Subscribe(notifications)
	eventBus.Subscribe(plugins)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	log.Info("Event handlers registered",
		zap.Strings("notification_events", notifications.EventTypes()),
		zap.Strings("plugin_events", plugins.EventTypes()),
	)

	// Application services
	deps := orderapp.Dependencies{
		Scope:     persistence.NewGormTransactionScope(db.DB, isolation),
		Settings:  cfg.Order.Settings(),
		Publisher: eventBus,
		Metrics:   businessMetrics,
		Logger:    log,
	}
	purchaseOrderService := orderapp.NewPurchaseOrderService(deps)
	salesOrderService := orderapp.NewSalesOrderService(deps)
	returnOrderService := orderapp.NewReturnOrderService(deps)
	overdueService := orderapp.NewOverdueService(deps)

	// Background jobs
	var jobs handler.JobRunner
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.DefaultSchedulerConfig()
		if cfg.Scheduler.JobTimeout > 0 {
			schedulerConfig.JobTimeout = cfg.Scheduler.JobTimeout
		}
		jobScheduler := scheduler.NewScheduler(schedulerConfig, log)
		jobScheduler.Register(scheduler.OverdueCheckJob, scheduler.NewOverdueCheckExecutor(overdueService, log))
		if err := jobScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start job scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := jobScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping job scheduler", zap.Error(err))
			}
		}()

		trigger := scheduler.NewDailyTrigger(scheduler.DailyTriggerConfig{
			JobName:       scheduler.OverdueCheckJob,
			CheckInterval: cfg.Scheduler.OverdueCheckInterval,
		}, jobScheduler, log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start overdue trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping overdue trigger", zap.Error(err))
			}
		}()
		jobs = jobScheduler
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	var engineOpts []router.EngineOption
	if tracerProvider.IsEnabled() {
		engineOpts = append(engineOpts, router.WithTracing(cfg.Telemetry.ServiceName))
	}
	engine, err := router.NewEngine(cfg.HTTP, log, meterProvider, engineOpts...)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}
	router.NewRouter(engine).
		Register(
			handler.NewPurchaseOrderHandler(purchaseOrderService),
			handler.NewSalesOrderHandler(salesOrderService),
			handler.NewReturnOrderHandler(returnOrderService),
			handler.NewSystemHandler(cfg.App.Name, version, sqlDB, jobs),
		).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/oklog/ulid/v2"

	"github.com/sobri3195/WarungWA/internal/handlers"
	"github.com/sobri3195/WarungWA/internal/platform/config"
	pfirestore "github.com/sobri3195/WarungWA/internal/platform/firestore"
	"github.com/sobri3195/WarungWA/internal/platform/observability"
	firestoreRepo "github.com/sobri3195/WarungWA/internal/repositories/firestore"
	"github.com/sobri3195/WarungWA/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	provider := pfirestore.NewProvider(cfg.Firestore)
	registry, err := firestoreRepo.NewRegistry(provider)
	if err != nil {
		logger.Fatal("failed to initialise firestore repositories", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := registry.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	clock := func() time.Time { return time.Now().UTC() }
	idGen := func() string { return ulid.Make().String() }

	activityService, err := services.NewActivityLogService(services.ActivityLogServiceDeps{
		Repository:  registry.ActivityLogs(),
		Clock:       clock,
		IDGenerator: idGen,
		Logger:      zapActivityLogger{logger: logger.Named("activity").Sugar()},
	})
	if err != nil {
		logger.Fatal("failed to initialise activity log service", zap.Error(err))
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:    registry.Products(),
		Activity:    activityService,
		Clock:       clock,
		IDGenerator: idGen,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:            registry.Orders(),
		Items:             registry.OrderItems(),
		History:           registry.StatusHistory(),
		Payments:          registry.Payments(),
		Customers:         registry.Customers(),
		Counters:          registry.Counters(),
		Catalog:           catalogService,
		Activity:          activityService,
		UnitOfWork:        registry,
		Clock:             clock,
		IDGenerator:       idGen,
		OrderNumberPrefix: cfg.Shop.OrderNumberPrefix,
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	customerService, err := services.NewCustomerService(services.CustomerServiceDeps{
		Customers:   registry.Customers(),
		Activity:    activityService,
		Clock:       clock,
		IDGenerator: idGen,
	})
	if err != nil {
		logger.Fatal("failed to initialise customer service", zap.Error(err))
	}

	shopService, err := services.NewShopService(services.ShopServiceDeps{
		Shops:    registry.Shops(),
		Activity: activityService,
		Clock:    clock,
	})
	if err != nil {
		logger.Fatal("failed to initialise shop service", zap.Error(err))
	}

	templateService, err := services.NewTemplateService(services.TemplateServiceDeps{
		Templates:   registry.Templates(),
		Orders:      registry.Orders(),
		Shops:       registry.Shops(),
		Activity:    activityService,
		Clock:       clock,
		IDGenerator: idGen,
	})
	if err != nil {
		logger.Fatal("failed to initialise template service", zap.Error(err))
	}

	reportingService, err := services.NewReportingService(services.ReportingServiceDeps{
		Orders:    registry.Orders(),
		Items:     registry.OrderItems(),
		Customers: registry.Customers(),
		Clock:     clock,
	})
	if err != nil {
		logger.Fatal("failed to initialise reporting service", zap.Error(err))
	}

	systemService, err := services.NewSystemService(services.SystemServiceDeps{
		Health:   registry.Health(),
		Counters: registry.Counters(),
		Clock:    clock,
	})
	if err != nil {
		logger.Fatal("failed to initialise system service", zap.Error(err))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware(cfg.Firestore.ProjectID),
		observability.InjectLoggerMiddleware(logger),
		observability.RequestLoggerMiddleware(cfg.Firestore.ProjectID),
		observability.RecoveryMiddleware(logger),
	}

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(systemService)),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(orderService).Routes),
		handlers.WithCustomerRoutes(handlers.NewCustomerHandlers(customerService).Routes),
		handlers.WithProductRoutes(handlers.NewProductHandlers(catalogService).Routes),
		handlers.WithShopRoutes(handlers.NewShopHandlers(shopService).Routes),
		handlers.WithTemplateRoutes(handlers.NewTemplateHandlers(templateService).Routes),
		handlers.WithReportRoutes(handlers.NewReportHandlers(reportingService).Routes),
		handlers.WithActivityRoutes(handlers.NewActivityHandlers(activityService).Routes),
	}

	if cfg.Features.EnableReminders {
		reminderService, err := services.NewReminderService(services.ReminderServiceDeps{
			Reminders:   registry.Reminders(),
			Orders:      registry.Orders(),
			Activity:    activityService,
			Clock:       clock,
			IDGenerator: idGen,
		})
		if err != nil {
			logger.Fatal("failed to initialise reminder service", zap.Error(err))
		}
		opts = append(opts, handlers.WithReminderRoutes(handlers.NewReminderHandlers(reminderService).Routes))
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("warungwa api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// zapActivityLogger adapts the structured logger to the activity writer's
// warning hook.
type zapActivityLogger struct {
	logger *zap.SugaredLogger
}

func (l zapActivityLogger) Warnf(format string, args ...any) {
	l.logger.Warnf(format, args...)
}

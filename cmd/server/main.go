package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/retailops/ledgersync/internal/application/ledgersync"
	"github.com/retailops/ledgersync/internal/infrastructure/cache"
	"github.com/retailops/ledgersync/internal/infrastructure/config"
	"github.com/retailops/ledgersync/internal/infrastructure/logger"
	"github.com/retailops/ledgersync/internal/infrastructure/persistence"
	"github.com/retailops/ledgersync/internal/infrastructure/scheduler"
	"github.com/retailops/ledgersync/internal/infrastructure/syncqueue"
	"github.com/retailops/ledgersync/internal/infrastructure/tally"
	"github.com/retailops/ledgersync/internal/interfaces/http/handler"
	"github.com/retailops/ledgersync/internal/interfaces/http/middleware"
	"github.com/retailops/ledgersync/internal/interfaces/http/router"
)

// reconcileExecutor adapts the application reconciler to the scheduler's
// executor port
type reconcileExecutor struct {
	reconciler *ledgersync.Reconciler
}

func (e reconcileExecutor) Execute(ctx context.Context) error {
	_, err := e.reconciler.Run(ctx)
	return err
}

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

	log.Info("Starting LedgerSync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	syncJobRepo := persistence.NewGormSyncJobRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	stockEntryRepo := persistence.NewGormStockEntryRepository(db.DB)
	procurementRepo := persistence.NewGormProcurementRequestRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)
	healthLogRepo := persistence.NewGormHealthLogRepository(db.DB)

	// Settings flow through a TTL cache; Redis when reachable, in-process
	// memory otherwise
	cacheFactory := cache.NewSettingsCacheFactory(
		cfg.Redis,
		cfg.Ledger.SettingsCacheTTL,
		cache.WithLogger(log),
	)
	settingsProvider, err := cacheFactory.CreateProvider(settingsRepo)
	if err != nil {
		log.Fatal("Failed to create settings provider", zap.Error(err))
	}
	defer func() {
		_ = settingsProvider.Close()
	}()

	// The transport endpoint and company name are read once at startup.
	// Stored settings win over config; changing them afterwards requires a
	// restart, while the enabled flag is re-read through the provider on
	// every dispatch.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	bootSettings, err := settingsRepo.Get(bootCtx)
	bootCancel()
	if err != nil {
		log.Fatal("Failed to load integration settings", zap.Error(err))
	}
	endpoint := bootSettings.Endpoint
	if endpoint == "" {
		endpoint = cfg.Ledger.Endpoint
	}
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	companyName := bootSettings.CompanyName
	if companyName == "" {
		companyName = cfg.Ledger.CompanyName
	}

	// Ledger-system transport
	classifier := tally.NewClassifier()
	ledgerClient, err := tally.NewClient(tally.Config{
		Endpoint:     endpoint,
		ProbeTimeout: cfg.Ledger.ProbeTimeout,
		SendTimeout:  cfg.Ledger.SendTimeout,
	}, classifier, log)
	if err != nil {
		log.Fatal("Failed to create ledger client", zap.Error(err))
	}

	// Application services
	statusWriters := ledgersync.NewStatusWriterRegistry(orderRepo, stockEntryRepo, procurementRepo)
	dispatcher := ledgersync.NewDispatcher(
		settingsProvider,
		ledgerClient,
		ledgerClient,
		syncJobRepo,
		statusWriters,
		healthLogRepo,
		cfg.Ledger.MaxAttempts,
		log,
	)

	payloads := tally.NewPayloadFactory(companyName)
	orchestrator := ledgersync.NewOrchestrator(
		dispatcher,
		orderRepo,
		stockEntryRepo,
		procurementRepo,
		productRepo,
		ledgersync.PayloadBuilders{
			Unit:            payloads.Unit,
			SalesLedger:     payloads.SalesLedger,
			PurchaseLedger:  payloads.PurchaseLedger,
			TaxLedger:       payloads.TaxLedger,
			RoundingLedger:  payloads.RoundingLedger,
			CustomerLedger:  payloads.CustomerLedger,
			SupplierLedger:  payloads.SupplierLedger,
			StockItem:       payloads.StockItem,
			SalesVoucher:    payloads.SalesVoucher,
			CreditNote:      payloads.CreditNote,
			PurchaseVoucher: payloads.PurchaseVoucher,
			MemoVoucher:     payloads.MemoVoucher,
		},
		log,
	)

	queueAdmin := ledgersync.NewQueueAdminService(syncJobRepo, log)
	reconciler := ledgersync.NewReconciler(ledgerClient, settingsProvider, orderRepo, productRepo, log)

	// Background queue processor
	processor := syncqueue.NewProcessor(
		syncJobRepo,
		settingsProvider,
		ledgerClient,
		statusWriters,
		healthLogRepo,
		syncqueue.ProcessorConfig{
			BatchSize:        cfg.Ledger.BatchSize,
			PollInterval:     cfg.Ledger.PollInterval,
			InterJobDelay:    cfg.Ledger.InterJobDelay,
			CleanupEnabled:   cfg.Ledger.CleanupEnabled,
			CleanupRetention: cfg.Ledger.CleanupRetention,
			CleanupInterval:  1 * time.Hour,
		},
		log,
	)
	if err := processor.Start(context.Background()); err != nil {
		log.Fatal("Failed to start queue processor", zap.Error(err))
	}

	// Reconcile scheduler; started even when interval runs are disabled so
	// manual triggers keep working
	reconcileScheduler, err := scheduler.NewReconcileScheduler(scheduler.ReconcileSchedulerConfig{
		Enabled:    cfg.Ledger.ReconcileEnabled,
		Interval:   cfg.Ledger.ReconcileInterval,
		RunTimeout: 5 * time.Minute,
		RunOnStart: false,
	}, reconcileExecutor{reconciler: reconciler}, log)
	if err != nil {
		log.Fatal("Failed to create reconcile scheduler", zap.Error(err))
	}
	if err := reconcileScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start reconcile scheduler", zap.Error(err))
	}

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	systemHandler := handler.NewSystemHandler()
	engine.GET("/healthz", systemHandler.Healthz)

	ledgerHandler := handler.NewLedgerHandler(
		queueAdmin,
		ledgerClient,
		reconcileScheduler,
		settingsRepo,
		settingsProvider,
		log,
	)
	syncHandler := handler.NewSyncHandler(orchestrator, processor)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(ledgerHandler).
		Register(syncHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := reconcileScheduler.Stop(ctx); err != nil {
		log.Error("Reconcile scheduler did not stop cleanly", zap.Error(err))
	}
	if err := processor.Stop(ctx); err != nil {
		log.Error("Queue processor did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pasteleria/config"
	"pasteleria/internal/api"
	"pasteleria/internal/auth"
	"pasteleria/internal/broker"
	"pasteleria/internal/redisclient"
	"pasteleria/internal/repository"
	"pasteleria/internal/service"
	"pasteleria/internal/store"
	"pasteleria/internal/store/sqlite"
	"pasteleria/internal/util"
	"pasteleria/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting pasteleria service")

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer("pasteleria", cfg.Observ.JaegerEndpoint, cfg.Server.Env)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	repo, err := openRepository(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer repo.Close()
	logger.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	var (
		cache       service.Cache
		locker      service.Locker
		redisClient *redisclient.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		cache, locker = redisClient, redisClient
		logger.Info("Redis connected")
	}

	var sink broker.EventSink = broker.DiscardSink{}
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		sink = producer
		logger.Info("Kafka producer initialized")
	}
	eventPublisher := broker.NewEventPublisher(sink)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	invoiceService := service.NewInvoiceService(repo, cfg.Business.TaxRate)
	catalogService := service.NewCatalogService(repo, cache, cfg.Business.ProductCacheTTL, eventPublisher)
	services := api.Services{
		Catalog:  catalogService,
		Cart:     service.NewCartService(repo),
		Invoices: invoiceService,
		Orders: service.NewOrderService(repo, invoiceService, eventPublisher, locker, service.OrderOptions{
			AutoComplete: cfg.Business.AutoCompleteOrders,
			LockTTL:      cfg.Business.CheckoutLockTTL,
			Products:     catalogService,
		}),
		Reviews: service.NewReviewService(repo, eventPublisher),
		Notifications: service.NewNotificationService(repo, service.NotificationOptions{
			WindowDays:   cfg.Business.AlertWindowDays,
			AlertLimit:   cfg.Business.AlertLimit,
			MessageLimit: cfg.Business.MessageLimit,
		}),
		Dashboard: service.NewDashboardService(repo, cfg.Business.LowStockThreshold),
		Auth:      service.NewAuthService(repo, auth.NewPasswordHasher(0), tokens),
	}

	if cfg.Auth.AdminEmail != "" {
		if err := services.Auth.EnsureAdmin(context.Background(), cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Fatal("Failed to seed admin account", zap.Error(err))
		}
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var catalogWorker *worker.CatalogWorker
	if cfg.Kafka.Enabled && cache != nil {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
		catalogWorker = worker.NewCatalogWorker(consumer, catalogService)
		go func() {
			if err := catalogWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Catalog worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(services, tokens, repo)
	if redisClient != nil {
		handler.AddReadinessCheck("redis", redisClient)
	}
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if catalogWorker != nil {
		if err := catalogWorker.Stop(); err != nil {
			logger.Warn("Error stopping catalog worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// openRepository connects to the configured database and brings its schema up to date
func openRepository(cfg config.DatabaseConfig) (repository.Repository, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := store.NewStore(cfg.URL)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath)
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
}

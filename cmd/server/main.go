package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	emiapp "github.com/finops/backend/internal/application/emi"
	ledgerapp "github.com/finops/backend/internal/application/ledger"
	paymentapp "github.com/finops/backend/internal/application/payment"
	reportapp "github.com/finops/backend/internal/application/report"
	"github.com/finops/backend/internal/infrastructure/cache"
	"github.com/finops/backend/internal/infrastructure/config"
	"github.com/finops/backend/internal/infrastructure/event"
	applogger "github.com/finops/backend/internal/infrastructure/logger"
	"github.com/finops/backend/internal/infrastructure/persistence"
	"github.com/finops/backend/internal/infrastructure/scheduler"
	"github.com/finops/backend/internal/interfaces/http/dto"
	"github.com/finops/backend/internal/interfaces/http/handler"
	"github.com/finops/backend/internal/interfaces/http/middleware"
	"github.com/finops/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting finops backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	gormLogger := applogger.NewGormLogger(logger, applogger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	// Infrastructure services
	unitOfWork := persistence.NewGormUnitOfWork(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	planRepo := persistence.NewGormEmiPlanRepository(db.DB)
	feedRepo := persistence.NewGormTransactionFeedRepository(db.DB)
	publisher := event.NewLogPublisher(logger)
	leaseLock := cache.NewRedisLeaseLock(redisClient, "finops:lease:")

	// Application services. The EMI service doubles as the payment service's
	// installment allocator.
	postingService := ledgerapp.NewPostingService(logger)
	emiService := emiapp.NewService(unitOfWork, planRepo, postingService, publisher, logger)
	paymentService := paymentapp.NewService(unitOfWork, paymentRepo, postingService, emiService, publisher, logger)
	feedService := reportapp.NewFeedService(feedRepo)

	// Overdue sweep
	var sweepScheduler *scheduler.OverdueSweepScheduler
	if cfg.Scheduler.Enabled {
		sweepScheduler = scheduler.NewOverdueSweepScheduler(emiService, leaseLock, scheduler.OverdueSweepConfig{
			Interval: cfg.Scheduler.SweepInterval,
			LockTTL:  cfg.Scheduler.LockTTL,
		}, logger)
		sweepScheduler.Start()
		defer sweepScheduler.Stop()
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := dto.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register binding validators: %w", err)
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
	)
	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NewRouter(engine).
		Register(handler.NewPaymentHandler(paymentService)).
		Register(handler.NewEmiHandler(emiService)).
		Register(handler.NewTransactionHandler(feedService)).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

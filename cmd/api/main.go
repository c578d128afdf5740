package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/handyhub/booking-api/internal/config"
	adminHandler "github.com/handyhub/booking-api/internal/handler/admin"
	healthHandler "github.com/handyhub/booking-api/internal/handler/health"
	orderHandler "github.com/handyhub/booking-api/internal/handler/order"
	workerHandler "github.com/handyhub/booking-api/internal/handler/worker"
	"github.com/handyhub/booking-api/internal/middleware"
	"github.com/handyhub/booking-api/internal/repository/cache"
	"github.com/handyhub/booking-api/internal/repository/instrument"
	"github.com/handyhub/booking-api/internal/repository/postgres"
	"github.com/handyhub/booking-api/internal/router"
	availabilityService "github.com/handyhub/booking-api/internal/service/availability"
	eventService "github.com/handyhub/booking-api/internal/service/event"
	orderService "github.com/handyhub/booking-api/internal/service/order"
	workerService "github.com/handyhub/booking-api/internal/service/worker"
	"github.com/handyhub/booking-api/pkg/auth"
	"github.com/handyhub/booking-api/pkg/logger"
	"github.com/handyhub/booking-api/pkg/messaging/redis"
	"github.com/handyhub/booking-api/pkg/metrics"
	"github.com/handyhub/booking-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		Pretty:  cfg.Logging.Pretty,
		Service: "booking-api",
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.New("booking_api")

	// Repositories. The worker directory gets a read-through cache, the
	// order store gets operation metrics.
	workerRepo := cache.NewWorkerRepository(postgres.NewWorkerRepository(db), cfg.Cache.WorkerTTL)
	serviceRepo := postgres.NewServiceRepository(db)
	orderRepo := instrument.NewOrderRepository(postgres.NewOrderRepository(db), m)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	eventSvc := eventService.NewService(outboxRepo)
	availabilitySvc := availabilityService.NewService(workerRepo, orderRepo)
	orderSvc := orderService.NewService(orderRepo, workerRepo, serviceRepo, eventSvc, log)
	workerSvc := workerService.NewService(workerRepo, availabilitySvc)

	// Middleware and handlers
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	r := router.New(
		log,
		authMiddleware,
		healthHandler.NewHandler(db),
		workerHandler.NewHandler(workerSvc),
		orderHandler.NewHandler(orderSvc, m),
		adminHandler.NewHandler(orderSvc, m),
		router.Config{
			RateLimitEnabled:  cfg.RateLimit.Enabled,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			RateBurst:         cfg.RateLimit.Burst,
			RequestTimeout:    cfg.Server.RequestTimeout,
		},
	)
	r.Setup()

	// Outbox publishing
	broker, err := redis.NewBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	processorCtx, stopProcessor := context.WithCancel(context.Background())
	defer stopProcessor()

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
		MaxRetries:   cfg.Outbox.MaxRetries,
		RetryDelay:   cfg.Outbox.RetryDelay,
	}, log, m)
	go processor.Start(processorCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	stopProcessor()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}

package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bookline/internal/adapter"
	"bookline/internal/config"
	"bookline/internal/domain"
	"bookline/internal/handler"
	"bookline/internal/infra/postgresql"
	"bookline/internal/infra/postgresql/migrations"
	infraredis "bookline/internal/infra/redis"
	"bookline/internal/observability"
	"bookline/internal/queue"
	"bookline/internal/repository"
	"bookline/internal/service"
	"bookline/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel, "bookline-api")
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec, map[domain.Channel]int{
		domain.ChannelEmail:    cfg.EmailRateLimitPerSec,
		domain.ChannelWhatsApp: cfg.WARateLimitPerSec,
	})
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer mq.Close()

	publisher := queue.NewRabbitMQPublisher(mq)
	consumer := queue.NewRabbitMQConsumer(mq, cfg.WorkerConcurrency, logger)

	emailAdapter, err := adapter.NewEmailAdapter(cfg.EmailAPIURL, cfg.EmailAPIKey)
	if err != nil {
		logger.Fatal("email adapter initialization failed", zap.Error(err))
	}
	whatsAppAdapter, err := adapter.NewWhatsAppAdapter(cfg.WhatsAppAPIURL, cfg.WhatsAppToken)
	if err != nil {
		logger.Fatal("whatsapp adapter initialization failed", zap.Error(err))
	}
	adapters := adapter.Registry{
		domain.ChannelEmail:    emailAdapter,
		domain.ChannelWhatsApp: whatsAppAdapter,
	}

	taskRepo := repository.NewGormTaskRepo(db)
	attemptRepo := repository.NewGormAttemptRepo(db)
	invitationRepo := repository.NewGormInvitationRepo(db)
	connectionRepo := repository.NewGormConnectionRepo(db)
	partyRepo := repository.NewGormPartyRepo(db)
	tokenRepo := repository.NewGormTokenRepo(db)

	metrics := observability.NewMetrics()
	alerter := observability.NewLogAlerter(logger)

	dispatcher, err := service.NewDispatcher(taskRepo, partyRepo, publisher, metrics, logger)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}

	connectionService, err := service.NewConnectionService(invitationRepo, connectionRepo, dispatcher, logger)
	if err != nil {
		logger.Fatal("connection service initialization failed", zap.Error(err))
	}

	verificationService, err := service.NewVerificationService(tokenRepo, logger)
	if err != nil {
		logger.Fatal("verification service initialization failed", zap.Error(err))
	}

	worker, err := service.NewWorkerService(taskRepo, attemptRepo, consumer, adapters, rateLimiter, alerter, cfg.WorkerConcurrency, logger)
	if err != nil {
		logger.Fatal("worker initialization failed", zap.Error(err))
	}
	worker.SetMetrics(metrics)

	retryScanner, err := service.NewRetryScanner(taskRepo, publisher, time.Duration(cfg.RetryScanIntervalSec)*time.Second, 0, logger)
	if err != nil {
		logger.Fatal("retry scanner initialization failed", zap.Error(err))
	}

	expirySweeper, err := service.NewExpirySweeper(
		invitationRepo,
		tokenRepo,
		connectionService,
		alerter,
		metrics,
		time.Duration(cfg.ExpirySweepIntervalSec)*time.Second,
		0,
		logger,
	)
	if err != nil {
		logger.Fatal("expiry sweeper initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(transport.CorrelationMiddleware())
	app.Use(metrics.HTTPMiddleware())

	if err := handler.RegisterConnectionRoutes(app, connectionService); err != nil {
		logger.Fatal("connection routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterEventRoutes(app, dispatcher); err != nil {
		logger.Fatal("event routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterTaskRoutes(app, dispatcher, attemptRepo); err != nil {
		logger.Fatal("task routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterVerificationRoutes(app, verificationService); err != nil {
		logger.Fatal("verification routes registration failed", zap.Error(err))
	}
	handler.RegisterHealthRoutes(app, sqlDB, rdb, mq)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Start(groupCtx)
	})
	g.Go(func() error {
		return retryScanner.Start(groupCtx)
	})
	g.Go(func() error {
		return expirySweeper.Start(groupCtx)
	})
	g.Go(func() error {
		logger.Info("api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})
	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("service terminated", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

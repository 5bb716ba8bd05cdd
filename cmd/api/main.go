package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/offset-service/internal/api/http"
	"github.com/spec-kit/offset-service/internal/api/http/handlers"
	"github.com/spec-kit/offset-service/internal/auth"
	"github.com/spec-kit/offset-service/internal/config"
	"github.com/spec-kit/offset-service/internal/events"
	"github.com/spec-kit/offset-service/internal/observability"
	"github.com/spec-kit/offset-service/internal/persistence"
	"github.com/spec-kit/offset-service/internal/repository"
	"github.com/spec-kit/offset-service/internal/repository/memory"
	"github.com/spec-kit/offset-service/internal/service"
	"github.com/spec-kit/offset-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(strings.ReplaceAll(cfg.App.Name, "-", "_"))
	}

	var (
		userRepo   repository.UserRepository
		offsetRepo repository.OffsetRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		userRepo = repository.NewUserRepository(pool)
		offsetRepo = repository.NewOffsetRepository(pool)
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		userRepo = memory.NewUserRepository()
		offsetRepo = memory.NewOffsetRepository()
	}
	userRepo = repository.NewCachedUserRepository(userRepo, redis.Client, cfg.Redis.IdentityCacheTTL, logger)

	if cfg.Postgres.Seed {
		if _, err := service.NewSeeder(userRepo, offsetRepo, cfg.Auth.BcryptCost, logger).Seed(ctx); err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
	}

	tokens := auth.NewTokenService(signingKey(cfg.Auth, logger), cfg.Auth.AccessTokenTTL())

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger))
	relay, forwarder := startEventForwarding(cfg.Events, dispatcher, logger)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	offsetService := service.NewOffsetService(offsetRepo, dispatcher, logger)
	converterService := service.NewConverterService(offsetRepo, metrics)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo, logger, metrics)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, cfg.App, logger, metrics)

	deps := map[string]handlers.Pinger{}
	if pg.PoolHandle() != nil {
		deps["postgres"] = pg
	}
	if redis.Client != nil {
		deps["redis"] = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Users:          handlers.NewUsersHandler(authService),
		Offsets:        handlers.NewOffsetsHandler(offsetService),
		Converter:      handlers.NewConverterHandler(converterService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if relay != nil {
		if err := relay.Stop(shutdownCtx); err != nil {
			logger.Warn("event relay did not drain", zap.Error(err))
		}
	}
	if err := forwarder.Close(); err != nil {
		logger.Warn("closing amqp connection", zap.Error(err))
	}
}

// signingKey uses the configured secret or, when none is set, a random key that
// lives only as long as this process.
func signingKey(cfg config.AuthConfig, logger *zap.Logger) auth.SigningKey {
	if cfg.JWTSecret != "" {
		if len(cfg.JWTSecret) < 32 {
			logger.Warn("AUTH_JWT_SECRET is shorter than 32 bytes")
		}
		return auth.SigningKeyFromSecret(cfg.JWTSecret)
	}
	key, err := auth.NewRandomSigningKey()
	if err != nil {
		logger.Fatal("failed to generate signing key", zap.Error(err))
	}
	logger.Warn("AUTH_JWT_SECRET not provided; tokens will not survive a restart")
	return key
}

func startEventForwarding(cfg config.EventsConfig, dispatcher events.Dispatcher, logger *zap.Logger) (*worker.EventRelay, *events.AMQPForwarder) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	forwarder, err := events.DialAMQPForwarder(cfg.AMQPURL, cfg.Exchange, logger)
	if err != nil {
		logger.Warn("event forwarding disabled", zap.Error(err))
		return nil, nil
	}
	relay := worker.NewEventRelay(forwarder.Forward, 256, logger)
	relay.Attach(dispatcher)
	logger.Info("forwarding events to amqp", zap.String("exchange", cfg.Exchange))
	return relay, forwarder
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

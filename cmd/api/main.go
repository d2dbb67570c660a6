package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/piresc/dogwalker/internal/pkg/config"
	"github.com/piresc/dogwalker/internal/pkg/database"
	"github.com/piresc/dogwalker/internal/pkg/health"
	"github.com/piresc/dogwalker/internal/pkg/jwt"
	"github.com/piresc/dogwalker/internal/pkg/logger"
	"github.com/piresc/dogwalker/internal/pkg/middleware"
	"github.com/piresc/dogwalker/internal/pkg/models"
	natspkg "github.com/piresc/dogwalker/internal/pkg/nats"
	nrpkg "github.com/piresc/dogwalker/internal/pkg/newrelic"
	"github.com/piresc/dogwalker/internal/pkg/ratelimit"
	"github.com/piresc/dogwalker/internal/pkg/retry"
	"github.com/piresc/dogwalker/internal/pkg/server"
	wspkg "github.com/piresc/dogwalker/internal/pkg/websocket"
	"github.com/piresc/dogwalker/internal/utils"
	chatws "github.com/piresc/dogwalker/services/chat/handler/websocket"
	"github.com/piresc/dogwalker/services/users/gateway"
	"github.com/piresc/dogwalker/services/users/handler"
	httpHandler "github.com/piresc/dogwalker/services/users/handler/http"
	"github.com/piresc/dogwalker/services/users/repository"
	"github.com/piresc/dogwalker/services/users/usecase"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/api.env", "env file loaded when APP_ENV=local")
	flag.Parse()

	startedAt := time.Now()
	configs := config.InitConfig(*configPath)
	if problems := config.Validate(configs); len(problems) > 0 {
		log.Fatalf("Invalid configuration: %s", strings.Join(problems, "; "))
	}
	appName := configs.App.Name

	// Initialize New Relic and Zap logger
	nrApp := nrpkg.InitNewRelic(configs)
	if nrApp != nil {
		if err := nrApp.WaitForConnection(10 * time.Second); err != nil {
			log.Printf("Warning: New Relic connection timeout: %v", err)
		}
	}

	zapLogger, err := logger.InitZapLoggerFromConfig(configs, nrApp)
	if err != nil {
		log.Fatalf("Failed to create Zap logger: %v", err)
	}
	logger.SetGlobalLogger(zapLogger)

	zapLogger.Info("Starting application",
		zap.String("app", appName),
		zap.String("version", configs.App.Version),
		zap.String("environment", configs.App.Environment),
	)

	shutdowns := server.NewShutdownManager(zapLogger)
	shutdowns.Register("logger", func(context.Context) error {
		return zapLogger.Close()
	})

	// Initialize PostgreSQL database connection
	var postgresClient *database.PostgresClient
	err = retry.Do(context.Background(), retry.DefaultConfig(), "postgres connect", func(context.Context) error {
		var connErr error
		postgresClient, connErr = database.NewPostgresClient(configs.Database)
		return connErr
	})
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	shutdowns.Register("postgres", func(context.Context) error {
		return postgresClient.Close()
	})

	// Redis is optional unless it backs the rate limiter
	var redisClient *database.RedisClient
	if configs.Redis.Host != "" {
		err = retry.Do(context.Background(), retry.DefaultConfig(), "redis connect", func(context.Context) error {
			var connErr error
			redisClient, connErr = database.NewRedisClient(configs.Redis)
			return connErr
		})
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		shutdowns.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	// NATS is optional; account events are dropped when it is not configured
	var natsClient *natspkg.Client
	if configs.NATS.URL != "" {
		natsClient, err = natspkg.NewClient(configs.NATS.URL, appName)
		if err != nil {
			zapLogger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		shutdowns.Register("nats", func(context.Context) error {
			natsClient.Close()
			return nil
		})
	}

	codec := jwt.NewCodec(configs.JWT)
	userRepo := repository.NewUserRepo(postgresClient.GetDB())
	gate := middleware.NewAuthGate(codec, userRepo)

	var authRateLimit echo.MiddlewareFunc
	if configs.RateLimit.Enabled {
		limiter := newLimiter(configs, redisClient, zapLogger)
		authRateLimit = middleware.RateLimiterMiddleware(limiter, "auth")
		shutdowns.Register("rate-limiter", func(context.Context) error {
			limiter.Stop()
			return nil
		})
	}

	// Realtime rooms
	registry := wspkg.NewRegistry(configs.WebSocket.SendQueueSize)
	broadcaster := wspkg.NewBroadcaster(registry)
	manager := wspkg.NewManager(registry, configs.WebSocket)
	chatHandler := chatws.NewHandler(manager, registry, broadcaster, configs.WebSocket)
	shutdowns.Register("websocket", registry.Shutdown)

	// Accounts
	userGW := gateway.NewUserGW(natsClient)
	userUC := usecase.NewUserUC(userRepo, userGW, usecase.NewBcryptHasher(usecase.DefaultBcryptCost), codec, configs)
	routes := handler.NewHandler(
		httpHandler.NewAuthHandler(userUC),
		httpHandler.NewUserHandler(userUC),
		gate,
		authRateLimit,
	)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = utils.HTTPErrorHandler
	e.Validator = utils.NewValidator()

	e.Use(middleware.RequestIDMiddleware())
	if nrApp != nil {
		e.Use(nrecho.Middleware(nrApp))
	}
	e.Use(logger.ZapEchoMiddleware(zapLogger))
	e.Use(middleware.PanicRecoveryMiddleware(zapLogger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: configs.Server.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{
			middleware.HeaderRateLimitLimit,
			middleware.HeaderRateLimitRemaining,
			middleware.HeaderRateLimitReset,
			middleware.HeaderRetryAfter,
		},
	}))

	healthHandler := health.NewHandler(appName, startedAt)
	healthHandler.AddCheck("postgres", postgresClient.Ping)
	if redisClient != nil {
		healthHandler.AddCheck("redis", redisClient.Ping)
	}
	healthHandler.AddStat("connections", registry.ConnectionCount)
	healthHandler.AddStat("rooms", registry.RoomCount)
	healthHandler.RegisterHealthEndpoints(e)

	routes.RegisterRoutes(e)
	chatHandler.RegisterRoutes(e, gate)

	srv := server.NewGracefulServer(e, zapLogger, configs.Server, shutdowns)
	if err := srv.Start(); err != nil {
		zapLogger.Fatal("Server stopped with error", zap.String("app", appName), zap.Error(err))
	}
}

// newLimiter builds the sliding window limiter for the public auth routes
// on the configured backend
func newLimiter(configs *models.Config, redisClient *database.RedisClient, zapLogger *logger.ZapLogger) *ratelimit.Limiter {
	var store ratelimit.Store
	switch configs.RateLimit.Backend {
	case models.RateLimitBackendRedis:
		store = ratelimit.NewRedisStore(redisClient.GetClient(), configs.RateLimit.KeyPrefix)
	default:
		store = ratelimit.NewMemoryStore()
	}

	limiter, err := ratelimit.NewLimiter(store, configs.RateLimit.MaxRequests, configs.RateLimit.Window)
	if err != nil {
		zapLogger.Fatal("Failed to create rate limiter", zap.Error(err))
	}
	limiter.Start(configs.RateLimit.SweepInterval)

	zapLogger.Info("Rate limiting enabled",
		zap.String("backend", configs.RateLimit.Backend),
		zap.Int("max_requests", configs.RateLimit.MaxRequests),
		zap.Duration("window", configs.RateLimit.Window),
	)
	return limiter
}

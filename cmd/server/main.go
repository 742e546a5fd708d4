// Package main — точка входа CRM backend.
// Монолитный HTTP сервер: клиенты, каталог, заказы, платежи,
// финансовые отчёты и JWT аутентификация.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/crm-backend/internal/events"
	"example.com/crm-backend/internal/handler"
	"example.com/crm-backend/internal/middleware"
	"example.com/crm-backend/internal/repository"
	"example.com/crm-backend/internal/service"
	"example.com/crm-backend/pkg/config"
	"example.com/crm-backend/pkg/db"
	"example.com/crm-backend/pkg/healthcheck"
	"example.com/crm-backend/pkg/jwt"
	"example.com/crm-backend/pkg/logger"
	"example.com/crm-backend/pkg/metrics"
	"example.com/crm-backend/pkg/tracing"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка загрузки конфигурации")
	}

	// Инициализируем логгер
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Pretty: cfg.App.LogPretty,
	})

	logger.Info().
		Str("service", cfg.App.Name).
		Str("env", cfg.App.Env).
		Msg("Запуск CRM backend")

	// === Observability: Metrics + Tracing ===

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr())
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Ошибка Metrics Server")
			}
		}()
	}

	shutdownTracing, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Jaeger.OTLPEndpoint(),
		Enabled:        cfg.Jaeger.Enabled,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Не удалось инициализировать tracing")
	}

	// === Хранилища ===

	gormDB, err := db.ConnectMySQL(cfg.MySQL, cfg.IsDevelopment())
	if err != nil {
		logger.Fatal().Err(err).Msg("Не удалось подключиться к MySQL")
	}
	logger.Info().Str("database", cfg.MySQL.Database).Msg("Подключено к MySQL")

	if err := repository.AutoMigrate(gormDB); err != nil {
		logger.Fatal().Err(err).Msg("Ошибка миграции схемы")
	}

	redisClient := db.ConnectRedis(cfg.Redis)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Ошибка закрытия Redis")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("Не удалось подключиться к Redis")
	}
	cancel()
	logger.Info().Str("addr", cfg.Redis.Addr()).Msg("Подключено к Redis")

	// === JWT ===

	tokenManager, err := jwt.NewManager(jwt.Config{
		Secret:          cfg.JWT.Secret,
		Issuer:          cfg.JWT.Issuer,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка создания JWT менеджера")
	}
	tokenManager.SetBlacklist(jwt.NewBlacklist(redisClient))

	// === События ===

	var publisher *events.Publisher
	if cfg.Kafka.Enabled {
		publisher, err = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Fatal().Err(err).Msg("Ошибка создания Kafka publisher")
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error().Err(err).Msg("Ошибка закрытия Kafka publisher")
			}
		}()
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("Публикация событий включена")
	}

	// === Слои приложения ===

	clientRepo := repository.NewClientRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)
	paymentRepo := repository.NewPaymentRepository(gormDB)
	reportRepo := repository.NewReportRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	loginLimiter := service.NewLoginLimiter(redisClient)

	services := handler.Services{
		Users:    service.NewUserService(userRepo, tokenManager, loginLimiter),
		Clients:  service.NewClientService(clientRepo, orderRepo),
		Products: service.NewProductService(productRepo),
		Orders:   service.NewOrderService(orderRepo, clientRepo, productRepo, paymentRepo, publisher),
		Payments: service.NewPaymentService(paymentRepo, orderRepo, publisher),
		Reports:  service.NewReportService(reportRepo),
	}

	// === Middleware ===

	tracingMW := middleware.NewTracingMiddleware()
	authMW := middleware.NewAuthMiddleware(tokenManager)

	var rateLimitMW *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		rateLimitMW = middleware.NewRateLimitMiddleware(middleware.RateLimitConfig{
			Redis:  redisClient,
			Limit:  cfg.RateLimit.RequestsLimit,
			Window: cfg.RateLimit.Window,
		})
		logger.Info().
			Int("limit", cfg.RateLimit.RequestsLimit).
			Dur("window", cfg.RateLimit.Window).
			Msg("Rate limiting включён")
	}

	// === Роутер и HTTP сервер ===

	readiness := healthcheck.Composite(
		func(ctx context.Context) error { return healthcheck.CheckMySQL(ctx, gormDB) },
		func(ctx context.Context) error { return healthcheck.CheckRedis(ctx, redisClient) },
	)

	router := handler.NewRouter(handler.RouterConfig{
		Services:       services,
		AuthMW:         authMW,
		RateLimitMW:    rateLimitMW,
		TracingMW:      tracingMW,
		ReadinessCheck: readiness,
		Debug:          cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.HTTP.Addr()).
			Msg("HTTP сервер запущен")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Ошибка HTTP сервера")
		}
	}()

	// === Graceful Shutdown ===

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Получен сигнал завершения, останавливаем сервер...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Ошибка при остановке сервера")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Ошибка остановки Metrics Server")
		}
	}

	if shutdownTracing != nil {
		if err := shutdownTracing(ctx); err != nil {
			logger.Error().Err(err).Msg("Ошибка остановки Tracing")
		}
	}

	logger.Info().Msg("CRM backend остановлен")
}

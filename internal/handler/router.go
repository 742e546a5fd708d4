// Package handler содержит HTTP обработчики для REST API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/middleware"
	"example.com/crm-backend/internal/service"
	"example.com/crm-backend/pkg/metrics"
)

// ReadinessChecker — функция проверки готовности сервиса.
type ReadinessChecker func(ctx context.Context) error

// Router — конфигурация роутера.
type Router struct {
	engine         *gin.Engine
	services       Services
	authMW         *middleware.AuthMiddleware
	rateLimitMW    *middleware.RateLimitMiddleware
	tracingMW      *middleware.TracingMiddleware
	readinessCheck ReadinessChecker // опциональная проверка готовности
}

// Services — сервисный слой, используемый обработчиками.
type Services struct {
	Users    service.UserService
	Clients  service.ClientService
	Products service.ProductService
	Orders   service.OrderService
	Payments service.PaymentService
	Reports  service.ReportService
}

// RouterConfig — параметры для создания роутера.
type RouterConfig struct {
	Services       Services
	AuthMW         *middleware.AuthMiddleware
	RateLimitMW    *middleware.RateLimitMiddleware
	TracingMW      *middleware.TracingMiddleware
	ReadinessCheck ReadinessChecker // опциональная проверка готовности для /readyz
	Debug          bool             // Режим отладки Gin
}

// NewRouter создаёт и настраивает HTTP роутер.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Стандартные middleware Gin
	engine.Use(gin.Recovery())

	// CORS — обработка cross-origin запросов
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	// Security headers — защита от clickjacking, MIME-sniffing, XSS
	engine.Use(middleware.SecurityHeaders())

	// OpenTelemetry tracing — создаёт spans для Jaeger
	engine.Use(otelgin.Middleware("crm-backend"))

	// Prometheus метрики — requests_total, request_duration_seconds
	engine.Use(metrics.GinMetricsMiddleware())

	r := &Router{
		engine:         engine,
		services:       cfg.Services,
		authMW:         cfg.AuthMW,
		rateLimitMW:    cfg.RateLimitMW,
		tracingMW:      cfg.TracingMW,
		readinessCheck: cfg.ReadinessCheck,
	}

	r.setupRoutes()
	return r
}

// setupRoutes настраивает все маршруты API.
func (r *Router) setupRoutes() {
	// Глобальные middleware
	if r.tracingMW != nil {
		r.engine.Use(r.tracingMW.Handle())
	}

	// Health endpoints (без rate limiting и auth)
	r.engine.GET("/healthz", r.livenessCheck)        // k8s liveness probe
	r.engine.GET("/readyz", r.readinessCheckHandler) // k8s readiness probe

	// API v1
	v1 := r.engine.Group("/api/v1")

	// Rate limiting на уровне API (если включен)
	if r.rateLimitMW != nil {
		v1.Use(r.rateLimitMW.Handle())
	}

	// Редактировать данные могут администраторы и менеджеры,
	// удалять — только администраторы.
	writeRoles := middleware.RequireRole(string(domain.RoleAdmin), string(domain.RoleManager))
	adminOnly := middleware.RequireRole(string(domain.RoleAdmin))

	// === Auth routes (публичные) ===
	authHandler := NewAuthHandler(r.services.Users)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
	}

	// === Users (защищённые) ===
	users := v1.Group("/users")
	if r.authMW != nil {
		users.Use(r.authMW.Handle())
	}
	{
		users.GET("/me", authHandler.GetMe)
	}

	// === Clients ===
	clientHandler := NewClientHandler(r.services.Clients)
	clients := v1.Group("/clients")
	if r.authMW != nil {
		clients.Use(r.authMW.Handle())
	}
	{
		clients.POST("", writeRoles, clientHandler.CreateClient)
		clients.GET("", clientHandler.ListClients)
		clients.GET("/:id", clientHandler.GetClient)
		clients.PATCH("/:id", writeRoles, clientHandler.UpdateClient)
		clients.DELETE("/:id", adminOnly, clientHandler.DeleteClient)
	}

	// === Products ===
	productHandler := NewProductHandler(r.services.Products)
	products := v1.Group("/products")
	if r.authMW != nil {
		products.Use(r.authMW.Handle())
	}
	{
		products.POST("", writeRoles, productHandler.CreateProduct)
		products.GET("", productHandler.ListProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.PATCH("/:id", writeRoles, productHandler.UpdateProduct)
		products.DELETE("/:id", writeRoles, productHandler.ArchiveProduct)
	}

	// === Orders ===
	orderHandler := NewOrderHandler(r.services.Orders)
	orders := v1.Group("/orders")
	if r.authMW != nil {
		orders.Use(r.authMW.Handle())
	}
	{
		orders.POST("", writeRoles, orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PATCH("/:id", writeRoles, orderHandler.UpdateOrder)
		orders.DELETE("/:id", adminOnly, orderHandler.DeleteOrder)
	}

	// === Payments ===
	paymentHandler := NewPaymentHandler(r.services.Payments)
	payments := v1.Group("/payments")
	if r.authMW != nil {
		payments.Use(r.authMW.Handle())
	}
	{
		payments.POST("", writeRoles, paymentHandler.CreatePayment)
		payments.GET("", paymentHandler.ListPayments)
		payments.GET("/:id", paymentHandler.GetPayment)
		payments.PATCH("/:id", writeRoles, paymentHandler.UpdatePayment)
		payments.POST("/:id/confirm", writeRoles, paymentHandler.ConfirmPayment)
		payments.DELETE("/:id", adminOnly, paymentHandler.DeletePayment)
	}

	// === Reports ===
	reportHandler := NewReportHandler(r.services.Reports)
	reports := v1.Group("/reports")
	if r.authMW != nil {
		reports.Use(r.authMW.Handle())
	}
	{
		reports.GET("/summary", reportHandler.Summary)
		reports.GET("/revenue", reportHandler.RevenueByPeriod)
		reports.GET("/top-clients", reportHandler.TopClients)
		reports.GET("/debts", reportHandler.Debts)
	}
}

// Engine возвращает Gin engine для запуска сервера.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// livenessCheck — liveness probe для Kubernetes.
// Возвращает 200 OK если процесс жив (сервер отвечает = процесс работает).
func (r *Router) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// readinessCheckHandler — readiness probe для Kubernetes.
// Возвращает 200 OK если сервис готов принимать трафик (все зависимости доступны).
func (r *Router) readinessCheckHandler(c *gin.Context) {
	// Если ReadinessChecker не установлен — считаем сервис готовым
	if r.readinessCheck == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	// Проверяем готовность с таймаутом 5 секунд
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := r.readinessCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

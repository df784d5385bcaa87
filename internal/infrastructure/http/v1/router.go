// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saeidmoini/salehi-panel/internal/domain/auth"
	"github.com/saeidmoini/salehi-panel/internal/domain/banksms"
	"github.com/saeidmoini/salehi-panel/internal/domain/billing"
	"github.com/saeidmoini/salehi-panel/internal/domain/dialer"
	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
	"github.com/saeidmoini/salehi-panel/internal/domain/schedule"
	"github.com/saeidmoini/salehi-panel/internal/domain/stats"
	"github.com/saeidmoini/salehi-panel/internal/domain/tenant"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/handlers"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/middleware"
	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks).
	Pool *pgxpool.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator for operator token validation.
	JWTValidator middleware.JWTValidator

	// DialerToken is the shared bearer token of the dialer channel.
	DialerToken string

	AuthService     *auth.Service
	TenantService   *tenant.Service
	NumbersService  *numbers.Service
	ScheduleService *schedule.Service
	BillingService  *billing.Service
	DialerService   *dialer.Service
	BankSmsService  *banksms.Service
	StatsService    *stats.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	// Health endpoint (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	router.GET("/health", healthHandler.Health)

	// Provider SMS webhook. The provider cannot send headers, so the
	// endpoint is unauthenticated; unknown senders are dropped inside the
	// service.
	smsHandler := handlers.NewSmsHandler(base, cfg.BankSmsService)
	router.GET("/sms/ingest", smsHandler.Ingest)

	// Dialer channel, shared-token auth.
	dialerHandler := handlers.NewDialerHandler(base, cfg.DialerService, cfg.TenantService)
	dialerGroup := router.Group("/dialer")
	dialerGroup.Use(middleware.DialerAuth(cfg.DialerToken))
	{
		dialerGroup.GET("/next-batch", dialerHandler.NextBatch)
		dialerGroup.POST("/report-result", dialerHandler.ReportResult)
		dialerGroup.POST("/register-scenarios", dialerHandler.RegisterScenarios)
		dialerGroup.POST("/register-outbound-lines", dialerHandler.RegisterOutboundLines)
	}

	// API v1, operator surface.
	apiV1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
		apiV1.POST("/auth/login", authHandler.Login)

		// JWT required.
		authed := apiV1.Group("")
		authed.Use(middleware.Auth(cfg.JWTValidator))
		authed.GET("/auth/me", authHandler.Me)

		// Tenant-scoped: superuser picks the company via ?company= or
		// X-Company, everyone else acts on their own.
		scoped := authed.Group("")
		scoped.Use(middleware.Tenant(cfg.TenantService))
		{
			numbersHandler := handlers.NewNumbersHandler(base, cfg.NumbersService)
			scoped.GET("/numbers", numbersHandler.List)
			scoped.POST("/numbers", numbersHandler.Add)
			scoped.PATCH("/numbers/:id/status", numbersHandler.UpdateStatus)
			scoped.POST("/numbers/bulk-reset", numbersHandler.BulkReset)

			catalogHandler := handlers.NewCatalogHandler(base, cfg.DialerService)
			scoped.GET("/scenarios", catalogHandler.ListScenarios)
			scoped.POST("/scenarios", catalogHandler.CreateScenario)
			scoped.PATCH("/scenarios/:id", catalogHandler.UpdateScenario)
			scoped.GET("/outbound-lines", catalogHandler.ListLines)
			scoped.POST("/outbound-lines", catalogHandler.CreateLine)
			scoped.PATCH("/outbound-lines/:id", catalogHandler.UpdateLine)

			scheduleHandler := handlers.NewScheduleHandler(base, cfg.ScheduleService)
			scoped.GET("/schedule", scheduleHandler.Get)
			scoped.PUT("/schedule", scheduleHandler.Update)

			billingHandler := handlers.NewBillingHandler(base, cfg.BillingService, cfg.ScheduleService)
			scoped.GET("/billing/wallet", billingHandler.Wallet)
			scoped.POST("/billing/match-topup", billingHandler.MatchTopup)
			scoped.GET("/billing/transactions", billingHandler.ListTransactions)

			statsHandler := handlers.NewStatsHandler(base, cfg.StatsService)
			scoped.GET("/stats/numbers-summary", statsHandler.NumbersSummary)
			scoped.GET("/stats/attempt-trend", statsHandler.AttemptTrend)

			scoped.GET("/users", authHandler.ListUsers)
			scoped.POST("/users", authHandler.CreateUser)
			scoped.PATCH("/users/:id/active", authHandler.SetUserActive)

			// Superuser-only tenant-scoped operations.
			admin := scoped.Group("")
			admin.Use(middleware.RequireSuperuser())
			admin.POST("/billing/adjust", billingHandler.Adjust)
			admin.PUT("/schedule/wallet", scheduleHandler.SetWalletAndCost)
		}

		// Superuser-only, not tenant-scoped.
		companiesHandler := handlers.NewCompaniesHandler(base, cfg.TenantService)
		super := authed.Group("/companies")
		super.Use(middleware.RequireSuperuser())
		{
			super.GET("", companiesHandler.List)
			super.POST("", companiesHandler.Create)
			super.PATCH("/:id/active", companiesHandler.SetActive)
		}
	}

	return router
}

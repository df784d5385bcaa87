// Package main is the entry point for the salehi-panel API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saeidmoini/salehi-panel/internal/config"
	"github.com/saeidmoini/salehi-panel/internal/core/jalali"
	"github.com/saeidmoini/salehi-panel/internal/domain/auth"
	"github.com/saeidmoini/salehi-panel/internal/domain/banksms"
	"github.com/saeidmoini/salehi-panel/internal/domain/billing"
	"github.com/saeidmoini/salehi-panel/internal/domain/dialer"
	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
	"github.com/saeidmoini/salehi-panel/internal/domain/schedule"
	"github.com/saeidmoini/salehi-panel/internal/domain/stats"
	"github.com/saeidmoini/salehi-panel/internal/domain/tenant"
	v1 "github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/notify"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres/auth_repo"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres/banksms_repo"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres/billing_repo"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres/dialer_repo"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres/number_repo"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres/schedule_repo"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres/stats_repo"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/storage/postgres/tenant_repo"
	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.AppEnv == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting salehi-panel server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	auditor, err := postgres.NewAuditRecorder(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit recorder", "error", err)
	}

	// --- Calendar ---
	cal, err := jalali.NewCalendar(cfg.Timezone)
	if err != nil {
		log.Fatalw("invalid timezone", "timezone", cfg.Timezone, "error", err)
	}

	// --- Repositories ---
	companyRepo := tenant_repo.New(txManager)
	userRepo := auth_repo.New(txManager)
	scheduleRepo := schedule_repo.New(txManager)
	numberRepo := number_repo.New(txManager)
	resultRepo := number_repo.NewResults(txManager)
	dialerRepo := dialer_repo.New(txManager)
	billingRepo := billing_repo.New(txManager)
	smsRepo := banksms_repo.New(txManager)
	statsRepo := stats_repo.New(txManager)

	// --- Services ---
	tenantService := tenant.NewService(companyRepo)

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret, cfg.AccessTokenTTL))
	authService := auth.NewService(userRepo, companyRepo, jwtService)

	gate := schedule.NewGate(scheduleRepo, txManager, cal, schedule.GateConfig{
		ShortRetrySeconds: cfg.ShortRetrySeconds,
		LongRetrySeconds:  cfg.LongRetrySeconds,
	})
	scheduleService := schedule.NewService(scheduleRepo, txManager, auditor)

	profiles := bankProfiles(cfg.BankProfiles)
	smsClient := notify.NewSmsClient(cfg.MelipayamakAdvancedURL, cfg.NotifyTimeout)
	sheet := notify.NewSheetWebhook(cfg.GoogleSheetWebhookURL, cfg.GoogleSheetWebhookToken, cfg.GoogleSheetTimeout)
	topupNotifier := notify.NewTopupNotifier(smsClient, sheet, profiles, cal)

	smsParser := banksms.NewParser(cal)
	smsService := banksms.NewService(smsRepo, smsParser, profiles, smsClient)

	billingService := billing.NewService(billingRepo, scheduleRepo, smsRepo, txManager, auditor, topupNotifier, cal)

	dialerService := dialer.NewService(
		dialerRepo,
		numberRepo,
		resultRepo,
		scheduleRepo,
		gate,
		billingService,
		authService,
		txManager,
		dialer.Config{
			Timezone:          cfg.Timezone,
			DefaultBatchSize:  cfg.DefaultBatchSize,
			MaxBatchSize:      cfg.MaxBatchSize,
			AssignmentTimeout: cfg.AssignmentTimeout,
			CallCooldown:      time.Duration(cfg.CallCooldownDays) * 24 * time.Hour,
		},
	)

	numbersService := numbers.NewService(numberRepo, resultRepo, txManager, auditor)
	statsService := stats.NewService(statsRepo, cal)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool.Pool,
		Logger:          log,
		JWTValidator:    jwtService,
		DialerToken:     cfg.DialerToken,
		AuthService:     authService,
		TenantService:   tenantService,
		NumbersService:  numbersService,
		ScheduleService: scheduleService,
		BillingService:  billingService,
		DialerService:   dialerService,
		BankSmsService:  smsService,
		StatsService:    statsService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.AppPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func bankProfiles(configs []config.BankProfileConfig) []banksms.Profile {
	profiles := make([]banksms.Profile, 0, len(configs))
	for _, p := range configs {
		profiles = append(profiles, banksms.Profile{
			Key:            p.Key,
			BankName:       p.BankName,
			SMSSenders:     p.SMSSenders,
			ManagerNumbers: p.ManagerNumbers,
			NotifyFrom:     p.NotifyFrom,
			NotifyAPIKey:   p.NotifyAPIKey,
			ParserKey:      p.ParserKey,
		})
	}
	return profiles
}

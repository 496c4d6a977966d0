package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mdental/practice-platform/internal/activity"
	"github.com/mdental/practice-platform/internal/api/router"
	"github.com/mdental/practice-platform/internal/app/bootstrap"
	"github.com/mdental/practice-platform/internal/appointments"
	"github.com/mdental/practice-platform/internal/auth"
	appconfig "github.com/mdental/practice-platform/internal/config"
	"github.com/mdental/practice-platform/internal/export"
	"github.com/mdental/practice-platform/internal/finance"
	httpmiddleware "github.com/mdental/practice-platform/internal/http/middleware"
	"github.com/mdental/practice-platform/internal/invoices"
	"github.com/mdental/practice-platform/internal/notify"
	"github.com/mdental/practice-platform/internal/observability/metrics"
	"github.com/mdental/practice-platform/internal/patients"
	"github.com/mdental/practice-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting practice-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, sqlDB, err := bootstrap.OpenDatabases(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	defer func() { _ = sqlDB.Close() }()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	sessionStore := bootstrap.BuildSessionStore(redisClient, logger)

	// Email
	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	} else {
		emailSender = notify.NewStubEmailSender(logger)
	}
	notifier := notify.NewService(emailSender, cfg.AdminEmails, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	authMetrics := metrics.NewAuthMetrics(registry)
	requestMetrics := metrics.NewRequestMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Core services
	recorder := activity.NewService(sqlDB, logger)
	userRepo := auth.NewPostgresUserRepository(pool)
	authService := auth.NewService(userRepo, sessionStore, auth.NewIdentityVerifier(cfg.IdentitySecret), recorder, auth.ServiceConfig{
		SessionTTL:  cfg.SessionTTL,
		AdminEmails: cfg.AdminEmails,
	}, logger)
	authService.SetNotifier(notifier)

	patientRepo := patients.NewRepository(pool)
	appointmentRepo := appointments.NewRepository(pool)
	invoiceRepo := invoices.NewRepository(pool)
	financeRepo := finance.NewRepository(pool)
	statsRepo := finance.NewStatsRepository(pool)
	rateService := finance.NewRateService(pool, redisClient, cfg.DefaultEURToMKD, logger)

	routerCfg := &router.Config{
		Logger:              logger,
		AuthService:         authService,
		AuthHandler:         auth.NewHandler(authService, cfg.IsProduction(), authMetrics, logger),
		UsersHandler:        auth.NewUsersHandler(userRepo, authService, recorder),
		PatientsHandler:     patients.NewHandler(patientRepo, recorder),
		AppointmentsHandler: appointments.NewHandler(appointmentRepo, patientRepo, notifier, recorder),
		InvoicesHandler:     invoices.NewHandler(invoiceRepo, patientRepo, recorder),
		FinanceHandler:      finance.NewHandler(financeRepo, statsRepo, rateService, invoiceRepo, recorder, logger),
		ActivityHandler:     activity.NewHandler(recorder),
		ExportHandler:       export.NewHandler(patientRepo, invoiceRepo, financeRepo, logger),

		AuthRateLimiter:    httpmiddleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
		AuthMetrics:        authMetrics,
		RequestMetrics:     requestMetrics,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: corsOrigins(cfg),
	}
	handler := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func corsOrigins(cfg *appconfig.Config) []string {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 && cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}
	return origins
}

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mdental/practice-platform/internal/activity"
	"github.com/mdental/practice-platform/internal/appointments"
	"github.com/mdental/practice-platform/internal/auth"
	"github.com/mdental/practice-platform/internal/export"
	"github.com/mdental/practice-platform/internal/finance"
	httpmiddleware "github.com/mdental/practice-platform/internal/http/middleware"
	"github.com/mdental/practice-platform/internal/http/respond"
	"github.com/mdental/practice-platform/internal/invoices"
	"github.com/mdental/practice-platform/internal/observability/metrics"
	"github.com/mdental/practice-platform/internal/patients"
	"github.com/mdental/practice-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AuthService         *auth.Service
	AuthHandler         *auth.Handler
	UsersHandler        *auth.UsersHandler
	PatientsHandler     *patients.Handler
	AppointmentsHandler *appointments.Handler
	InvoicesHandler     *invoices.Handler
	FinanceHandler      *finance.Handler
	ActivityHandler     *activity.Handler
	ExportHandler       *export.Handler

	AuthRateLimiter    *httpmiddleware.RateLimiter
	AuthMetrics        *metrics.AuthMetrics
	RequestMetrics     *metrics.RequestMetrics
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates the Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.RequestMetrics))
	}

	// Public endpoints
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(public chi.Router) {
		if cfg.AuthRateLimiter != nil {
			public.Use(cfg.AuthRateLimiter.Middleware)
		}
		public.Post("/api/auth/login", cfg.AuthHandler.Login)
		public.Get("/api/auth/session", cfg.AuthHandler.ExchangeSession)
		public.Post("/api/auth/logout", cfg.AuthHandler.Logout)
	})

	// Endpoints for any signed-in admin or staff account
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.SessionAuth(cfg.AuthService, cfg.AuthMetrics))

		private.Get("/api/auth/me", cfg.AuthHandler.Me)

		private.Route("/api/patients", func(r chi.Router) {
			r.Get("/", cfg.PatientsHandler.List)
			r.Post("/", cfg.PatientsHandler.Create)
			r.Get("/{id}", cfg.PatientsHandler.Get)
			r.Put("/{id}", cfg.PatientsHandler.Update)
			r.With(httpmiddleware.RequireRole(auth.RoleAdmin)).Delete("/{id}", cfg.PatientsHandler.Delete)
		})

		private.Route("/api/appointments", func(r chi.Router) {
			r.Get("/", cfg.AppointmentsHandler.List)
			r.Post("/", cfg.AppointmentsHandler.Create)
			r.Put("/{id}", cfg.AppointmentsHandler.Update)
			r.Delete("/{id}", cfg.AppointmentsHandler.Delete)
		})

		private.Route("/api/invoices", func(r chi.Router) {
			r.Get("/", cfg.InvoicesHandler.List)
			r.Post("/", cfg.InvoicesHandler.Create)
			r.Get("/{id}", cfg.InvoicesHandler.Get)
			r.Put("/{id}", cfg.InvoicesHandler.Update)
			r.With(httpmiddleware.RequireRole(auth.RoleAdmin)).Delete("/{id}", cfg.InvoicesHandler.Delete)
		})

		private.Get("/api/exchange-rate", cfg.FinanceHandler.GetExchangeRate)
		private.Get("/api/dashboard/stats", cfg.FinanceHandler.DashboardStats)

		// Administration
		private.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireRole(auth.RoleAdmin))

			admin.Route("/api/users", func(r chi.Router) {
				r.Get("/", cfg.UsersHandler.List)
				r.Put("/{id}/role", cfg.UsersHandler.UpdateRole)
				r.Delete("/{id}", cfg.UsersHandler.Delete)
			})

			admin.Route("/api/inflows", func(r chi.Router) {
				r.Get("/", cfg.FinanceHandler.ListInflows)
				r.Post("/", cfg.FinanceHandler.CreateInflow)
				r.Put("/{id}", cfg.FinanceHandler.UpdateInflow)
				r.Delete("/{id}", cfg.FinanceHandler.DeleteInflow)
			})

			admin.Route("/api/outflows", func(r chi.Router) {
				r.Get("/", cfg.FinanceHandler.ListOutflows)
				r.Post("/", cfg.FinanceHandler.CreateOutflow)
				r.Put("/{id}", cfg.FinanceHandler.UpdateOutflow)
				r.Delete("/{id}", cfg.FinanceHandler.DeleteOutflow)
			})

			admin.Put("/api/exchange-rate", cfg.FinanceHandler.UpdateExchangeRate)
			admin.Get("/api/reports/monthly", cfg.FinanceHandler.MonthlyReport)
			admin.Get("/api/activity-logs", cfg.ActivityHandler.List)
			admin.Get("/api/export/csv", cfg.ExportHandler.CSV)
		})
	})

	return r
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fgtintas/referral-service/internal/api/http/handlers"
	"github.com/fgtintas/referral-service/internal/auth"
	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Professionals  *handlers.ProfessionalsHandler
	Admin          *handlers.AdminHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	AuthLimiter    ratelimit.Limiter
	Metrics        fiber.Handler
	Logger         *zap.Logger
}

// RegisterRoutes wires HTTP routes. The auth middleware classifies every
// request by path before any handler runs.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	app.Use(cfg.AuthMiddleware.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	limited := RateLimit(cfg.AuthLimiter, logger)
	authGroup := app.Group("/auth")
	authGroup.Post("/login", limited, cfg.Auth.Login)
	authGroup.Post("/register", limited, cfg.Auth.Register)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", cfg.Auth.Me)
	authGroup.Post("/password/change", auth.RequireAuthenticated(), cfg.Auth.ChangePassword)

	pros := app.Group("/professionals")
	pros.Get("/", cfg.Professionals.List)
	pros.Get("/by-code/:code", cfg.Professionals.GetByCode)
	pros.Get("/:id/referral-qr", cfg.Professionals.ReferralQR)
	pros.Get("/:id", cfg.Professionals.Get)
	pros.Put("/:id", auth.RequireAuthenticated(), cfg.Professionals.Update)
	pros.Post("/:id/commission", auth.RequireRole(domain.RoleAdmin), cfg.Professionals.RecordCommission)

	admin := app.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/professionals", cfg.Admin.ListProfessionals)
	admin.Patch("/professionals/:id/status", cfg.Admin.SetStatus)

	professional := app.Group("/professional", auth.RequireRole(domain.RoleProfessional))
	professional.Get("/dashboard", cfg.Dashboard.Show)
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/offset-service/internal/api/http/handlers"
	"github.com/spec-kit/offset-service/internal/auth"
	"github.com/spec-kit/offset-service/internal/domain"
	"github.com/spec-kit/offset-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Offsets        *handlers.OffsetsHandler
	Converter      *handlers.ConverterHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes. The authentication gate runs for every route;
// guards on each group decide whether an identity is required.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Use(cfg.AuthMiddleware.Handle)

	app.Post("/register", cfg.Users.Register)
	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", cfg.Users.RegisterWithToken)
	authGroup.Post("/login", cfg.Users.Login)

	app.Get("/convert-time", auth.RequireIdentity(), cfg.Converter.Convert)

	app.Get("/api/users/me", auth.RequireIdentity(), cfg.Users.Me)
	app.Get("/api/admin/users/:username", auth.RequireRole(domain.RoleAdmin), cfg.Users.Lookup)

	timezones := app.Group("/api/timezones", auth.RequireIdentity())
	timezones.Get("/user/timezones", cfg.Offsets.List)
	timezones.Post("/", cfg.Offsets.Create)
	timezones.Get("/:id", cfg.Offsets.Get)
	timezones.Put("/:id", cfg.Offsets.Update)
	timezones.Delete("/:id", cfg.Offsets.Delete)
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/oncall-service/internal/api/http/handlers"
	"github.com/spec-kit/oncall-service/internal/auth"
	"github.com/spec-kit/oncall-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Shifts         *handlers.ShiftsHandler
	Unavailability *handlers.UnavailabilityHandler
	Statistics     *handlers.StatisticsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	protected.Get("/people", cfg.Auth.ListPeople)
	protected.Post("/people", auth.RequireAdmin(), cfg.Auth.CreatePerson)
	protected.Get("/people/me", cfg.Auth.Me)
	protected.Patch("/people/me/password", cfg.Auth.ChangePassword)
	protected.Patch("/people/:id", auth.RequireAdmin(), cfg.Auth.UpdatePerson)
	protected.Delete("/people/:id", auth.RequireAdmin(), cfg.Auth.DeactivatePerson)

	protected.Post("/shifts/assign", cfg.Shifts.Assign)
	protected.Get("/shifts", cfg.Shifts.List)
	protected.Patch("/shifts/:id/date", auth.RequireAdmin(), cfg.Shifts.Reschedule)

	protected.Post("/unavailability", cfg.Unavailability.Create)
	protected.Get("/unavailability", cfg.Unavailability.List)
	protected.Delete("/unavailability", cfg.Unavailability.Delete)

	protected.Get("/statistics/me", cfg.Statistics.Me)
	protected.Get("/statistics", cfg.Statistics.All)

	protected.Get("/notifications", cfg.Notifications.List)
	protected.Patch("/notifications/:id/sent", cfg.Notifications.MarkSent)
	protected.Delete("/notifications/:id", cfg.Notifications.Delete)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Tickets           *handlers.TicketsHandler
	Classify          *handlers.ClassifyHandler
	Staff             *handlers.StaffHandler
	AuthMiddleware    *auth.Middleware
	RequireStaffToken bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth/staff")
	authGroup.Post("/register", cfg.Staff.Register)
	authGroup.Post("/login", cfg.Staff.Login)
	if cfg.AuthMiddleware != nil {
		authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Staff.Me)
	}

	tickets := app.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Post("/classify", cfg.Classify.Classify)
	tickets.Get("/:id", cfg.Tickets.GetTicket)

	if cfg.RequireStaffToken && cfg.AuthMiddleware != nil {
		tickets.Patch("/:id", cfg.AuthMiddleware.Handle, cfg.Tickets.UpdateTicket)
	} else {
		tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	}
}

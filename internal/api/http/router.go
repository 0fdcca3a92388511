package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/ticket-desk/internal/api/http/handlers"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Drafts         *handlers.DraftsHandler
	Catalog        *handlers.CatalogHandler
	Tickets        *handlers.TicketsHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	api.Get("/auth/me", cfg.Auth.Me)
	api.Post("/auth/signout", cfg.Auth.SignOut)

	api.Get("/templates", cfg.Catalog.Templates)
	api.Get("/categories", cfg.Catalog.Categories)
	api.Get("/studios", cfg.Catalog.Studios)

	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/dashboard/stats", cfg.Tickets.DashboardStats)

	drafts := api.Group("/drafts")
	drafts.Post("", cfg.Drafts.Create)
	drafts.Get("/:id", cfg.Drafts.Get)
	drafts.Delete("/:id", cfg.Drafts.Discard)
	drafts.Post("/:id/template", cfg.Drafts.ApplyTemplate)
	drafts.Post("/:id/blank", cfg.Drafts.StartBlank)
	drafts.Post("/:id/next", cfg.Drafts.Next)
	drafts.Post("/:id/back", cfg.Drafts.Back)
	drafts.Patch("/:id/details", cfg.Drafts.UpdateDetails)
	drafts.Patch("/:id/context", cfg.Drafts.UpdateContext)
	drafts.Post("/:id/clients/toggle", cfg.Drafts.ToggleClient)
	drafts.Post("/:id/sessions/toggle", cfg.Drafts.ToggleSession)
	drafts.Post("/:id/attachments", cfg.Drafts.AddAttachments)
	drafts.Delete("/:id/attachments/:index", cfg.Drafts.RemoveAttachment)
	drafts.Post("/:id/submit", cfg.Drafts.Submit)
}

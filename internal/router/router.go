package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/patrykpoborca/wondernest-go-api/internal/config"
	"github.com/patrykpoborca/wondernest-go-api/internal/handler"
	"github.com/patrykpoborca/wondernest-go-api/internal/middleware"
	"github.com/patrykpoborca/wondernest-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler *handler.SubmissionHandler
	ModerationHandler *handler.ModerationHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Creator-facing submission lifecycle
	if deps.SubmissionHandler != nil {
		creator := app.Group("/api/v1/creator", jwtMiddleware)
		deps.SubmissionHandler.Register(creator.Group("/submissions"))
	}

	// Moderation queue, restricted to moderator and admin roles
	if deps.ModerationHandler != nil {
		moderation := app.Group("/api/v1/moderation", jwtMiddleware, middleware.RequireRole("moderator", "admin"))
		deps.ModerationHandler.Register(moderation)
	}
}

package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hexlabs-dev/assess-go-api/internal/config"
	"github.com/hexlabs-dev/assess-go-api/internal/handler"
	"github.com/hexlabs-dev/assess-go-api/internal/middleware"
	"github.com/hexlabs-dev/assess-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ReferenceHandler      *handler.ReferenceHandler
	GradingHandler        *handler.GradingHandler
	SubmissionListHandler *handler.SubmissionListHandler
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Reference solutions are educator-only surfaces.
	if deps.ReferenceHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware,
			middleware.RequireRole(middleware.AuthRoleEducator, middleware.AuthRoleAdmin))
		deps.ReferenceHandler.Register(assignments)
	}

	if deps.GradingHandler != nil || deps.SubmissionListHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)

		if deps.SubmissionListHandler != nil {
			deps.SubmissionListHandler.Register(submissions,
				middleware.RequireRole(middleware.AuthRoleEducator, middleware.AuthRoleAdmin))
		}

		if deps.GradingHandler != nil {
			// Grading invocations hit the external AI provider; keep the
			// fan-in per educator bounded.
			deps.GradingHandler.Register(submissions,
				middleware.RequireRole(middleware.AuthRoleEducator, middleware.AuthRoleAdmin, middleware.AuthRoleStudent),
				middleware.RateLimit("ai-grade", 30, time.Minute))
		}
	}
}

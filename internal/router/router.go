package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/labsyncpro/labsync-api/internal/config"
	"github.com/labsyncpro/labsync-api/internal/handler"
	"github.com/labsyncpro/labsync-api/internal/middleware"
	"github.com/labsyncpro/labsync-api/internal/models"
	"github.com/labsyncpro/labsync-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler   *handler.AssignmentHandler
	DistributionHandler *handler.DistributionHandler
	SubmissionHandler   *handler.SubmissionHandler
	GradingHandler      *handler.GradingHandler
	DashboardHandler    *handler.DashboardHandler
	NotificationHandler *handler.NotificationHandler
	ActivityHandler     *handler.ActivityHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	staffOnly := middleware.RequireRole(models.RoleAdmin, models.RoleInstructor)

	// Assignment content and distribution management (staff).
	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware, staffOnly)
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.DistributionHandler != nil {
		distributions := api.Group("/distributions", jwtMiddleware, staffOnly)
		deps.DistributionHandler.Register(distributions)

		if deps.GradingHandler != nil {
			deps.GradingHandler.RegisterDistribution(distributions)
		}
	}

	// Submission tracking and grading (staff).
	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware, staffOnly)
		deps.SubmissionHandler.RegisterStaff(submissions)

		if deps.GradingHandler != nil {
			graded := submissions.Group("", middleware.RateLimit("grading", 60, time.Minute))
			deps.GradingHandler.Register(graded)
		}
	}

	// Student surface: dashboard, distribution feed, uploads.
	student := api.Group("/student", jwtMiddleware, middleware.RequireRole(models.RoleStudent))
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(student)
	}
	if deps.SubmissionHandler != nil {
		uploads := student.Group("/submissions", middleware.RateLimit("student-upload", 10, time.Minute))
		deps.SubmissionHandler.RegisterStudent(uploads)
	}

	// Notifications for any authenticated user.
	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	// Audit trail (admin only).
	if deps.ActivityHandler != nil {
		activity := api.Group("/admin/activity", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.ActivityHandler.Register(activity)
	}
}

package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/atrium-edu/atrium-go-api/internal/config"
	"github.com/atrium-edu/atrium-go-api/internal/handler"
	"github.com/atrium-edu/atrium-go-api/internal/middleware"
	"github.com/atrium-edu/atrium-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler   *handler.AssignmentHandler
	SubmissionHandler   *handler.SubmissionHandler
	GradingHandler      *handler.GradingHandler
	CourseHandler       *handler.CourseHandler
	StudentHandler      *handler.StudentHandler
	NotificationHandler *handler.NotificationHandler
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

	authed := api.Group("", jwtMiddleware)
	facultyOnly := middleware.RequireRole(middleware.RoleFaculty)

	if deps.CourseHandler != nil {
		courses := authed.Group("/courses")
		faculty := authed.Group("/courses", facultyOnly)
		deps.CourseHandler.Register(courses, faculty)
	}

	if deps.StudentHandler != nil {
		students := authed.Group("/students")
		faculty := authed.Group("/students", facultyOnly)
		deps.StudentHandler.Register(students, faculty)
	}

	if deps.AssignmentHandler != nil {
		assignments := authed.Group("/assignments")
		faculty := authed.Group("/assignments", facultyOnly)
		deps.AssignmentHandler.Register(assignments, faculty)
	}

	if deps.SubmissionHandler != nil {
		submissions := authed.Group("/submissions")
		faculty := authed.Group("/submissions", facultyOnly)
		deps.SubmissionHandler.Register(submissions, faculty)

		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(faculty)
		}
	}

	if deps.NotificationHandler != nil {
		notifications := authed.Group("/notifications")
		deps.NotificationHandler.Register(notifications)
	}
}

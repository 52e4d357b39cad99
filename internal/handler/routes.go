package handler

import (
	"context"
	"time"

	"guardians/internal/logger"
	"guardians/internal/metrics"
	"guardians/internal/middleware"
	"guardians/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// HealthCheck reports whether a backing store answers.
type HealthCheck func(ctx context.Context) error

// Routes bundles everything the HTTP surface is built from.
type Routes struct {
	Auth        service.AuthService
	Quizzes     *QuizHandler
	Attempts    *AttemptHandler
	Validation  *middleware.ValidationMiddleware
	RateLimiter *middleware.RateLimiter
	Metrics     *metrics.Metrics
	Health      map[string]HealthCheck
}

// Register mounts the API under /api plus /healthz and /metrics.
func (r Routes) Register(app *fiber.App) {
	app.Get("/healthz", r.healthz)
	if r.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(r.Metrics.Handler()))
	}

	protected := middleware.Protected(r.Auth)
	adminOnly := middleware.AdminOnly()
	limited := func(c *fiber.Ctx) error { return c.Next() }
	if r.RateLimiter != nil {
		limited = r.RateLimiter.Handler()
	}

	validation := r.Validation
	if validation == nil {
		validation = middleware.NewValidationMiddleware(nil)
	}

	api := app.Group("/api", protected)

	quizzes := api.Group("/quizzes")
	quizzes.Get("/", validation.ValidateQuizListQuery(), r.Quizzes.ListQuizzes)
	quizzes.Post("/", adminOnly, r.Quizzes.CreateQuiz)
	quizzes.Get("/:id", r.Quizzes.GetQuiz)
	quizzes.Put("/:id", adminOnly, r.Quizzes.UpdateQuiz)
	quizzes.Delete("/:id", adminOnly, r.Quizzes.DeleteQuiz)
	quizzes.Post("/:id/publish", adminOnly, r.Quizzes.PublishQuiz)
	quizzes.Post("/:id/unpublish", adminOnly, r.Quizzes.UnpublishQuiz)
	quizzes.Post("/:id/archive", adminOnly, r.Quizzes.ArchiveQuiz)
	quizzes.Post("/:id/duplicate", adminOnly, r.Quizzes.DuplicateQuiz)
	quizzes.Get("/:id/stats", adminOnly, r.Attempts.GetQuizStatistics)

	attempts := api.Group("/quiz-attempts")
	// static segments first so "user" is never taken for an attempt id
	attempts.Get("/user", r.Attempts.ListMyAttempts)
	attempts.Post("/quiz/:quizId/start", limited, r.Attempts.StartAttempt)
	attempts.Get("/quiz/:quizId/stats", adminOnly, r.Attempts.GetQuizStatistics)
	attempts.Post("/:attemptId/submit", limited, r.Attempts.SubmitAnswers)
	attempts.Get("/:attemptId", r.Attempts.GetAttempt)
}

func (r Routes) healthz(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(r.Health))
	healthy := true
	for name, check := range r.Health {
		if err := check(ctx); err != nil {
			logger.Get().Warn("health check failed", zap.String("component", name), zap.Error(err))
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "up"
	}

	status := fiber.StatusOK
	state := "ok"
	if !healthy {
		status = fiber.StatusServiceUnavailable
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{"status": state, "checks": checks})
}

// param returns a copy of a route parameter. Fiber's values alias the request
// buffer, and ids end up in metric labels and cache keys that outlive the request.
func param(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.Params(key))
}

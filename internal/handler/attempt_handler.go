package handler

import (
	"guardians/internal/domain"
	"guardians/internal/dto"
	"guardians/internal/middleware"
	"guardians/internal/service"
	"guardians/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// AttemptHandler handles quiz attempt requests
type AttemptHandler struct {
	service   service.AttemptService
	validator *validation.Validator
}

// NewAttemptHandler creates a new AttemptHandler instance
func NewAttemptHandler(service service.AttemptService, v *validation.Validator) *AttemptHandler {
	if v == nil {
		v = validation.NewValidator()
	}
	return &AttemptHandler{
		service:   service,
		validator: v,
	}
}

// StartAttempt handles POST /api/quiz-attempts/quiz/:quizId/start
func (h *AttemptHandler) StartAttempt(c *fiber.Ctx) error {
	client := domain.ClientInfo{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	attempt, err := h.service.StartAttempt(c.Context(), param(c, "quizId"), middleware.CurrentUserID(c), client)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAttemptResponse(attempt))
}

// SubmitAnswers handles POST /api/quiz-attempts/:attemptId/submit
func (h *AttemptHandler) SubmitAnswers(c *fiber.Ctx) error {
	var req dto.SubmitAnswersRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Answers must be an array of {questionId, answer, timeSpent}")
	}
	if req.Answers == nil {
		return domain.NewInvalidInputError("Answers must be an array")
	}
	if errs := h.validator.Struct(req); len(errs) > 0 {
		return errs
	}

	attempt, result, err := h.service.SubmitAnswers(c.Context(), param(c, "attemptId"), middleware.CurrentUserID(c), req.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSubmitAnswersResponse(attempt, result))
}

// GetAttempt handles GET /api/quiz-attempts/:attemptId
func (h *AttemptHandler) GetAttempt(c *fiber.Ctx) error {
	attempt, err := h.service.GetAttempt(c.Context(), param(c, "attemptId"), middleware.CurrentUserID(c), middleware.IsAdmin(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAttemptResponse(attempt))
}

// ListMyAttempts handles GET /api/quiz-attempts/user?quizId=
func (h *AttemptHandler) ListMyAttempts(c *fiber.Ctx) error {
	attempts, err := h.service.ListAttempts(c.Context(), middleware.CurrentUserID(c), utils.CopyString(c.Query("quizId")))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAttemptListResponse(attempts))
}

// GetQuizStatistics serves both GET /api/quiz-attempts/quiz/:quizId/stats and
// GET /api/quizzes/:id/stats.
func (h *AttemptHandler) GetQuizStatistics(c *fiber.Ctx) error {
	quizID := param(c, "quizId")
	if quizID == "" {
		quizID = param(c, "id")
	}
	report, err := h.service.GetQuizStatistics(c.Context(), quizID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizStatisticsResponse(report))
}

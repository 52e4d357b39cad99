package handler

import (
	"guardians/internal/domain"
	"guardians/internal/dto"
	"guardians/internal/middleware"
	"guardians/internal/service"
	"guardians/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuizHandler handles quiz catalogue and authoring requests
type QuizHandler struct {
	service   service.QuizService
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService, v *validation.Validator) *QuizHandler {
	if v == nil {
		v = validation.NewValidator()
	}
	return &QuizHandler{
		service:   service,
		validator: v,
	}
}

// ListQuizzes handles GET /api/quizzes. Administrators see every status,
// employees only published quizzes.
func (h *QuizHandler) ListQuizzes(c *fiber.Ctx) error {
	quizzes, err := h.service.ListQuizzes(c.Context(), middleware.ValidatedQuizFilter(c), middleware.IsAdmin(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizListResponse(quizzes))
}

// GetQuiz handles GET /api/quizzes/:id
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	quiz, err := h.service.GetQuiz(c.Context(), param(c, "id"), middleware.IsAdmin(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizResponse(quiz))
}

// CreateQuiz handles POST /api/quizzes
func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	var req dto.CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.Struct(req); len(errs) > 0 {
		return errs
	}

	quiz, err := h.service.CreateQuiz(c.Context(), req.ToDomain(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewQuizResponse(quiz))
}

// UpdateQuiz handles PUT /api/quizzes/:id
func (h *QuizHandler) UpdateQuiz(c *fiber.Ctx) error {
	var req dto.UpdateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.Struct(req); len(errs) > 0 {
		return errs
	}

	quiz, err := h.service.UpdateQuiz(c.Context(), param(c, "id"), req.ToPatch())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizResponse(quiz))
}

// DeleteQuiz handles DELETE /api/quizzes/:id
func (h *QuizHandler) DeleteQuiz(c *fiber.Ctx) error {
	if err := h.service.DeleteQuiz(c.Context(), param(c, "id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *QuizHandler) PublishQuiz(c *fiber.Ctx) error {
	quiz, err := h.service.PublishQuiz(c.Context(), param(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizResponse(quiz))
}

func (h *QuizHandler) UnpublishQuiz(c *fiber.Ctx) error {
	quiz, err := h.service.UnpublishQuiz(c.Context(), param(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizResponse(quiz))
}

func (h *QuizHandler) ArchiveQuiz(c *fiber.Ctx) error {
	quiz, err := h.service.ArchiveQuiz(c.Context(), param(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizResponse(quiz))
}

// DuplicateQuiz handles POST /api/quizzes/:id/duplicate
func (h *QuizHandler) DuplicateQuiz(c *fiber.Ctx) error {
	quiz, err := h.service.DuplicateQuiz(c.Context(), param(c, "id"), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewQuizResponse(quiz))
}

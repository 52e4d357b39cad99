package middleware

import (
	"guardians/internal/domain"
	"guardians/internal/dto"
	"guardians/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ValidatedQuizFilterKey holds the domain.QuizFilter parsed by ValidateQuizListQuery.
const ValidatedQuizFilterKey = "validated_quiz_filter"

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware(v *validation.Validator) *ValidationMiddleware {
	if v == nil {
		v = validation.NewValidator()
	}
	return &ValidationMiddleware{validator: v}
}

// ValidateQuizListQuery validates the filters of the quiz listing
func (vm *ValidationMiddleware) ValidateQuizListQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var query dto.QuizListQuery
		if err := c.QueryParser(&query); err != nil {
			return domain.NewInvalidInputError("Invalid query parameters")
		}
		if errs := vm.validator.Struct(query); len(errs) > 0 {
			return errs // This will be handled by ErrorHandler middleware
		}

		c.Locals(ValidatedQuizFilterKey, query.ToFilter())
		return c.Next()
	}
}

// ValidatedQuizFilter returns the filter stored by ValidateQuizListQuery.
func ValidatedQuizFilter(c *fiber.Ctx) domain.QuizFilter {
	filter, _ := c.Locals(ValidatedQuizFilterKey).(domain.QuizFilter)
	return filter
}

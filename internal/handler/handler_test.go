package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"guardians/internal/domain"
	"guardians/internal/dto"
	"guardians/internal/handler"
	"guardians/internal/metrics"
	"guardians/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// --- Manual Mocks ---

type MockAuthService struct{}

// ValidateJWT treats the token itself as the principal: "admin" or any employee id.
func (m *MockAuthService) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	switch tokenString {
	case "admin":
		return &dto.AuthClaims{UserID: "admin-1", Role: "admin", TokenType: "access"}, nil
	case "bad":
		return nil, errors.New("invalid token")
	default:
		return &dto.AuthClaims{UserID: tokenString, Role: "employee", TokenType: "access"}, nil
	}
}

func (m *MockAuthService) CreateJWT(ctx context.Context, userID string, role domain.Role, ttl time.Duration, tokenType string) (string, error) {
	panic("MockAuthService.CreateJWT not implemented")
}

type MockQuizService struct {
	ListQuizzesFunc   func(ctx context.Context, filter domain.QuizFilter, asAdmin bool) ([]*domain.Quiz, error)
	GetQuizFunc       func(ctx context.Context, id string, asAdmin bool) (*domain.Quiz, error)
	CreateQuizFunc    func(ctx context.Context, quiz *domain.Quiz, createdBy string) (*domain.Quiz, error)
	UpdateQuizFunc    func(ctx context.Context, id string, patch domain.QuizPatch) (*domain.Quiz, error)
	DeleteQuizFunc    func(ctx context.Context, id string) error
	PublishQuizFunc   func(ctx context.Context, id string) (*domain.Quiz, error)
	UnpublishQuizFunc func(ctx context.Context, id string) (*domain.Quiz, error)
	ArchiveQuizFunc   func(ctx context.Context, id string) (*domain.Quiz, error)
	DuplicateQuizFunc func(ctx context.Context, id string, createdBy string) (*domain.Quiz, error)
}

func (m *MockQuizService) ListQuizzes(ctx context.Context, filter domain.QuizFilter, asAdmin bool) ([]*domain.Quiz, error) {
	if m.ListQuizzesFunc != nil {
		return m.ListQuizzesFunc(ctx, filter, asAdmin)
	}
	panic("MockQuizService.ListQuizzesFunc not implemented")
}
func (m *MockQuizService) GetQuiz(ctx context.Context, id string, asAdmin bool) (*domain.Quiz, error) {
	if m.GetQuizFunc != nil {
		return m.GetQuizFunc(ctx, id, asAdmin)
	}
	panic("MockQuizService.GetQuizFunc not implemented")
}
func (m *MockQuizService) CreateQuiz(ctx context.Context, quiz *domain.Quiz, createdBy string) (*domain.Quiz, error) {
	if m.CreateQuizFunc != nil {
		return m.CreateQuizFunc(ctx, quiz, createdBy)
	}
	panic("MockQuizService.CreateQuizFunc not implemented")
}
func (m *MockQuizService) UpdateQuiz(ctx context.Context, id string, patch domain.QuizPatch) (*domain.Quiz, error) {
	if m.UpdateQuizFunc != nil {
		return m.UpdateQuizFunc(ctx, id, patch)
	}
	panic("MockQuizService.UpdateQuizFunc not implemented")
}
func (m *MockQuizService) DeleteQuiz(ctx context.Context, id string) error {
	if m.DeleteQuizFunc != nil {
		return m.DeleteQuizFunc(ctx, id)
	}
	panic("MockQuizService.DeleteQuizFunc not implemented")
}
func (m *MockQuizService) PublishQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	if m.PublishQuizFunc != nil {
		return m.PublishQuizFunc(ctx, id)
	}
	panic("MockQuizService.PublishQuizFunc not implemented")
}
func (m *MockQuizService) UnpublishQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	if m.UnpublishQuizFunc != nil {
		return m.UnpublishQuizFunc(ctx, id)
	}
	panic("MockQuizService.UnpublishQuizFunc not implemented")
}
func (m *MockQuizService) ArchiveQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	if m.ArchiveQuizFunc != nil {
		return m.ArchiveQuizFunc(ctx, id)
	}
	panic("MockQuizService.ArchiveQuizFunc not implemented")
}
func (m *MockQuizService) DuplicateQuiz(ctx context.Context, id string, createdBy string) (*domain.Quiz, error) {
	if m.DuplicateQuizFunc != nil {
		return m.DuplicateQuizFunc(ctx, id, createdBy)
	}
	panic("MockQuizService.DuplicateQuizFunc not implemented")
}

type MockAttemptService struct {
	StartAttemptFunc      func(ctx context.Context, quizID, userID string, client domain.ClientInfo) (*domain.Attempt, error)
	SubmitAnswersFunc     func(ctx context.Context, attemptID, requesterID string, answers []domain.SubmittedAnswer) (*domain.Attempt, *domain.GradeResult, error)
	GetAttemptFunc        func(ctx context.Context, attemptID, requesterID string, isAdmin bool) (*domain.Attempt, error)
	ListAttemptsFunc      func(ctx context.Context, userID, quizID string) ([]*domain.Attempt, error)
	GetQuizStatisticsFunc func(ctx context.Context, quizID string) (*domain.QuizStatisticsReport, error)
}

func (m *MockAttemptService) StartAttempt(ctx context.Context, quizID, userID string, client domain.ClientInfo) (*domain.Attempt, error) {
	if m.StartAttemptFunc != nil {
		return m.StartAttemptFunc(ctx, quizID, userID, client)
	}
	panic("MockAttemptService.StartAttemptFunc not implemented")
}
func (m *MockAttemptService) SubmitAnswers(ctx context.Context, attemptID, requesterID string, answers []domain.SubmittedAnswer) (*domain.Attempt, *domain.GradeResult, error) {
	if m.SubmitAnswersFunc != nil {
		return m.SubmitAnswersFunc(ctx, attemptID, requesterID, answers)
	}
	panic("MockAttemptService.SubmitAnswersFunc not implemented")
}
func (m *MockAttemptService) GetAttempt(ctx context.Context, attemptID, requesterID string, isAdmin bool) (*domain.Attempt, error) {
	if m.GetAttemptFunc != nil {
		return m.GetAttemptFunc(ctx, attemptID, requesterID, isAdmin)
	}
	panic("MockAttemptService.GetAttemptFunc not implemented")
}
func (m *MockAttemptService) ListAttempts(ctx context.Context, userID, quizID string) ([]*domain.Attempt, error) {
	if m.ListAttemptsFunc != nil {
		return m.ListAttemptsFunc(ctx, userID, quizID)
	}
	panic("MockAttemptService.ListAttemptsFunc not implemented")
}
func (m *MockAttemptService) GetQuizStatistics(ctx context.Context, quizID string) (*domain.QuizStatisticsReport, error) {
	if m.GetQuizStatisticsFunc != nil {
		return m.GetQuizStatisticsFunc(ctx, quizID)
	}
	panic("MockAttemptService.GetQuizStatisticsFunc not implemented")
}

// --- Helpers ---

func newTestApp(quizSvc *MockQuizService, attemptSvc *MockAttemptService, health map[string]handler.HealthCheck) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	handler.Routes{
		Auth:     &MockAuthService{},
		Quizzes:  handler.NewQuizHandler(quizSvc, nil),
		Attempts: handler.NewAttemptHandler(attemptSvc, nil),
		Metrics:  metrics.New(),
		Health:   health,
	}.Register(app)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

var fixedNow = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

func sampleQuiz() *domain.Quiz {
	return &domain.Quiz{
		ID:           "quiz-1",
		Title:        "Phishing basics",
		Category:     "email",
		Difficulty:   domain.DifficultyEasy,
		PassingScore: 70,
		Status:       domain.QuizStatusPublished,
		Questions: []domain.Question{
			{ID: "q1", Prompt: "Which link is suspicious?", Kind: domain.KindMultipleChoice, Options: []string{"a", "b", "c"}, Points: 2},
			{ID: "q2", Prompt: "Attachments can carry malware", Kind: domain.KindTrueFalse, Options: []string{"True", "False"}, Points: 1},
		},
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
}

func sampleAttempt(userID string) *domain.Attempt {
	return &domain.Attempt{
		ID:            "attempt-1",
		QuizID:        "quiz-1",
		UserID:        userID,
		AttemptNumber: 1,
		Status:        domain.AttemptInProgress,
		Answers:       []domain.GradedAnswer{},
		CreatedAt:     fixedNow,
		UpdatedAt:     fixedNow,
	}
}

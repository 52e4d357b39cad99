package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"guardians/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

type attemptFixture struct {
	quizzes   *MockQuizRepository
	attempts  *MockAttemptRepository
	cache     *MockCache
	publisher *MockEventPublisher
	recorder  *MockRecorder
	svc       *attemptService
}

// newAttemptFixture wires the service with mocks. withCache adds a stats cache.
func newAttemptFixture(withCache bool) *attemptFixture {
	f := &attemptFixture{
		quizzes:   new(MockQuizRepository),
		attempts:  new(MockAttemptRepository),
		publisher: new(MockEventPublisher),
		recorder:  new(MockRecorder),
	}
	var c domain.Cache
	if withCache {
		f.cache = new(MockCache)
		c = f.cache
	}
	// the quiz cache itself always goes straight to the repository here
	svc := NewAttemptService(f.attempts, NewQuizCache(f.quizzes, nil, 0), c, time.Minute, f.publisher, f.recorder).(*attemptService)
	svc.now = func() time.Time { return fixedNow }
	svc.newID = func() string { return "attempt-1" }
	f.svc = svc
	return f
}

func inProgressAttempt() *domain.Attempt {
	return &domain.Attempt{
		ID:            "attempt-1",
		QuizID:        "quiz-1",
		UserID:        "user-1",
		AttemptNumber: 1,
		Status:        domain.AttemptInProgress,
		Answers:       []domain.GradedAnswer{},
	}
}

func TestAttemptService_StartAttempt(t *testing.T) {
	ctx := context.Background()
	client := domain.ClientInfo{IPAddress: "10.0.0.1", UserAgent: "test"}

	t.Run("assigns the stored attempt number", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 0), nil)
		f.attempts.On("CreateNextAttempt", ctx, mock.AnythingOfType("*domain.Attempt"), 0).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.Attempt).AttemptNumber = 4
			}).Return(nil)
		f.recorder.On("AttemptStarted", "quiz-1").Return()

		attempt, err := f.svc.StartAttempt(ctx, "quiz-1", "user-1", client)
		require.NoError(t, err)
		assert.Equal(t, 4, attempt.AttemptNumber)
		assert.Equal(t, domain.AttemptInProgress, attempt.Status)
		assert.Empty(t, attempt.Answers)
		assert.Equal(t, "10.0.0.1", attempt.IPAddress)
		f.attempts.AssertNotCalled(t, "CountByQuizAndUser", mock.Anything, mock.Anything, mock.Anything)
		f.recorder.AssertExpectations(t)
	})

	t.Run("missing quiz", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.quizzes.On("GetQuizByID", mock.Anything, "nope").Return(nil, nil)

		_, err := f.svc.StartAttempt(ctx, "nope", "user-1", client)
		assert.True(t, domain.IsCode(err, domain.CodeQuizNotFound))
	})

	t.Run("unpublished quiz", func(t *testing.T) {
		for _, status := range []domain.QuizStatus{domain.QuizStatusDraft, domain.QuizStatusArchived} {
			f := newAttemptFixture(false)
			f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(status, 0), nil)

			_, err := f.svc.StartAttempt(ctx, "quiz-1", "user-1", client)
			assert.True(t, domain.IsCode(err, domain.CodeQuizNotAvailable), string(status))
		}
	})

	t.Run("limit reached by the count check", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 1), nil)
		f.attempts.On("CountByQuizAndUser", ctx, "quiz-1", "user-1").Return(1, nil)
		f.recorder.On("AttemptLimitRejected", "quiz-1").Return()

		_, err := f.svc.StartAttempt(ctx, "quiz-1", "user-1", client)
		assert.True(t, domain.IsCode(err, domain.CodeAttemptLimitExceeded))
		f.attempts.AssertNotCalled(t, "CreateNextAttempt", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("limit reached by a concurrent start", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 2), nil)
		f.attempts.On("CountByQuizAndUser", ctx, "quiz-1", "user-1").Return(1, nil)
		f.attempts.On("CreateNextAttempt", ctx, mock.Anything, 2).Return(domain.ErrAttemptLimitReached)
		f.recorder.On("AttemptLimitRejected", "quiz-1").Return()

		_, err := f.svc.StartAttempt(ctx, "quiz-1", "user-1", client)
		assert.True(t, domain.IsCode(err, domain.CodeAttemptLimitExceeded))
		f.recorder.AssertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 0), nil)
		f.attempts.On("CreateNextAttempt", ctx, mock.Anything, 0).Return(errors.New("disk full"))

		_, err := f.svc.StartAttempt(ctx, "quiz-1", "user-1", client)
		assert.True(t, domain.IsCode(err, domain.CodeInternal))
	})
}

func TestAttemptService_SubmitAnswers(t *testing.T) {
	ctx := context.Background()

	t.Run("grades and completes the attempt", func(t *testing.T) {
		f := newAttemptFixture(true)
		f.attempts.On("GetAttemptByID", ctx, "attempt-1").Return(inProgressAttempt(), nil)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 0), nil)
		f.attempts.On("CompleteAttempt", ctx, mock.MatchedBy(func(a *domain.Attempt) bool {
			return a.Status == domain.AttemptCompleted && a.CompletedAt != nil && a.Score == 2
		})).Return(true, nil)
		f.recorder.On("AttemptSubmitted", "quiz-1", 67, false).Return()
		f.cache.On("Delete", ctx, []string{"guardians:quiz:stats:quiz-1"}).Return(nil)
		f.publisher.On("PublishAttemptCompleted", ctx, mock.MatchedBy(func(e domain.AttemptCompletedEvent) bool {
			return e.AttemptID == "attempt-1" && e.Score == 2 && !e.Passed && e.BadgeTitle == "" && e.CompletedAt.Equal(fixedNow)
		})).Return(nil)

		attempt, result, err := f.svc.SubmitAnswers(ctx, "attempt-1", "user-1", []domain.SubmittedAnswer{
			{QuestionID: "q1", Answer: "1", TimeSpent: 20},
			{QuestionID: "q2", Answer: "False", TimeSpent: 10},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Score)
		assert.Equal(t, 3, result.TotalPossible)
		assert.Equal(t, 67, result.Percentage)
		assert.False(t, result.Passed)
		assert.Equal(t, 1, result.CorrectAnswers)
		assert.Equal(t, 2, result.TotalQuestions)
		assert.Equal(t, 70, result.PassingScore)
		assert.Equal(t, 30, attempt.TimeSpent)
		assert.Equal(t, domain.AttemptCompleted, attempt.Status)

		f.attempts.AssertExpectations(t)
		f.cache.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
		f.recorder.AssertExpectations(t)
	})

	t.Run("passing attempt carries the badge", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.attempts.On("GetAttemptByID", ctx, "attempt-1").Return(inProgressAttempt(), nil)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 0), nil)
		f.attempts.On("CompleteAttempt", ctx, mock.Anything).Return(true, nil)
		f.recorder.On("AttemptSubmitted", "quiz-1", 100, true).Return()
		f.publisher.On("PublishAttemptCompleted", ctx, mock.MatchedBy(func(e domain.AttemptCompletedEvent) bool {
			return e.Passed && e.BadgeTitle == "Phish Spotter"
		})).Return(nil)

		_, result, err := f.svc.SubmitAnswers(ctx, "attempt-1", "user-1", []domain.SubmittedAnswer{
			{QuestionID: "q1", Answer: "1"},
			{QuestionID: "q2", Answer: "true"},
		})
		require.NoError(t, err)
		assert.True(t, result.Passed)
		f.publisher.AssertExpectations(t)
	})

	t.Run("publish failure does not fail the submission", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.attempts.On("GetAttemptByID", ctx, "attempt-1").Return(inProgressAttempt(), nil)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 0), nil)
		f.attempts.On("CompleteAttempt", ctx, mock.Anything).Return(true, nil)
		f.recorder.On("AttemptSubmitted", "quiz-1", 0, false).Return()
		f.publisher.On("PublishAttemptCompleted", ctx, mock.Anything).Return(errors.New("broker gone"))

		_, result, err := f.svc.SubmitAnswers(ctx, "attempt-1", "user-1", []domain.SubmittedAnswer{})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Score)
	})

	t.Run("missing attempt", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.attempts.On("GetAttemptByID", ctx, "nope").Return(nil, nil)

		_, _, err := f.svc.SubmitAnswers(ctx, "nope", "user-1", []domain.SubmittedAnswer{})
		assert.True(t, domain.IsCode(err, domain.CodeAttemptNotFound))
	})

	t.Run("someone else's attempt", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.attempts.On("GetAttemptByID", ctx, "attempt-1").Return(inProgressAttempt(), nil)

		_, _, err := f.svc.SubmitAnswers(ctx, "attempt-1", "user-2", []domain.SubmittedAnswer{})
		assert.True(t, domain.IsCode(err, domain.CodeForbidden))
	})

	t.Run("already completed", func(t *testing.T) {
		f := newAttemptFixture(false)
		done := inProgressAttempt()
		done.Status = domain.AttemptCompleted
		f.attempts.On("GetAttemptByID", ctx, "attempt-1").Return(done, nil)

		_, _, err := f.svc.SubmitAnswers(ctx, "attempt-1", "user-1", []domain.SubmittedAnswer{})
		assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
		f.attempts.AssertNotCalled(t, "CompleteAttempt", mock.Anything, mock.Anything)
	})

	t.Run("lost the race to a concurrent submission", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.attempts.On("GetAttemptByID", ctx, "attempt-1").Return(inProgressAttempt(), nil)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 0), nil)
		f.attempts.On("CompleteAttempt", ctx, mock.Anything).Return(false, nil)

		_, _, err := f.svc.SubmitAnswers(ctx, "attempt-1", "user-1", []domain.SubmittedAnswer{{QuestionID: "q1", Answer: "1"}})
		assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
		f.publisher.AssertNotCalled(t, "PublishAttemptCompleted", mock.Anything, mock.Anything)
	})

	t.Run("malformed answers", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.attempts.On("GetAttemptByID", ctx, "attempt-1").Return(inProgressAttempt(), nil)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 0), nil)

		_, _, err := f.svc.SubmitAnswers(ctx, "attempt-1", "user-1", nil)
		assert.True(t, domain.IsCode(err, domain.CodeInvalidInput))
		f.attempts.AssertNotCalled(t, "CompleteAttempt", mock.Anything, mock.Anything)
	})
}

func TestAttemptService_GetAttempt(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(false)
	f.attempts.On("GetAttemptByID", ctx, "attempt-1").Return(inProgressAttempt(), nil)
	f.attempts.On("GetAttemptByID", ctx, "nope").Return(nil, nil)

	_, err := f.svc.GetAttempt(ctx, "attempt-1", "user-1", false)
	assert.NoError(t, err)

	_, err = f.svc.GetAttempt(ctx, "attempt-1", "admin-9", true)
	assert.NoError(t, err)

	_, err = f.svc.GetAttempt(ctx, "attempt-1", "user-2", false)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))

	_, err = f.svc.GetAttempt(ctx, "nope", "user-1", false)
	assert.True(t, domain.IsCode(err, domain.CodeAttemptNotFound))
}

func TestAttemptService_ListAttempts(t *testing.T) {
	ctx := context.Background()
	f := newAttemptFixture(false)
	f.attempts.On("ListAttempts", ctx, domain.AttemptFilter{UserID: "user-1", QuizID: "quiz-1"}).
		Return([]*domain.Attempt{inProgressAttempt()}, nil)

	attempts, err := f.svc.ListAttempts(ctx, "user-1", "quiz-1")
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}

func TestAttemptService_GetQuizStatistics(t *testing.T) {
	ctx := context.Background()

	t.Run("computes and caches the report", func(t *testing.T) {
		f := newAttemptFixture(true)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 0), nil)
		f.cache.On("Get", ctx, "guardians:quiz:stats:quiz-1").Return("", domain.ErrCacheMiss)
		f.attempts.On("AggregateCompleted", ctx, "quiz-1").Return(&domain.AttemptAggregate{
			Count: 3, AvgPercentage: 66.5, AvgTimeSpent: 42.5, PassRatio: 2.0 / 3.0,
		}, nil)
		f.attempts.On("ListAttempts", ctx, domain.AttemptFilter{QuizID: "quiz-1", Limit: 10}).
			Return([]*domain.Attempt{inProgressAttempt()}, nil)
		f.cache.On("Set", ctx, "guardians:quiz:stats:quiz-1", mock.AnythingOfType("string"), time.Minute).Return(nil)

		report, err := f.svc.GetQuizStatistics(ctx, "quiz-1")
		require.NoError(t, err)
		assert.Equal(t, "Phishing basics", report.Title)
		assert.Equal(t, 2, report.TotalQuestions)
		assert.Equal(t, 70, report.PassingScore)
		assert.Equal(t, 3, report.Statistics.TotalAttempts)
		assert.Equal(t, 67, report.Statistics.AverageScore)
		assert.Equal(t, 42.5, report.Statistics.AverageTime)
		assert.Equal(t, 67, report.Statistics.PassRate)
		assert.Len(t, report.RecentAttempts, 1)
		f.cache.AssertExpectations(t)
	})

	t.Run("no completed attempts gives zeros", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 0), nil)
		f.attempts.On("AggregateCompleted", ctx, "quiz-1").Return(&domain.AttemptAggregate{}, nil)
		f.attempts.On("ListAttempts", ctx, mock.Anything).Return([]*domain.Attempt{}, nil)

		report, err := f.svc.GetQuizStatistics(ctx, "quiz-1")
		require.NoError(t, err)
		assert.Equal(t, domain.QuizStatistics{}, report.Statistics)
	})

	t.Run("served from cache", func(t *testing.T) {
		f := newAttemptFixture(true)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(sampleQuiz(domain.QuizStatusPublished, 0), nil)
		cached, _ := json.Marshal(domain.QuizStatisticsReport{QuizID: "quiz-1", Statistics: domain.QuizStatistics{TotalAttempts: 9}})
		f.cache.On("Get", ctx, "guardians:quiz:stats:quiz-1").Return(string(cached), nil)

		report, err := f.svc.GetQuizStatistics(ctx, "quiz-1")
		require.NoError(t, err)
		assert.Equal(t, 9, report.Statistics.TotalAttempts)
		f.attempts.AssertNotCalled(t, "AggregateCompleted", mock.Anything, mock.Anything)
	})

	t.Run("missing quiz", func(t *testing.T) {
		f := newAttemptFixture(false)
		f.quizzes.On("GetQuizByID", mock.Anything, "nope").Return(nil, nil)

		_, err := f.svc.GetQuizStatistics(ctx, "nope")
		assert.True(t, domain.IsCode(err, domain.CodeQuizNotFound))
	})
}

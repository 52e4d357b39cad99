package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"guardians/internal/cache"
	"guardians/internal/domain"
	"guardians/internal/grading"
	"guardians/internal/logger"
	"guardians/internal/util"

	"go.uber.org/zap"
)

const (
	defaultStatsCacheTTL = time.Minute
	recentAttemptsLimit  = 10
)

// AttemptRecorder receives attempt lifecycle counts. *metrics.Metrics implements it.
type AttemptRecorder interface {
	AttemptStarted(quizID string)
	AttemptSubmitted(quizID string, percentage int, passed bool)
	AttemptLimitRejected(quizID string)
}

type noopRecorder struct{}

func (noopRecorder) AttemptStarted(string) {}

func (noopRecorder) AttemptSubmitted(string, int, bool) {}

func (noopRecorder) AttemptLimitRejected(string) {}

// AttemptService defines the quiz attempt lifecycle: start, submit, read and statistics.
type AttemptService interface {
	StartAttempt(ctx context.Context, quizID, userID string, client domain.ClientInfo) (*domain.Attempt, error)
	SubmitAnswers(ctx context.Context, attemptID, requesterID string, answers []domain.SubmittedAnswer) (*domain.Attempt, *domain.GradeResult, error)
	GetAttempt(ctx context.Context, attemptID, requesterID string, isAdmin bool) (*domain.Attempt, error)
	ListAttempts(ctx context.Context, userID, quizID string) ([]*domain.Attempt, error)
	GetQuizStatistics(ctx context.Context, quizID string) (*domain.QuizStatisticsReport, error)
}

type attemptService struct {
	attempts  domain.AttemptRepository
	quizzes   *QuizCache
	cache     domain.Cache
	statsTTL  time.Duration
	publisher domain.EventPublisher
	recorder  AttemptRecorder
	now       func() time.Time
	newID     func() string
}

// NewAttemptService creates a new instance of attemptService.
// cache, publisher and recorder may be nil.
func NewAttemptService(
	attempts domain.AttemptRepository,
	quizzes *QuizCache,
	c domain.Cache,
	statsTTL time.Duration,
	publisher domain.EventPublisher,
	recorder AttemptRecorder,
) AttemptService {
	if statsTTL <= 0 {
		statsTTL = defaultStatsCacheTTL
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &attemptService{
		attempts:  attempts,
		quizzes:   quizzes,
		cache:     c,
		statsTTL:  statsTTL,
		publisher: publisher,
		recorder:  recorder,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     util.NewULID,
	}
}

func (s *attemptService) StartAttempt(ctx context.Context, quizID, userID string, client domain.ClientInfo) (*domain.Attempt, error) {
	quiz, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	if !quiz.IsAvailable() {
		return nil, domain.NewQuizNotAvailableError(quizID)
	}

	// Cheap early rejection; the insert below enforces the limit atomically.
	if quiz.MaxAttempts > 0 {
		count, err := s.attempts.CountByQuizAndUser(ctx, quizID, userID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to count attempts", err)
		}
		if count >= quiz.MaxAttempts {
			s.recorder.AttemptLimitRejected(quizID)
			return nil, domain.NewAttemptLimitExceededError(quizID, quiz.MaxAttempts)
		}
	}

	attempt := domain.NewAttempt(s.newID(), quizID, userID, client, s.now())
	if err := s.attempts.CreateNextAttempt(ctx, attempt, quiz.MaxAttempts); err != nil {
		if errors.Is(err, domain.ErrAttemptLimitReached) {
			s.recorder.AttemptLimitRejected(quizID)
			return nil, domain.NewAttemptLimitExceededError(quizID, quiz.MaxAttempts)
		}
		return nil, domain.NewInternalError("Failed to start quiz attempt", err)
	}

	s.recorder.AttemptStarted(quizID)
	logger.Get().Info("quiz attempt started",
		zap.String("attemptID", attempt.ID),
		zap.String("quizID", quizID),
		zap.String("userID", userID),
		zap.Int("attemptNumber", attempt.AttemptNumber))
	return attempt, nil
}

func (s *attemptService) SubmitAnswers(ctx context.Context, attemptID, requesterID string, answers []domain.SubmittedAnswer) (*domain.Attempt, *domain.GradeResult, error) {
	attempt, err := s.attempts.GetAttemptByID(ctx, attemptID)
	if err != nil {
		return nil, nil, domain.NewInternalError("Failed to get quiz attempt", err)
	}
	if attempt == nil {
		return nil, nil, domain.NewAttemptNotFoundError(attemptID)
	}
	if attempt.UserID != requesterID {
		return nil, nil, domain.NewForbiddenError("Access denied")
	}
	if !attempt.IsInProgress() {
		return nil, nil, domain.NewInvalidStateError("Quiz attempt is not in progress")
	}

	quiz, err := s.quizzes.Get(ctx, attempt.QuizID)
	if err != nil {
		return nil, nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, nil, domain.NewQuizNotFoundError(attempt.QuizID)
	}

	if err := grading.ValidateSubmission(quiz, answers); err != nil {
		return nil, nil, err
	}

	result := grading.Grade(quiz, answers)
	if err := attempt.Complete(result, s.now()); err != nil {
		return nil, nil, err
	}

	completed, err := s.attempts.CompleteAttempt(ctx, attempt)
	if err != nil {
		return nil, nil, domain.NewInternalError("Failed to save quiz attempt", err)
	}
	if !completed {
		// a concurrent submission won the conditional update
		return nil, nil, domain.NewInvalidStateError("Quiz attempt is not in progress")
	}

	s.recorder.AttemptSubmitted(quiz.ID, result.Percentage, result.Passed)
	s.invalidateStatistics(ctx, quiz.ID)
	s.publishCompleted(ctx, quiz, attempt)

	logger.Get().Info("quiz attempt submitted",
		zap.String("attemptID", attempt.ID),
		zap.String("quizID", quiz.ID),
		zap.Int("score", result.Score),
		zap.Int("percentage", result.Percentage),
		zap.Bool("passed", result.Passed))
	return attempt, &result, nil
}

// publishCompleted is best effort: a broker failure never fails a persisted submission.
func (s *attemptService) publishCompleted(ctx context.Context, quiz *domain.Quiz, attempt *domain.Attempt) {
	if s.publisher == nil {
		return
	}
	evt := domain.AttemptCompletedEvent{
		AttemptID:     attempt.ID,
		QuizID:        attempt.QuizID,
		UserID:        attempt.UserID,
		AttemptNumber: attempt.AttemptNumber,
		Score:         attempt.Score,
		Percentage:    attempt.Percentage,
		Passed:        attempt.Passed,
		CompletedAt:   attempt.UpdatedAt,
	}
	if attempt.Passed {
		evt.BadgeTitle = quiz.BadgeTitle
	}
	if attempt.CompletedAt != nil {
		evt.CompletedAt = *attempt.CompletedAt
	}
	if err := s.publisher.PublishAttemptCompleted(ctx, evt); err != nil {
		logger.Get().Error("failed to publish attempt completed event",
			zap.String("attemptID", attempt.ID),
			zap.Error(err))
	}
}

func (s *attemptService) GetAttempt(ctx context.Context, attemptID, requesterID string, isAdmin bool) (*domain.Attempt, error) {
	attempt, err := s.attempts.GetAttemptByID(ctx, attemptID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz attempt", err)
	}
	if attempt == nil {
		return nil, domain.NewAttemptNotFoundError(attemptID)
	}
	if !attempt.CanBeViewedBy(requesterID, isAdmin) {
		return nil, domain.NewForbiddenError("Access denied")
	}
	return attempt, nil
}

func (s *attemptService) ListAttempts(ctx context.Context, userID, quizID string) ([]*domain.Attempt, error) {
	attempts, err := s.attempts.ListAttempts(ctx, domain.AttemptFilter{UserID: userID, QuizID: quizID})
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quiz attempts", err)
	}
	return attempts, nil
}

func (s *attemptService) GetQuizStatistics(ctx context.Context, quizID string) (*domain.QuizStatisticsReport, error) {
	quiz, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}

	key := cache.QuizStatisticsKey(quizID)
	if cached := s.cachedStatistics(ctx, key); cached != nil {
		return cached, nil
	}

	agg, err := s.attempts.AggregateCompleted(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to aggregate quiz attempts", err)
	}
	recent, err := s.attempts.ListAttempts(ctx, domain.AttemptFilter{QuizID: quizID, Limit: recentAttemptsLimit})
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quiz attempts", err)
	}

	report := &domain.QuizStatisticsReport{
		QuizID:         quiz.ID,
		Title:          quiz.Title,
		TotalQuestions: quiz.QuestionCount(),
		PassingScore:   quiz.PassingScore,
		Statistics:     summarize(agg),
		RecentAttempts: recent,
	}

	if s.cache != nil {
		if data, errEncode := json.Marshal(report); errEncode == nil {
			if errSet := s.cache.Set(ctx, key, string(data), s.statsTTL); errSet != nil {
				logger.Get().Warn("statistics cache write failed", zap.String("quizID", quizID), zap.Error(errSet))
			}
		}
	}
	return report, nil
}

// summarize rounds the raw aggregate. With no completed attempts every field is 0.
func summarize(agg *domain.AttemptAggregate) domain.QuizStatistics {
	if agg == nil || agg.Count == 0 {
		return domain.QuizStatistics{}
	}
	return domain.QuizStatistics{
		TotalAttempts: agg.Count,
		AverageScore:  util.RoundHalfUp(agg.AvgPercentage),
		AverageTime:   agg.AvgTimeSpent,
		PassRate:      util.RoundHalfUp(agg.PassRatio * 100),
	}
}

func (s *attemptService) cachedStatistics(ctx context.Context, key string) *domain.QuizStatisticsReport {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("statistics cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	var report domain.QuizStatisticsReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil
	}
	return &report
}

func (s *attemptService) invalidateStatistics(ctx context.Context, quizID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.QuizStatisticsKey(quizID)); err != nil {
		logger.Get().Warn("statistics cache invalidation failed", zap.String("quizID", quizID), zap.Error(err))
	}
}

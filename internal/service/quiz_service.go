package service

import (
	"context"
	"time"

	"guardians/internal/domain"
	"guardians/internal/logger"
	"guardians/internal/util"

	"go.uber.org/zap"
)

// QuizService defines quiz authoring and catalogue operations.
// asAdmin selects the administrator view; learners only ever see published
// quizzes, without answer keys.
type QuizService interface {
	ListQuizzes(ctx context.Context, filter domain.QuizFilter, asAdmin bool) ([]*domain.Quiz, error)
	GetQuiz(ctx context.Context, id string, asAdmin bool) (*domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz *domain.Quiz, createdBy string) (*domain.Quiz, error)
	UpdateQuiz(ctx context.Context, id string, patch domain.QuizPatch) (*domain.Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error
	PublishQuiz(ctx context.Context, id string) (*domain.Quiz, error)
	UnpublishQuiz(ctx context.Context, id string) (*domain.Quiz, error)
	ArchiveQuiz(ctx context.Context, id string) (*domain.Quiz, error)
	DuplicateQuiz(ctx context.Context, id string, createdBy string) (*domain.Quiz, error)
}

type quizService struct {
	repo    domain.QuizRepository
	quizzes *QuizCache
	tx      domain.TransactionManager
	now     func() time.Time
	newID   func() string
}

// NewQuizService creates a new instance of quizService
func NewQuizService(repo domain.QuizRepository, quizzes *QuizCache, tx domain.TransactionManager) QuizService {
	return &quizService{
		repo:    repo,
		quizzes: quizzes,
		tx:      tx,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   util.NewULID,
	}
}

func (s *quizService) ListQuizzes(ctx context.Context, filter domain.QuizFilter, asAdmin bool) ([]*domain.Quiz, error) {
	if !asAdmin {
		filter.Status = domain.QuizStatusPublished
	}
	quizzes, err := s.repo.ListQuizzes(ctx, filter)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quizzes", err)
	}
	if asAdmin {
		return quizzes, nil
	}
	views := make([]*domain.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		views = append(views, q.ForLearner())
	}
	return views, nil
}

func (s *quizService) GetQuiz(ctx context.Context, id string, asAdmin bool) (*domain.Quiz, error) {
	quiz, err := s.quizzes.Get(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(id)
	}
	if asAdmin {
		return quiz, nil
	}
	// unpublished quizzes do not exist for learners
	if !quiz.IsAvailable() {
		return nil, domain.NewQuizNotFoundError(id)
	}
	return quiz.ForLearner(), nil
}

func (s *quizService) assignQuestionIDs(quiz *domain.Quiz) {
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == "" {
			quiz.Questions[i].ID = s.newID()
		}
	}
}

func (s *quizService) CreateQuiz(ctx context.Context, quiz *domain.Quiz, createdBy string) (*domain.Quiz, error) {
	now := s.now()
	quiz.ID = s.newID()
	quiz.Status = domain.QuizStatusDraft
	quiz.PublishedAt = nil
	quiz.CreatedBy = createdBy
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	quiz.ApplyDefaults()
	s.assignQuestionIDs(quiz)

	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateQuiz(ctx, quiz); err != nil {
		return nil, domain.NewInternalError("Failed to create quiz", err)
	}

	logger.Get().Info("quiz created",
		zap.String("quizID", quiz.ID),
		zap.String("createdBy", createdBy),
		zap.Int("questions", quiz.QuestionCount()))
	return quiz, nil
}

// mutate loads a quiz, applies fn and writes it back inside one transaction.
// Errors returned by fn reach the caller unchanged.
func (s *quizService) mutate(ctx context.Context, id string, fn func(quiz *domain.Quiz, now time.Time) error) (*domain.Quiz, error) {
	var updated *domain.Quiz
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		quiz, err := s.repo.GetQuizByID(txCtx, id)
		if err != nil {
			return domain.NewInternalError("Failed to get quiz", err)
		}
		if quiz == nil {
			return domain.NewQuizNotFoundError(id)
		}
		if err := fn(quiz, s.now()); err != nil {
			return err
		}
		if err := s.repo.UpdateQuiz(txCtx, quiz); err != nil {
			return domain.NewInternalError("Failed to update quiz", err)
		}
		updated = quiz
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.quizzes.Invalidate(ctx, id)
	return updated, nil
}

func (s *quizService) UpdateQuiz(ctx context.Context, id string, patch domain.QuizPatch) (*domain.Quiz, error) {
	return s.mutate(ctx, id, func(quiz *domain.Quiz, now time.Time) error {
		patch.Apply(quiz)
		quiz.ApplyDefaults()
		s.assignQuestionIDs(quiz)
		if err := quiz.Validate(); err != nil {
			return err
		}
		quiz.UpdatedAt = now
		return nil
	})
}

func (s *quizService) DeleteQuiz(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteQuiz(ctx, id)
	if err != nil {
		return domain.NewInternalError("Failed to delete quiz", err)
	}
	if !deleted {
		return domain.NewQuizNotFoundError(id)
	}
	s.quizzes.Invalidate(ctx, id)
	logger.Get().Info("quiz deleted", zap.String("quizID", id))
	return nil
}

func (s *quizService) PublishQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	return s.mutate(ctx, id, func(quiz *domain.Quiz, now time.Time) error {
		return quiz.Publish(now)
	})
}

func (s *quizService) UnpublishQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	return s.mutate(ctx, id, func(quiz *domain.Quiz, now time.Time) error {
		quiz.Unpublish(now)
		return nil
	})
}

func (s *quizService) ArchiveQuiz(ctx context.Context, id string) (*domain.Quiz, error) {
	return s.mutate(ctx, id, func(quiz *domain.Quiz, now time.Time) error {
		quiz.Archive(now)
		return nil
	})
}

func (s *quizService) DuplicateQuiz(ctx context.Context, id string, createdBy string) (*domain.Quiz, error) {
	original, err := s.repo.GetQuizByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if original == nil {
		return nil, domain.NewQuizNotFoundError(id)
	}

	dup := original.Duplicate(s.newID, createdBy, s.now())
	if err := s.repo.CreateQuiz(ctx, dup); err != nil {
		return nil, domain.NewInternalError("Failed to duplicate quiz", err)
	}
	logger.Get().Info("quiz duplicated", zap.String("sourceQuizID", id), zap.String("quizID", dup.ID))
	return dup, nil
}

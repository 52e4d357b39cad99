package domain

import "context"

// QuizRepository defines the interface for quiz persistence
type QuizRepository interface {
	// CreateQuiz persists a new quiz
	CreateQuiz(ctx context.Context, quiz *Quiz) error

	// GetQuizByID retrieves a quiz by its ID. It returns (nil, nil) when no quiz matches.
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)

	// UpdateQuiz overwrites an existing quiz
	UpdateQuiz(ctx context.Context, quiz *Quiz) error

	// DeleteQuiz removes a quiz and reports whether it existed
	DeleteQuiz(ctx context.Context, id string) (bool, error)

	// ListQuizzes returns the quizzes matching the filter, newest first
	ListQuizzes(ctx context.Context, filter QuizFilter) ([]*Quiz, error)
}

// AttemptRepository defines the interface for attempt persistence
type AttemptRepository interface {
	// CreateNextAttempt inserts the attempt with the next free attempt number for its
	// (quiz, user) pair and writes that number back into attempt.AttemptNumber.
	// When maxAttempts > 0 and the user already used them all, it returns
	// ErrAttemptLimitReached and inserts nothing.
	CreateNextAttempt(ctx context.Context, attempt *Attempt, maxAttempts int) error

	// GetAttemptByID returns (nil, nil) when no attempt matches.
	GetAttemptByID(ctx context.Context, id string) (*Attempt, error)

	CountByQuizAndUser(ctx context.Context, quizID, userID string) (int, error)

	// CompleteAttempt persists the graded attempt only if it is still in progress.
	// It returns false when another submission completed it first.
	CompleteAttempt(ctx context.Context, attempt *Attempt) (bool, error)

	// ListAttempts returns matching attempts, newest first
	ListAttempts(ctx context.Context, filter AttemptFilter) ([]*Attempt, error)

	// AggregateCompleted aggregates the completed attempts of a quiz
	AggregateCompleted(ctx context.Context, quizID string) (*AttemptAggregate, error)
}

// TransactionManager runs fn inside one storage transaction. Repositories called
// with the ctx passed to fn take part in it.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher announces domain events to other services.
type EventPublisher interface {
	PublishAttemptCompleted(ctx context.Context, event AttemptCompletedEvent) error
	Close() error
}

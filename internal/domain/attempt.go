package domain

import "time"

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in-progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// SubmittedAnswer is one raw answer sent by the learner.
type SubmittedAnswer struct {
	QuestionID string
	Answer     string
	TimeSpent  int // seconds
}

// GradedAnswer is a submitted answer after grading against its question.
type GradedAnswer struct {
	QuestionID    string
	Answer        string
	IsCorrect     bool
	PendingReview bool
	PointsAwarded int
	TimeSpent     int
}

// GradeResult is the outcome of grading one submission.
type GradeResult struct {
	Answers        []GradedAnswer
	Score          int
	TotalPossible  int
	Percentage     int
	Passed         bool
	CorrectAnswers int
	PendingReview  int
	TotalQuestions int
	PassingScore   int
	TimeSpent      int
}

// Attempt is one learner's run through a quiz.
type Attempt struct {
	ID            string
	QuizID        string
	UserID        string
	AttemptNumber int
	Status        AttemptStatus
	Answers       []GradedAnswer
	Score         int
	Percentage    int
	Passed        bool
	TimeSpent     int
	IPAddress     string
	UserAgent     string
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ClientInfo describes where an attempt was started from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// NewAttempt builds an empty in-progress attempt. The store assigns the attempt number.
func NewAttempt(id, quizID, userID string, client ClientInfo, now time.Time) *Attempt {
	return &Attempt{
		ID:        id,
		QuizID:    quizID,
		UserID:    userID,
		Status:    AttemptInProgress,
		Answers:   []GradedAnswer{},
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (a *Attempt) IsInProgress() bool {
	return a.Status == AttemptInProgress
}

// CanBeViewedBy reports whether the requester may read the attempt.
func (a *Attempt) CanBeViewedBy(requesterID string, isAdmin bool) bool {
	return isAdmin || (requesterID != "" && a.UserID == requesterID)
}

// Complete records the grading outcome. It is the only mutation an attempt goes through.
func (a *Attempt) Complete(result GradeResult, now time.Time) error {
	if !a.IsInProgress() {
		return NewInvalidStateError("Quiz attempt is not in progress")
	}
	a.Answers = result.Answers
	if a.Answers == nil {
		a.Answers = []GradedAnswer{}
	}
	a.Score = result.Score
	a.Percentage = result.Percentage
	a.Passed = result.Passed
	a.TimeSpent = result.TimeSpent
	a.Status = AttemptCompleted
	a.CompletedAt = &now
	a.UpdatedAt = now
	return nil
}

// AttemptFilter selects attempts for listings.
type AttemptFilter struct {
	UserID string
	QuizID string
	Limit  int // 0 means no limit
}

// AttemptAggregate is the raw aggregate over the completed attempts of a quiz.
type AttemptAggregate struct {
	Count         int
	AvgPercentage float64
	AvgTimeSpent  float64
	PassRatio     float64
}

// QuizStatistics summarises completed attempts of a quiz.
type QuizStatistics struct {
	TotalAttempts int
	AverageScore  int
	AverageTime   float64
	PassRate      int
}

// QuizStatisticsReport is the statistics view handed to administrators.
type QuizStatisticsReport struct {
	QuizID         string
	Title          string
	TotalQuestions int
	PassingScore   int
	Statistics     QuizStatistics
	RecentAttempts []*Attempt
}

// AttemptCompletedEvent is announced after a submission has been persisted.
type AttemptCompletedEvent struct {
	AttemptID     string    `json:"attemptId"`
	QuizID        string    `json:"quizId"`
	UserID        string    `json:"userId"`
	AttemptNumber int       `json:"attemptNumber"`
	Score         int       `json:"score"`
	Percentage    int       `json:"percentage"`
	Passed        bool      `json:"passed"`
	BadgeTitle    string    `json:"badgeTitle,omitempty"`
	CompletedAt   time.Time `json:"completedAt"`
}

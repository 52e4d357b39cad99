package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"guardians/internal/domain"
)

// AnswerValue is a submitted answer in its string form. Clients may send a JSON
// string, number or boolean; anything else is rejected when the body is decoded.
type AnswerValue string

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("answer is empty")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AnswerValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		// true-false answers compare case-insensitively
		*a = AnswerValue(strconv.FormatBool(b))
	case 'n':
		return fmt.Errorf("answer must not be null")
	case '{', '[':
		return fmt.Errorf("answer must be a string, number or boolean")
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*a = AnswerValue(n.String())
	}
	return nil
}

type SubmittedAnswerRequest struct {
	QuestionID string      `json:"questionId"`
	Answer     AnswerValue `json:"answer"`
	TimeSpent  int         `json:"timeSpent" validate:"min=0"`
}

// SubmitAnswersRequest is the body of POST /api/quiz-attempts/:attemptId/submit
type SubmitAnswersRequest struct {
	Answers []SubmittedAnswerRequest `json:"answers" validate:"required,dive"`
}

func (r SubmitAnswersRequest) ToDomain() []domain.SubmittedAnswer {
	if r.Answers == nil {
		return nil
	}
	answers := make([]domain.SubmittedAnswer, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, domain.SubmittedAnswer{
			QuestionID: a.QuestionID,
			Answer:     string(a.Answer),
			TimeSpent:  a.TimeSpent,
		})
	}
	return answers
}

type GradedAnswerResponse struct {
	QuestionID    string `json:"questionId"`
	Answer        string `json:"answer"`
	IsCorrect     bool   `json:"isCorrect"`
	PendingReview bool   `json:"pendingReview,omitempty"`
	PointsAwarded int    `json:"pointsAwarded"`
	TimeSpent     int    `json:"timeSpent"`
}

// AttemptResponse represents a quiz attempt in the API response
type AttemptResponse struct {
	ID            string                 `json:"id"`
	QuizID        string                 `json:"quizId"`
	UserID        string                 `json:"userId"`
	AttemptNumber int                    `json:"attemptNumber"`
	Status        string                 `json:"status"`
	Answers       []GradedAnswerResponse `json:"answers"`
	Score         int                    `json:"score"`
	Percentage    int                    `json:"percentage"`
	Passed        bool                   `json:"passed"`
	TimeSpent     int                    `json:"timeSpent"`
	IPAddress     string                 `json:"ipAddress,omitempty"`
	UserAgent     string                 `json:"userAgent,omitempty"`
	CompletedAt   *time.Time             `json:"completedAt"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// GradeResultResponse is the results block of a submission.
type GradeResultResponse struct {
	Score          int  `json:"score"`
	TotalPossible  int  `json:"totalPossible"`
	Percentage     int  `json:"percentage"`
	Passed         bool `json:"passed"`
	CorrectAnswers int  `json:"correctAnswers"`
	PendingReview  int  `json:"pendingReview"`
	TotalQuestions int  `json:"totalQuestions"`
	PassingScore   int  `json:"passingScore"`
	TimeSpent      int  `json:"timeSpent"`
}

type SubmitAnswersResponse struct {
	Attempt AttemptResponse     `json:"attempt"`
	Results GradeResultResponse `json:"results"`
}

type AttemptListResponse struct {
	Attempts []AttemptResponse `json:"attempts"`
	Total    int               `json:"total"`
}

type QuizSummaryResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	TotalQuestions int    `json:"totalQuestions"`
	PassingScore   int    `json:"passingScore"`
}

type StatisticsResponse struct {
	TotalAttempts int     `json:"totalAttempts"`
	AverageScore  int     `json:"averageScore"`
	AverageTime   float64 `json:"averageTime"`
	PassRate      int     `json:"passRate"`
}

// QuizStatisticsResponse is returned by both statistics routes.
type QuizStatisticsResponse struct {
	Quiz           QuizSummaryResponse `json:"quiz"`
	Statistics     StatisticsResponse  `json:"statistics"`
	RecentAttempts []AttemptResponse   `json:"recentAttempts"`
}

func NewAttemptResponse(a *domain.Attempt) AttemptResponse {
	answers := make([]GradedAnswerResponse, 0, len(a.Answers))
	for _, ans := range a.Answers {
		answers = append(answers, GradedAnswerResponse{
			QuestionID:    ans.QuestionID,
			Answer:        ans.Answer,
			IsCorrect:     ans.IsCorrect,
			PendingReview: ans.PendingReview,
			PointsAwarded: ans.PointsAwarded,
			TimeSpent:     ans.TimeSpent,
		})
	}
	return AttemptResponse{
		ID:            a.ID,
		QuizID:        a.QuizID,
		UserID:        a.UserID,
		AttemptNumber: a.AttemptNumber,
		Status:        string(a.Status),
		Answers:       answers,
		Score:         a.Score,
		Percentage:    a.Percentage,
		Passed:        a.Passed,
		TimeSpent:     a.TimeSpent,
		IPAddress:     a.IPAddress,
		UserAgent:     a.UserAgent,
		CompletedAt:   a.CompletedAt,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func NewAttemptListResponse(attempts []*domain.Attempt) AttemptListResponse {
	out := make([]AttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, NewAttemptResponse(a))
	}
	return AttemptListResponse{Attempts: out, Total: len(out)}
}

func NewSubmitAnswersResponse(a *domain.Attempt, r *domain.GradeResult) SubmitAnswersResponse {
	return SubmitAnswersResponse{
		Attempt: NewAttemptResponse(a),
		Results: GradeResultResponse{
			Score:          r.Score,
			TotalPossible:  r.TotalPossible,
			Percentage:     r.Percentage,
			Passed:         r.Passed,
			CorrectAnswers: r.CorrectAnswers,
			PendingReview:  r.PendingReview,
			TotalQuestions: r.TotalQuestions,
			PassingScore:   r.PassingScore,
			TimeSpent:      r.TimeSpent,
		},
	}
}

func NewQuizStatisticsResponse(r *domain.QuizStatisticsReport) QuizStatisticsResponse {
	recent := make([]AttemptResponse, 0, len(r.RecentAttempts))
	for _, a := range r.RecentAttempts {
		recent = append(recent, NewAttemptResponse(a))
	}
	return QuizStatisticsResponse{
		Quiz: QuizSummaryResponse{
			ID:             r.QuizID,
			Title:          r.Title,
			TotalQuestions: r.TotalQuestions,
			PassingScore:   r.PassingScore,
		},
		Statistics: StatisticsResponse{
			TotalAttempts: r.Statistics.TotalAttempts,
			AverageScore:  r.Statistics.AverageScore,
			AverageTime:   r.Statistics.AverageTime,
			PassRate:      r.Statistics.PassRate,
		},
		RecentAttempts: recent,
	}
}

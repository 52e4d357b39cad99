package dto

import (
	"time"

	"guardians/internal/domain"
)

// QuestionRequest is one question of an authoring request.
type QuestionRequest struct {
	ID            string   `json:"id,omitempty" validate:"omitempty,max=64"`
	Prompt        string   `json:"prompt" validate:"required,max=2000"`
	Kind          string   `json:"kind" validate:"required,oneof=multiple-choice true-false text"`
	Options       []string `json:"options,omitempty" validate:"omitempty,max=20"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Points        int      `json:"points" validate:"min=0"`
}

// CreateQuizRequest is the body of POST /api/quizzes
type CreateQuizRequest struct {
	Title            string            `json:"title" validate:"required,max=200"`
	Description      string            `json:"description" validate:"max=2000"`
	Category         string            `json:"category" validate:"max=100"`
	Difficulty       string            `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Questions        []QuestionRequest `json:"questions" validate:"dive"`
	TimeLimit        int               `json:"timeLimit" validate:"min=0"`
	PassingScore     *int              `json:"passingScore" validate:"omitempty,min=0,max=100"`
	MaxAttempts      int               `json:"maxAttempts" validate:"min=0"`
	Tags             []string          `json:"tags"`
	Instructions     string            `json:"instructions"`
	BadgeTitle       string            `json:"badgeTitle" validate:"max=100"`
	BadgeDescription string            `json:"badgeDescription"`
}

// UpdateQuizRequest is the body of PUT /api/quizzes/:id. Absent fields keep their value.
type UpdateQuizRequest struct {
	Title            *string           `json:"title" validate:"omitempty,min=1,max=200"`
	Description      *string           `json:"description" validate:"omitempty,max=2000"`
	Category         *string           `json:"category" validate:"omitempty,max=100"`
	Difficulty       *string           `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Questions        []QuestionRequest `json:"questions" validate:"omitempty,dive"`
	TimeLimit        *int              `json:"timeLimit" validate:"omitempty,min=0"`
	PassingScore     *int              `json:"passingScore" validate:"omitempty,min=0,max=100"`
	MaxAttempts      *int              `json:"maxAttempts" validate:"omitempty,min=0"`
	Tags             []string          `json:"tags"`
	Instructions     *string           `json:"instructions"`
	BadgeTitle       *string           `json:"badgeTitle" validate:"omitempty,max=100"`
	BadgeDescription *string           `json:"badgeDescription"`
}

// QuizListQuery holds the filters of GET /api/quizzes
type QuizListQuery struct {
	Status     string `query:"status" json:"status" validate:"omitempty,oneof=draft published archived"`
	Category   string `query:"category" json:"category" validate:"omitempty,max=100"`
	Difficulty string `query:"difficulty" json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Q          string `query:"q" json:"q" validate:"omitempty,max=200"`
}

func toDomainQuestions(reqs []QuestionRequest) []domain.Question {
	if reqs == nil {
		return nil
	}
	questions := make([]domain.Question, 0, len(reqs))
	for _, r := range reqs {
		questions = append(questions, domain.Question{
			ID:            r.ID,
			Prompt:        r.Prompt,
			Kind:          domain.QuestionKind(r.Kind),
			Options:       r.Options,
			CorrectAnswer: r.CorrectAnswer,
			Explanation:   r.Explanation,
			Points:        r.Points,
		})
	}
	return questions
}

// ToDomain builds the quiz to create. An absent passing score takes the default.
func (r CreateQuizRequest) ToDomain() *domain.Quiz {
	passingScore := domain.DefaultPassingScore
	if r.PassingScore != nil {
		passingScore = *r.PassingScore
	}
	questions := toDomainQuestions(r.Questions)
	if questions == nil {
		questions = []domain.Question{}
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Quiz{
		Title:            r.Title,
		Description:      r.Description,
		Category:         r.Category,
		Difficulty:       domain.Difficulty(r.Difficulty),
		Questions:        questions,
		TimeLimit:        r.TimeLimit,
		PassingScore:     passingScore,
		MaxAttempts:      r.MaxAttempts,
		Tags:             tags,
		Instructions:     r.Instructions,
		BadgeTitle:       r.BadgeTitle,
		BadgeDescription: r.BadgeDescription,
	}
}

func (r UpdateQuizRequest) ToPatch() domain.QuizPatch {
	patch := domain.QuizPatch{
		Title:            r.Title,
		Description:      r.Description,
		Category:         r.Category,
		Questions:        toDomainQuestions(r.Questions),
		TimeLimit:        r.TimeLimit,
		PassingScore:     r.PassingScore,
		MaxAttempts:      r.MaxAttempts,
		Tags:             r.Tags,
		Instructions:     r.Instructions,
		BadgeTitle:       r.BadgeTitle,
		BadgeDescription: r.BadgeDescription,
	}
	if r.Difficulty != nil {
		d := domain.Difficulty(*r.Difficulty)
		patch.Difficulty = &d
	}
	return patch
}

func (q QuizListQuery) ToFilter() domain.QuizFilter {
	return domain.QuizFilter{
		Status:     domain.QuizStatus(q.Status),
		Category:   q.Category,
		Difficulty: domain.Difficulty(q.Difficulty),
		Query:      q.Q,
	}
}

// QuestionResponse represents a question in the API response.
// CorrectAnswer and Explanation are empty in learner views.
type QuestionResponse struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Kind          string   `json:"kind"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Points        int      `json:"points"`
}

// QuizResponse represents a quiz in the API response
type QuizResponse struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Category         string             `json:"category"`
	Difficulty       string             `json:"difficulty"`
	Questions        []QuestionResponse `json:"questions"`
	TimeLimit        int                `json:"timeLimit"`
	PassingScore     int                `json:"passingScore"`
	MaxAttempts      int                `json:"maxAttempts"`
	Status           string             `json:"status"`
	Tags             []string           `json:"tags"`
	Instructions     string             `json:"instructions,omitempty"`
	BadgeTitle       string             `json:"badgeTitle,omitempty"`
	BadgeDescription string             `json:"badgeDescription,omitempty"`
	CreatedBy        string             `json:"createdBy,omitempty"`
	PublishedAt      *time.Time         `json:"publishedAt"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
	TotalPoints      int                `json:"totalPoints"`
	QuestionCount    int                `json:"questionCount"`
}

type QuizListResponse struct {
	Quizzes []QuizResponse `json:"quizzes"`
	Total   int            `json:"total"`
}

func NewQuizResponse(q *domain.Quiz) QuizResponse {
	questions := make([]QuestionResponse, 0, len(q.Questions))
	for _, question := range q.Questions {
		options := question.Options
		if options == nil {
			options = []string{}
		}
		questions = append(questions, QuestionResponse{
			ID:            question.ID,
			Prompt:        question.Prompt,
			Kind:          string(question.Kind),
			Options:       options,
			CorrectAnswer: question.CorrectAnswer,
			Explanation:   question.Explanation,
			Points:        question.PointsValue(),
		})
	}
	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}
	return QuizResponse{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		Category:         q.Category,
		Difficulty:       string(q.Difficulty),
		Questions:        questions,
		TimeLimit:        q.TimeLimit,
		PassingScore:     q.PassingScore,
		MaxAttempts:      q.MaxAttempts,
		Status:           string(q.Status),
		Tags:             tags,
		Instructions:     q.Instructions,
		BadgeTitle:       q.BadgeTitle,
		BadgeDescription: q.BadgeDescription,
		CreatedBy:        q.CreatedBy,
		PublishedAt:      q.PublishedAt,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
		TotalPoints:      q.TotalPoints(),
		QuestionCount:    q.QuestionCount(),
	}
}

func NewQuizListResponse(quizzes []*domain.Quiz) QuizListResponse {
	out := make([]QuizResponse, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, NewQuizResponse(q))
	}
	return QuizListResponse{Quizzes: out, Total: len(out)}
}

package mongostore

import (
	"time"

	"guardians/internal/domain"
	"guardians/internal/repository/models"
)

type quizDocument struct {
	ID               string                  `bson:"_id"`
	Title            string                  `bson:"title"`
	Description      string                  `bson:"description,omitempty"`
	Category         string                  `bson:"category"`
	Difficulty       string                  `bson:"difficulty"`
	Questions        []models.QuestionRecord `bson:"questions"`
	TimeLimit        int                     `bson:"time_limit"`
	PassingScore     int                     `bson:"passing_score"`
	MaxAttempts      int                     `bson:"max_attempts"`
	Status           string                  `bson:"status"`
	Tags             []string                `bson:"tags"`
	Instructions     string                  `bson:"instructions,omitempty"`
	BadgeTitle       string                  `bson:"badge_title,omitempty"`
	BadgeDescription string                  `bson:"badge_description,omitempty"`
	CreatedBy        string                  `bson:"created_by,omitempty"`
	PublishedAt      *time.Time              `bson:"published_at,omitempty"`
	CreatedAt        time.Time               `bson:"created_at"`
	UpdatedAt        time.Time               `bson:"updated_at"`
}

type attemptDocument struct {
	ID            string                `bson:"_id"`
	QuizID        string                `bson:"quiz_id"`
	UserID        string                `bson:"user_id"`
	AttemptNumber int                   `bson:"attempt_number"`
	Status        string                `bson:"status"`
	Answers       []models.AnswerRecord `bson:"answers"`
	Score         int                   `bson:"score"`
	Percentage    int                   `bson:"percentage"`
	Passed        bool                  `bson:"passed"`
	TimeSpent     int                   `bson:"time_spent"`
	IPAddress     string                `bson:"ip_address,omitempty"`
	UserAgent     string                `bson:"user_agent,omitempty"`
	CompletedAt   *time.Time            `bson:"completed_at,omitempty"`
	CreatedAt     time.Time             `bson:"created_at"`
	UpdatedAt     time.Time             `bson:"updated_at"`
}

func toQuizDocument(q *domain.Quiz) *quizDocument {
	questions := make([]models.QuestionRecord, 0, len(q.Questions))
	for _, qq := range q.Questions {
		questions = append(questions, models.QuestionRecord{
			ID:            qq.ID,
			Prompt:        qq.Prompt,
			Kind:          string(qq.Kind),
			Options:       qq.Options,
			CorrectAnswer: qq.CorrectAnswer,
			Explanation:   qq.Explanation,
			Points:        qq.Points,
		})
	}
	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}
	return &quizDocument{
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
	}
}

func (d *quizDocument) toDomain() *domain.Quiz {
	questions := make([]domain.Question, 0, len(d.Questions))
	for _, r := range d.Questions {
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
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Quiz{
		ID:               d.ID,
		Title:            d.Title,
		Description:      d.Description,
		Category:         d.Category,
		Difficulty:       domain.Difficulty(d.Difficulty),
		Questions:        questions,
		TimeLimit:        d.TimeLimit,
		PassingScore:     d.PassingScore,
		MaxAttempts:      d.MaxAttempts,
		Status:           domain.QuizStatus(d.Status),
		Tags:             tags,
		Instructions:     d.Instructions,
		BadgeTitle:       d.BadgeTitle,
		BadgeDescription: d.BadgeDescription,
		CreatedBy:        d.CreatedBy,
		PublishedAt:      d.PublishedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func toAnswerRecords(answers []domain.GradedAnswer) []models.AnswerRecord {
	records := make([]models.AnswerRecord, 0, len(answers))
	for _, a := range answers {
		records = append(records, models.AnswerRecord{
			QuestionID:    a.QuestionID,
			Answer:        a.Answer,
			IsCorrect:     a.IsCorrect,
			PendingReview: a.PendingReview,
			PointsAwarded: a.PointsAwarded,
			TimeSpent:     a.TimeSpent,
		})
	}
	return records
}

func toAttemptDocument(a *domain.Attempt) *attemptDocument {
	return &attemptDocument{
		ID:            a.ID,
		QuizID:        a.QuizID,
		UserID:        a.UserID,
		AttemptNumber: a.AttemptNumber,
		Status:        string(a.Status),
		Answers:       toAnswerRecords(a.Answers),
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

func (d *attemptDocument) toDomain() *domain.Attempt {
	answers := make([]domain.GradedAnswer, 0, len(d.Answers))
	for _, r := range d.Answers {
		answers = append(answers, domain.GradedAnswer{
			QuestionID:    r.QuestionID,
			Answer:        r.Answer,
			IsCorrect:     r.IsCorrect,
			PendingReview: r.PendingReview,
			PointsAwarded: r.PointsAwarded,
			TimeSpent:     r.TimeSpent,
		})
	}
	return &domain.Attempt{
		ID:            d.ID,
		QuizID:        d.QuizID,
		UserID:        d.UserID,
		AttemptNumber: d.AttemptNumber,
		Status:        domain.AttemptStatus(d.Status),
		Answers:       answers,
		Score:         d.Score,
		Percentage:    d.Percentage,
		Passed:        d.Passed,
		TimeSpent:     d.TimeSpent,
		IPAddress:     d.IPAddress,
		UserAgent:     d.UserAgent,
		CompletedAt:   d.CompletedAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

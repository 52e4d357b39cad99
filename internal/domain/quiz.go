package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuestionKind is the closed set of answer formats a question can take.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple-choice"
	KindTrueFalse      QuestionKind = "true-false"
	KindText           QuestionKind = "text"
)

func (k QuestionKind) Valid() bool {
	switch k {
	case KindMultipleChoice, KindTrueFalse, KindText:
		return true
	}
	return false
}

// QuizStatus is the publication state of a quiz.
type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "draft"
	QuizStatusPublished QuizStatus = "published"
	QuizStatusArchived  QuizStatus = "archived"
)

func (s QuizStatus) Valid() bool {
	switch s {
	case QuizStatusDraft, QuizStatusPublished, QuizStatusArchived:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Quiz defaults applied on creation.
const (
	DefaultCategory     = "general"
	DefaultDifficulty   = DifficultyMedium
	DefaultPassingScore = 70
	DefaultPoints       = 1
)

// Question is one item of a quiz's question bank.
type Question struct {
	ID            string
	Prompt        string
	Kind          QuestionKind
	Options       []string
	CorrectAnswer string
	Explanation   string
	Points        int
}

// PointsValue returns the points the question is worth, falling back to the default.
func (q Question) PointsValue() int {
	if q.Points <= 0 {
		return DefaultPoints
	}
	return q.Points
}

// NeedsManualReview reports whether the question cannot be auto-graded.
// A text question without a reference answer waits for a reviewer.
func (q Question) NeedsManualReview() bool {
	return q.Kind == KindText && strings.TrimSpace(q.CorrectAnswer) == ""
}

// Quiz is an authored set of questions with passing rules and a publication state.
type Quiz struct {
	ID               string
	Title            string
	Description      string
	Category         string
	Difficulty       Difficulty
	Questions        []Question
	TimeLimit        int // minutes, 0 means no limit
	PassingScore     int
	MaxAttempts      int // 0 means unlimited
	Status           QuizStatus
	Tags             []string
	Instructions     string
	BadgeTitle       string
	BadgeDescription string
	CreatedBy        string
	PublishedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ApplyDefaults fills the optional authoring fields left empty by the author.
func (q *Quiz) ApplyDefaults() {
	if strings.TrimSpace(q.Category) == "" {
		q.Category = DefaultCategory
	}
	if q.Difficulty == "" {
		q.Difficulty = DefaultDifficulty
	}
	if q.Status == "" {
		q.Status = QuizStatusDraft
	}
	for i := range q.Questions {
		if q.Questions[i].Points <= 0 {
			q.Questions[i].Points = DefaultPoints
		}
		if q.Questions[i].Kind == KindText {
			q.Questions[i].Options = nil
		}
	}
}

// Validate checks the authoring rules of the quiz and every question in it.
func (q *Quiz) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(q.Title) == "" {
		errs = append(errs, NewMissingFieldError("title"))
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		errs = append(errs, NewOutOfRangeError("passingScore", q.PassingScore, 0, 100))
	}
	if q.MaxAttempts < 0 {
		errs = append(errs, NewFieldValidationError("maxAttempts", "maxAttempts cannot be negative"))
	}
	if q.TimeLimit < 0 {
		errs = append(errs, NewFieldValidationError("timeLimit", "timeLimit cannot be negative"))
	}
	if q.Difficulty != "" && !q.Difficulty.Valid() {
		errs = append(errs, NewInvalidFormatError("difficulty", string(q.Difficulty)))
	}
	if q.Status != "" && !q.Status.Valid() {
		errs = append(errs, NewInvalidFormatError("status", string(q.Status)))
	}

	if q.Status == QuizStatusPublished && len(q.Questions) == 0 {
		errs = append(errs, NewFieldValidationError("questions", "A published quiz must keep at least one question"))
	}

	seen := make(map[string]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if question.ID != "" {
			if _, dup := seen[question.ID]; dup {
				errs = append(errs, NewFieldValidationError(field+".id", "question ids must be unique"))
			}
			seen[question.ID] = struct{}{}
		}
		errs = append(errs, validateQuestion(field, question)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateQuestion(field string, question Question) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(question.Prompt) == "" {
		errs = append(errs, NewMissingFieldError(field+".prompt"))
	}
	if question.Points < 0 {
		errs = append(errs, NewFieldValidationError(field+".points", "points cannot be negative"))
	}

	switch question.Kind {
	case KindMultipleChoice:
		if len(question.Options) < 2 {
			errs = append(errs, NewFieldValidationError(field+".options", "multiple-choice questions need at least 2 options"))
		}
		idx, err := strconv.Atoi(strings.TrimSpace(question.CorrectAnswer))
		if err != nil || idx < 0 || idx >= len(question.Options) {
			errs = append(errs, NewInvalidFormatError(field+".correctAnswer", question.CorrectAnswer))
		}
	case KindTrueFalse:
		answer := strings.ToLower(question.CorrectAnswer)
		if answer != "true" && answer != "false" {
			errs = append(errs, NewInvalidFormatError(field+".correctAnswer", question.CorrectAnswer))
		}
	case KindText:
		// an empty reference answer marks the question for manual review
	default:
		errs = append(errs, NewInvalidFormatError(field+".kind", string(question.Kind)))
	}
	return errs
}

// TotalPoints sums the points of every question in the bank.
func (q *Quiz) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.PointsValue()
	}
	return total
}

func (q *Quiz) QuestionCount() int {
	return len(q.Questions)
}

// IsAvailable reports whether learners may start attempts.
func (q *Quiz) IsAvailable() bool {
	return q.Status == QuizStatusPublished
}

// Publish moves the quiz to published. A quiz without questions stays untouched.
func (q *Quiz) Publish(now time.Time) error {
	if len(q.Questions) == 0 {
		return ValidationErrors{NewFieldValidationError("questions", "Cannot publish quiz without questions")}
	}
	q.Status = QuizStatusPublished
	q.PublishedAt = &now
	q.UpdatedAt = now
	return nil
}

func (q *Quiz) Unpublish(now time.Time) {
	q.Status = QuizStatusDraft
	q.PublishedAt = nil
	q.UpdatedAt = now
}

func (q *Quiz) Archive(now time.Time) {
	q.Status = QuizStatusArchived
	q.UpdatedAt = now
}

// Duplicate returns a draft copy of the quiz with fresh identifiers.
func (q *Quiz) Duplicate(newID func() string, createdBy string, now time.Time) *Quiz {
	dup := *q
	dup.ID = newID()
	dup.Title = q.Title + " (Copy)"
	dup.Status = QuizStatusDraft
	dup.PublishedAt = nil
	dup.CreatedAt = now
	dup.UpdatedAt = now
	if createdBy != "" {
		dup.CreatedBy = createdBy
	}
	dup.Tags = append([]string(nil), q.Tags...)
	dup.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.ID = newID()
		question.Options = append([]string(nil), question.Options...)
		dup.Questions[i] = question
	}
	return &dup
}

// ForLearner returns a copy without answer keys and explanations.
func (q *Quiz) ForLearner() *Quiz {
	view := *q
	view.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectAnswer = ""
		question.Explanation = ""
		view.Questions[i] = question
	}
	return &view
}

// QuizPatch carries a partial update of the authoring fields. Nil fields are left as is.
type QuizPatch struct {
	Title            *string
	Description      *string
	Category         *string
	Difficulty       *Difficulty
	Questions        []Question
	TimeLimit        *int
	PassingScore     *int
	MaxAttempts      *int
	Tags             []string
	Instructions     *string
	BadgeTitle       *string
	BadgeDescription *string
}

// Apply writes the non-nil fields of the patch onto the quiz.
func (p QuizPatch) Apply(q *Quiz) {
	if p.Title != nil {
		q.Title = *p.Title
	}
	if p.Description != nil {
		q.Description = *p.Description
	}
	if p.Category != nil {
		q.Category = *p.Category
	}
	if p.Difficulty != nil {
		q.Difficulty = *p.Difficulty
	}
	if p.Questions != nil {
		q.Questions = p.Questions
	}
	if p.TimeLimit != nil {
		q.TimeLimit = *p.TimeLimit
	}
	if p.PassingScore != nil {
		q.PassingScore = *p.PassingScore
	}
	if p.MaxAttempts != nil {
		q.MaxAttempts = *p.MaxAttempts
	}
	if p.Tags != nil {
		q.Tags = p.Tags
	}
	if p.Instructions != nil {
		q.Instructions = *p.Instructions
	}
	if p.BadgeTitle != nil {
		q.BadgeTitle = *p.BadgeTitle
	}
	if p.BadgeDescription != nil {
		q.BadgeDescription = *p.BadgeDescription
	}
}

// QuizFilter narrows quiz listings. Empty fields do not filter.
type QuizFilter struct {
	Status     QuizStatus
	Category   string
	Difficulty Difficulty
	Query      string
}

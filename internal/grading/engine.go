// Package grading scores quiz submissions against a question bank.
// Grading is pure: it reads the quiz and the submitted answers and never touches storage.
package grading

import (
	"fmt"
	"strconv"
	"strings"

	"guardians/internal/domain"
	"guardians/internal/util"
)

// Strategy decides whether one raw answer matches a question's reference answer.
type Strategy interface {
	Matches(q domain.Question, answer string) bool
}

// StrategyFor returns the comparison rule of a question kind.
// The second return value is false for kinds outside the closed set.
func StrategyFor(kind domain.QuestionKind) (Strategy, bool) {
	switch kind {
	case domain.KindMultipleChoice:
		return multipleChoice{}, true
	case domain.KindTrueFalse:
		return trueFalse{}, true
	case domain.KindText:
		return freeText{}, true
	}
	return nil, false
}

// --- Strategies ---

// multipleChoice compares option indexes. A side without a leading integer never matches.
type multipleChoice struct{}

func (multipleChoice) Matches(q domain.Question, answer string) bool {
	want, ok := parseIndex(q.CorrectAnswer)
	if !ok {
		return false
	}
	got, ok := parseIndex(answer)
	if !ok {
		return false
	}
	return want == got
}

type trueFalse struct{}

func (trueFalse) Matches(q domain.Question, answer string) bool {
	return strings.EqualFold(q.CorrectAnswer, answer)
}

type freeText struct{}

func (freeText) Matches(q domain.Question, answer string) bool {
	return normalizeText(q.CorrectAnswer) == normalizeText(answer)
}

// parseIndex reads the leading integer of s, so "1", "1.0" and "1st" are all index 1.
func parseIndex(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateSubmission rejects payloads that cannot be graded deterministically:
// a missing answer list, negative time, or two answers to the same question of the quiz.
func ValidateSubmission(quiz *domain.Quiz, answers []domain.SubmittedAnswer) error {
	if answers == nil {
		return domain.NewInvalidInputError("Answers must be an array")
	}
	known := make(map[string]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		known[q.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(answers))
	for i, a := range answers {
		if a.TimeSpent < 0 {
			return domain.NewInvalidInputError(fmt.Sprintf("answers[%d].timeSpent cannot be negative", i))
		}
		if _, ok := known[a.QuestionID]; !ok {
			continue
		}
		if _, dup := seen[a.QuestionID]; dup {
			return domain.NewInvalidInputError(fmt.Sprintf("question %q answered more than once", a.QuestionID))
		}
		seen[a.QuestionID] = struct{}{}
	}
	return nil
}

// Grade scores the submitted answers against the quiz's question bank.
//
// Answers referencing unknown questions are skipped but their time still counts.
// Text questions without a reference answer are flagged for review: they award
// nothing and their points are left out of the total, so the percentage only
// reflects what could be graded automatically. Only the first answer per
// question is graded.
func Grade(quiz *domain.Quiz, submitted []domain.SubmittedAnswer) domain.GradeResult {
	bank := make(map[string]domain.Question, len(quiz.Questions))
	result := domain.GradeResult{
		Answers:        make([]domain.GradedAnswer, 0, len(submitted)),
		TotalQuestions: len(quiz.Questions),
		PassingScore:   quiz.PassingScore,
	}

	for _, q := range quiz.Questions {
		bank[q.ID] = q
		if !q.NeedsManualReview() {
			result.TotalPossible += q.PointsValue()
		}
	}

	graded := make(map[string]struct{}, len(submitted))
	for _, answer := range submitted {
		if answer.TimeSpent > 0 {
			result.TimeSpent += answer.TimeSpent
		}

		q, ok := bank[answer.QuestionID]
		if !ok {
			continue
		}
		if _, done := graded[q.ID]; done {
			continue
		}
		graded[q.ID] = struct{}{}

		ga := domain.GradedAnswer{
			QuestionID: answer.QuestionID,
			Answer:     answer.Answer,
			TimeSpent:  answer.TimeSpent,
		}
		switch {
		case q.NeedsManualReview():
			ga.PendingReview = true
			result.PendingReview++
		default:
			if strategy, ok := StrategyFor(q.Kind); ok && strategy.Matches(q, answer.Answer) {
				ga.IsCorrect = true
				ga.PointsAwarded = q.PointsValue()
				result.Score += ga.PointsAwarded
				result.CorrectAnswers++
			}
		}
		result.Answers = append(result.Answers, ga)
	}

	result.Percentage = util.RoundedPercent(result.Score, result.TotalPossible)
	result.Passed = result.Percentage >= quiz.PassingScore
	return result
}

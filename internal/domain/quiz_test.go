package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuiz() *Quiz {
	return &Quiz{
		ID:           "quiz-1",
		Title:        "Phishing basics",
		PassingScore: 70,
		Status:       QuizStatusDraft,
		Questions: []Question{
			{ID: "q1", Prompt: "Which link is safe?", Kind: KindMultipleChoice, Options: []string{"a", "b", "c"}, CorrectAnswer: "1", Points: 2},
			{ID: "q2", Prompt: "MFA helps", Kind: KindTrueFalse, CorrectAnswer: "True"},
			{ID: "q3", Prompt: "Report phishing to?", Kind: KindText, CorrectAnswer: "security team"},
		},
	}
}

func TestQuiz_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(q *Quiz)
		wantField string
	}{
		{"valid quiz", func(q *Quiz) {}, ""},
		{"missing title", func(q *Quiz) { q.Title = "  " }, "title"},
		{"passing score above 100", func(q *Quiz) { q.PassingScore = 101 }, "passingScore"},
		{"negative max attempts", func(q *Quiz) { q.MaxAttempts = -1 }, "maxAttempts"},
		{"unknown difficulty", func(q *Quiz) { q.Difficulty = "extreme" }, "difficulty"},
		{"unknown kind", func(q *Quiz) { q.Questions[0].Kind = "essay" }, "questions[0].kind"},
		{"multiple choice with one option", func(q *Quiz) { q.Questions[0].Options = []string{"only"}; q.Questions[0].CorrectAnswer = "0" }, "questions[0].options"},
		{"multiple choice answer out of range", func(q *Quiz) { q.Questions[0].CorrectAnswer = "3" }, "questions[0].correctAnswer"},
		{"true-false answer not boolean", func(q *Quiz) { q.Questions[1].CorrectAnswer = "maybe" }, "questions[1].correctAnswer"},
		{"missing prompt", func(q *Quiz) { q.Questions[2].Prompt = "" }, "questions[2].prompt"},
		{"negative points", func(q *Quiz) { q.Questions[2].Points = -4 }, "questions[2].points"},
		{"duplicate question ids", func(q *Quiz) { q.Questions[1].ID = "q1" }, "questions[1].id"},
		{"text question without answer is allowed", func(q *Quiz) { q.Questions[2].CorrectAnswer = "" }, ""},
		{"published quiz without questions", func(q *Quiz) { q.Status = QuizStatusPublished; q.Questions = nil }, "questions"},
		{"draft quiz without questions is allowed", func(q *Quiz) { q.Questions = []Question{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuiz()
			tt.mutate(q)
			err := q.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
			fields := make([]string, 0, len(verrs))
			for _, v := range verrs {
				fields = append(fields, v.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestQuiz_ApplyDefaults(t *testing.T) {
	q := &Quiz{
		Title: "Defaults",
		Questions: []Question{
			{Prompt: "free", Kind: KindText, Options: []string{"ignored"}},
		},
	}
	q.ApplyDefaults()

	assert.Equal(t, DefaultCategory, q.Category)
	assert.Equal(t, DifficultyMedium, q.Difficulty)
	assert.Equal(t, QuizStatusDraft, q.Status)
	assert.Equal(t, 1, q.Questions[0].Points)
	assert.Nil(t, q.Questions[0].Options)
}

func TestQuiz_TotalPoints(t *testing.T) {
	q := validQuiz()
	assert.Equal(t, 4, q.TotalPoints())
	assert.Equal(t, 3, q.QuestionCount())
}

func TestQuiz_Publish(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("publishes a quiz with questions", func(t *testing.T) {
		q := validQuiz()
		require.NoError(t, q.Publish(now))
		assert.Equal(t, QuizStatusPublished, q.Status)
		require.NotNil(t, q.PublishedAt)
		assert.Equal(t, now, *q.PublishedAt)
		assert.True(t, q.IsAvailable())
	})

	t.Run("empty quiz stays draft", func(t *testing.T) {
		q := validQuiz()
		q.Questions = nil
		err := q.Publish(now)

		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, QuizStatusDraft, q.Status)
		assert.Nil(t, q.PublishedAt)
	})

	t.Run("unpublish clears publishedAt", func(t *testing.T) {
		q := validQuiz()
		require.NoError(t, q.Publish(now))
		q.Unpublish(now.Add(time.Hour))
		assert.Equal(t, QuizStatusDraft, q.Status)
		assert.Nil(t, q.PublishedAt)
		assert.False(t, q.IsAvailable())
	})

	t.Run("archive", func(t *testing.T) {
		q := validQuiz()
		q.Archive(now)
		assert.Equal(t, QuizStatusArchived, q.Status)
		assert.False(t, q.IsAvailable())
	})
}

func TestQuiz_Duplicate(t *testing.T) {
	now := time.Now()
	q := validQuiz()
	q.Tags = []string{"email"}
	require.NoError(t, q.Publish(now))

	n := 0
	newID := func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
	dup := q.Duplicate(newID, "admin-2", now)

	assert.Equal(t, "new-1", dup.ID)
	assert.Equal(t, "Phishing basics (Copy)", dup.Title)
	assert.Equal(t, QuizStatusDraft, dup.Status)
	assert.Nil(t, dup.PublishedAt)
	assert.Equal(t, "admin-2", dup.CreatedBy)
	require.Len(t, dup.Questions, 3)
	assert.Equal(t, "new-2", dup.Questions[0].ID)
	assert.Equal(t, q.Questions[0].CorrectAnswer, dup.Questions[0].CorrectAnswer)

	dup.Questions[0].Options[0] = "changed"
	dup.Tags[0] = "changed"
	assert.Equal(t, "a", q.Questions[0].Options[0])
	assert.Equal(t, "email", q.Tags[0])
	assert.Equal(t, "q1", q.Questions[0].ID)
}

func TestQuiz_ForLearner(t *testing.T) {
	q := validQuiz()
	q.Questions[0].Explanation = "because"
	view := q.ForLearner()

	for _, question := range view.Questions {
		assert.Empty(t, question.CorrectAnswer)
		assert.Empty(t, question.Explanation)
	}
	assert.Equal(t, "1", q.Questions[0].CorrectAnswer)
	assert.Equal(t, "because", q.Questions[0].Explanation)
}

func TestQuizPatch_Apply(t *testing.T) {
	q := validQuiz()
	title := "Renamed"
	score := 80
	QuizPatch{Title: &title, PassingScore: &score, Tags: []string{"x"}}.Apply(q)

	assert.Equal(t, "Renamed", q.Title)
	assert.Equal(t, 80, q.PassingScore)
	assert.Equal(t, []string{"x"}, q.Tags)
	assert.Len(t, q.Questions, 3)
}

func TestQuestion_NeedsManualReview(t *testing.T) {
	assert.True(t, Question{Kind: KindText, CorrectAnswer: "  "}.NeedsManualReview())
	assert.False(t, Question{Kind: KindText, CorrectAnswer: "yes"}.NeedsManualReview())
	assert.False(t, Question{Kind: KindTrueFalse}.NeedsManualReview())
}

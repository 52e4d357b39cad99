package dto

import (
	"encoding/json"
	"testing"

	"guardians/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "string", body: `"Paris"`, want: "Paris"},
		{name: "integer", body: `1`, want: "1"},
		{name: "negative", body: `-3`, want: "-3"},
		{name: "boolean true", body: `true`, want: "true"},
		{name: "boolean false", body: `false`, want: "false"},
		{name: "null", body: `null`, wantErr: true},
		{name: "object", body: `{"a":1}`, wantErr: true},
		{name: "array", body: `[1]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v AnswerValue
			err := json.Unmarshal([]byte(tt.body), &v)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(v))
		})
	}
}

func TestSubmitAnswersRequest_ToDomain(t *testing.T) {
	var req SubmitAnswersRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.Nil(t, req.ToDomain())

	require.NoError(t, json.Unmarshal([]byte(`{"answers":[{"questionId":"q1","answer":1,"timeSpent":12},{"questionId":"q2","answer":true}]}`), &req))
	answers := req.ToDomain()
	require.Len(t, answers, 2)
	assert.Equal(t, domain.SubmittedAnswer{QuestionID: "q1", Answer: "1", TimeSpent: 12}, answers[0])
	assert.Equal(t, domain.SubmittedAnswer{QuestionID: "q2", Answer: "true"}, answers[1])
}

func TestCreateQuizRequest_ToDomain(t *testing.T) {
	req := CreateQuizRequest{Title: "Passwords"}
	quiz := req.ToDomain()
	assert.Equal(t, domain.DefaultPassingScore, quiz.PassingScore)
	assert.NotNil(t, quiz.Questions)
	assert.NotNil(t, quiz.Tags)

	zero := 0
	req.PassingScore = &zero
	assert.Equal(t, 0, req.ToDomain().PassingScore)
}

func TestUpdateQuizRequest_ToPatch(t *testing.T) {
	title := "New"
	difficulty := "hard"
	patch := UpdateQuizRequest{Title: &title, Difficulty: &difficulty}.ToPatch()

	quiz := &domain.Quiz{Title: "Old", Difficulty: domain.DifficultyEasy, Category: "general"}
	patch.Apply(quiz)
	assert.Equal(t, "New", quiz.Title)
	assert.Equal(t, domain.DifficultyHard, quiz.Difficulty)
	assert.Equal(t, "general", quiz.Category)
	assert.Nil(t, patch.Questions)
}

func TestNewQuizResponse(t *testing.T) {
	quiz := &domain.Quiz{
		ID:           "quiz-1",
		Title:        "Phishing",
		PassingScore: 70,
		Questions: []domain.Question{
			{ID: "q1", Prompt: "Spot it", Kind: domain.KindMultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "1", Points: 2},
			{ID: "q2", Prompt: "Explain", Kind: domain.KindText},
		},
	}
	resp := NewQuizResponse(quiz)
	assert.Equal(t, 3, resp.TotalPoints)
	assert.Equal(t, 2, resp.QuestionCount)
	assert.Equal(t, []string{}, resp.Questions[1].Options)
	assert.Equal(t, 1, resp.Questions[1].Points)
	assert.Equal(t, []string{}, resp.Tags)
}

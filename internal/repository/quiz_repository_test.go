package repository

import (
	"context"
	"testing"
	"time"

	"guardians/internal/domain"
	"guardians/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuiz(title string, created time.Time) *domain.Quiz {
	return &domain.Quiz{
		ID:           util.NewULID(),
		Title:        title,
		Description:  "Spot the signs of " + title,
		Category:     "phishing",
		Difficulty:   domain.DifficultyEasy,
		PassingScore: 70,
		MaxAttempts:  3,
		Status:       domain.QuizStatusDraft,
		Tags:         []string{"email", "awareness"},
		BadgeTitle:   "Phish Finder",
		CreatedBy:    "admin-1",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "Which sender is spoofed?", Kind: domain.KindMultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "0", Points: 2, Explanation: "look at the domain"},
			{ID: "q2", Prompt: "Describe your reporting step", Kind: domain.KindText, Points: 1},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestQuizRepository_CreateAndGet(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewSQLXQuizRepository(db)
	ctx := context.Background()

	quiz := sampleQuiz("Phishing 101", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, repo.CreateQuiz(ctx, quiz))

	got, err := repo.GetQuizByID(ctx, quiz.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, quiz.Title, got.Title)
	assert.Equal(t, quiz.Description, got.Description)
	assert.Equal(t, quiz.Tags, got.Tags)
	assert.Equal(t, quiz.Questions, got.Questions)
	assert.Equal(t, domain.QuizStatusDraft, got.Status)
	assert.Nil(t, got.PublishedAt)
	assert.WithinDuration(t, quiz.CreatedAt, got.CreatedAt, time.Second)

	missing, err := repo.GetQuizByID(ctx, "does-not-exist")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQuizRepository_Update(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewSQLXQuizRepository(db)
	ctx := context.Background()

	quiz := sampleQuiz("Passwords", time.Now().UTC())
	require.NoError(t, repo.CreateQuiz(ctx, quiz))

	now := time.Now().UTC()
	require.NoError(t, quiz.Publish(now))
	quiz.Description = ""
	require.NoError(t, repo.UpdateQuiz(ctx, quiz))

	got, err := repo.GetQuizByID(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizStatusPublished, got.Status)
	require.NotNil(t, got.PublishedAt)
	assert.WithinDuration(t, now, *got.PublishedAt, time.Second)
	assert.Empty(t, got.Description)

	ghost := sampleQuiz("Ghost", now)
	assert.Error(t, repo.UpdateQuiz(ctx, ghost))
}

func TestQuizRepository_Delete(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewSQLXQuizRepository(db)
	ctx := context.Background()

	quiz := sampleQuiz("Tailgating", time.Now().UTC())
	require.NoError(t, repo.CreateQuiz(ctx, quiz))

	deleted, err := repo.DeleteQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestQuizRepository_List(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewSQLXQuizRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	first := sampleQuiz("Phishing 101", base)
	second := sampleQuiz("USB drops", base.Add(time.Minute))
	second.Category = "physical"
	second.Tags = []string{"hardware"}
	second.Description = "Found a 100% free stick?"
	third := sampleQuiz("Ransomware", base.Add(2*time.Minute))
	third.Difficulty = domain.DifficultyHard
	require.NoError(t, third.Publish(base.Add(2*time.Minute)))

	for _, q := range []*domain.Quiz{first, second, third} {
		require.NoError(t, repo.CreateQuiz(ctx, q))
	}

	all, err := repo.ListQuizzes(ctx, domain.QuizFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID, "newest first")
	assert.Equal(t, first.ID, all[2].ID)

	published, err := repo.ListQuizzes(ctx, domain.QuizFilter{Status: domain.QuizStatusPublished})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, third.ID, published[0].ID)

	physical, err := repo.ListQuizzes(ctx, domain.QuizFilter{Category: "physical"})
	require.NoError(t, err)
	require.Len(t, physical, 1)

	hard, err := repo.ListQuizzes(ctx, domain.QuizFilter{Difficulty: domain.DifficultyHard})
	require.NoError(t, err)
	require.Len(t, hard, 1)

	byTag, err := repo.ListQuizzes(ctx, domain.QuizFilter{Query: "HARDWARE"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, second.ID, byTag[0].ID)

	byTitle, err := repo.ListQuizzes(ctx, domain.QuizFilter{Query: "phish"})
	require.NoError(t, err)
	assert.Len(t, byTitle, 1)

	literalPercent, err := repo.ListQuizzes(ctx, domain.QuizFilter{Query: "100%"})
	require.NoError(t, err)
	require.Len(t, literalPercent, 1)
	assert.Equal(t, second.ID, literalPercent[0].ID)
}

func TestQuizRepository_ListMatchesEachTag(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewSQLXQuizRepository(db)
	ctx := context.Background()

	quiz := sampleQuiz("Forum safety", time.Now().UTC())
	quiz.Description = "Posting in public channels"
	quiz.Tags = []string{"Q&A", "<script>"}
	require.NoError(t, repo.CreateQuiz(ctx, quiz))

	ids := func(q string) []string {
		t.Helper()
		found, err := repo.ListQuizzes(ctx, domain.QuizFilter{Query: q})
		require.NoError(t, err)
		out := make([]string, 0, len(found))
		for _, f := range found {
			out = append(out, f.ID)
		}
		return out
	}

	assert.Equal(t, []string{quiz.ID}, ids("q&a"))
	assert.Equal(t, []string{quiz.ID}, ids("<SCRIPT>"))
	assert.Empty(t, ids(`","`), "punctuation between tags must not match")
	assert.Empty(t, ids("a<scr"), "a match never spans two tags")

	quiz.Tags = []string{"forums"}
	require.NoError(t, repo.UpdateQuiz(ctx, quiz))
	assert.Empty(t, ids("q&a"))
	assert.Equal(t, []string{quiz.ID}, ids("forum"))

	deleted, err := repo.DeleteQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	var remaining int
	require.NoError(t, db.Get(&remaining, `SELECT COUNT(*) FROM quiz_tags WHERE quiz_id = ?`, quiz.ID))
	assert.Zero(t, remaining)
}

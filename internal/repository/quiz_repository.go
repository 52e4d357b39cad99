package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"guardians/internal/domain"
	"guardians/internal/repository/models"
	"guardians/internal/util"

	"github.com/jmoiron/sqlx"
)

const quizColumns = `id, title, description, category, difficulty, questions, time_limit, passing_score,
	max_attempts, status, tags, instructions, badge_title, badge_description, created_by, published_at,
	created_at, updated_at`

// sqlxQuizRepository implements domain.QuizRepository using sqlx.
type sqlxQuizRepository struct {
	db      *sqlx.DB
	dialect dialect
	tx      domain.TransactionManager
}

// NewSQLXQuizRepository creates a new instance of sqlxQuizRepository.
func NewSQLXQuizRepository(db *sqlx.DB) domain.QuizRepository {
	return &sqlxQuizRepository{
		db:      db,
		dialect: dialectOf(db.DriverName()),
		tx:      NewTransactionManagerAdapter(db),
	}
}

func toDomainQuestions(records models.QuestionList) []domain.Question {
	questions := make([]domain.Question, 0, len(records))
	for _, r := range records {
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

func fromDomainQuestions(questions []domain.Question) models.QuestionList {
	records := make(models.QuestionList, 0, len(questions))
	for _, q := range questions {
		records = append(records, models.QuestionRecord{
			ID:            q.ID,
			Prompt:        q.Prompt,
			Kind:          string(q.Kind),
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			Points:        q.Points,
		})
	}
	return records
}

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	if m == nil {
		return nil
	}
	tags := []string(m.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &domain.Quiz{
		ID:               m.ID,
		Title:            m.Title,
		Description:      m.Description.String,
		Category:         m.Category,
		Difficulty:       domain.Difficulty(m.Difficulty),
		Questions:        toDomainQuestions(m.Questions),
		TimeLimit:        m.TimeLimit,
		PassingScore:     m.PassingScore,
		MaxAttempts:      m.MaxAttempts,
		Status:           domain.QuizStatus(m.Status),
		Tags:             tags,
		Instructions:     m.Instructions.String,
		BadgeTitle:       m.BadgeTitle.String,
		BadgeDescription: m.BadgeDescription.String,
		CreatedBy:        m.CreatedBy.String,
		PublishedAt:      util.NullTimeToPtr(m.PublishedAt),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func fromDomainQuiz(q *domain.Quiz) *models.Quiz {
	if q == nil {
		return nil
	}
	return &models.Quiz{
		ID:               q.ID,
		Title:            q.Title,
		Description:      util.StringToNullString(q.Description),
		Category:         q.Category,
		Difficulty:       string(q.Difficulty),
		Questions:        fromDomainQuestions(q.Questions),
		TimeLimit:        q.TimeLimit,
		PassingScore:     q.PassingScore,
		MaxAttempts:      q.MaxAttempts,
		Status:           string(q.Status),
		Tags:             models.StringSlice(q.Tags),
		Instructions:     util.StringToNullString(q.Instructions),
		BadgeTitle:       util.StringToNullString(q.BadgeTitle),
		BadgeDescription: util.StringToNullString(q.BadgeDescription),
		CreatedBy:        util.StringToNullString(q.CreatedBy),
		PublishedAt:      util.TimePtrToNullTime(q.PublishedAt),
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
}

func scanQuiz(row rowScanner) (*models.Quiz, error) {
	var m models.Quiz
	err := row.Scan(
		&m.ID, &m.Title, &m.Description, &m.Category, &m.Difficulty, &m.Questions,
		&m.TimeLimit, &m.PassingScore, &m.MaxAttempts, &m.Status, &m.Tags, &m.Instructions,
		&m.BadgeTitle, &m.BadgeDescription, &m.CreatedBy, &m.PublishedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// replaceTags rewrites the quiz_tags rows searched by ListQuizzes, one row per tag.
func replaceTags(ctx context.Context, exec DBTX, quizID string, tags []string) error {
	if _, err := exec.ExecContext(ctx, exec.Rebind(`DELETE FROM quiz_tags WHERE quiz_id = ?`), quizID); err != nil {
		return fmt.Errorf("failed to clear tags of quiz %s: %w", quizID, err)
	}
	insert := exec.Rebind(`INSERT INTO quiz_tags (quiz_id, tag) VALUES (?, ?)`)
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, err := exec.ExecContext(ctx, insert, quizID, tag); err != nil {
			return fmt.Errorf("failed to insert tag of quiz %s: %w", quizID, err)
		}
	}
	return nil
}

// CreateQuiz persists a new quiz and its tags
func (r *sqlxQuizRepository) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	m := fromDomainQuiz(quiz)
	return r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, r.db)

		query := exec.Rebind(`INSERT INTO quizzes (` + quizColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		_, err := exec.ExecContext(txCtx, query,
			m.ID, m.Title, m.Description, m.Category, m.Difficulty, m.Questions,
			m.TimeLimit, m.PassingScore, m.MaxAttempts, m.Status, m.Tags, m.Instructions,
			m.BadgeTitle, m.BadgeDescription, m.CreatedBy, m.PublishedAt, m.CreatedAt, m.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert quiz %s: %w", quiz.ID, err)
		}
		return replaceTags(txCtx, exec, quiz.ID, quiz.Tags)
	})
}

// GetQuizByID retrieves a quiz by its ID
func (r *sqlxQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`SELECT ` + quizColumns + ` FROM quizzes WHERE id = ?`)

	m, err := scanQuiz(exec.QueryRowxContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by id %s: %w", id, err)
	}
	return toDomainQuiz(m), nil
}

// UpdateQuiz overwrites the mutable columns and the tags of an existing quiz
func (r *sqlxQuizRepository) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	m := fromDomainQuiz(quiz)
	return r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, r.db)

		query := exec.Rebind(`UPDATE quizzes SET title = ?, description = ?, category = ?, difficulty = ?,
			questions = ?, time_limit = ?, passing_score = ?, max_attempts = ?, status = ?, tags = ?,
			instructions = ?, badge_title = ?, badge_description = ?, published_at = ?, updated_at = ?
			WHERE id = ?`)
		res, err := exec.ExecContext(txCtx, query,
			m.Title, m.Description, m.Category, m.Difficulty, m.Questions, m.TimeLimit,
			m.PassingScore, m.MaxAttempts, m.Status, m.Tags, m.Instructions, m.BadgeTitle,
			m.BadgeDescription, m.PublishedAt, m.UpdatedAt, m.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update quiz %s: %w", quiz.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected for quiz %s: %w", quiz.ID, err)
		}
		if affected == 0 {
			return fmt.Errorf("quiz %s: %w", quiz.ID, sql.ErrNoRows)
		}
		return replaceTags(txCtx, exec, quiz.ID, quiz.Tags)
	})
}

// DeleteQuiz removes a quiz with its tags and reports whether it existed
func (r *sqlxQuizRepository) DeleteQuiz(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, r.db)
		if _, err := exec.ExecContext(txCtx, exec.Rebind(`DELETE FROM quiz_tags WHERE quiz_id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete tags of quiz %s: %w", id, err)
		}
		res, err := exec.ExecContext(txCtx, exec.Rebind(`DELETE FROM quizzes WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete quiz %s: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected for quiz %s: %w", id, err)
		}
		deleted = affected > 0
		return nil
	})
	return deleted, err
}

// ListQuizzes returns the quizzes matching the filter, newest first
func (r *sqlxQuizRepository) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]*domain.Quiz, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Difficulty != "" {
		where = append(where, "difficulty = ?")
		args = append(args, string(filter.Difficulty))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := likePattern(q)
		where = append(where, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM quiz_tags t WHERE t.quiz_id = quizzes.id AND LOWER(t.tag) LIKE ? ESCAPE '\'))`)
		args = append(args, pattern, pattern, pattern)
	}

	query := `SELECT ` + quizColumns + ` FROM quizzes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryxContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]*domain.Quiz, 0)
	for rows.Next() {
		m, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz row: %w", err)
		}
		quizzes = append(quizzes, toDomainQuiz(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quiz rows: %w", err)
	}
	return quizzes, nil
}

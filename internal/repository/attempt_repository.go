package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"guardians/internal/domain"
	"guardians/internal/logger"
	"guardians/internal/repository/models"
	"guardians/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const attemptColumns = `id, quiz_id, user_id, attempt_number, status, answers, score, percentage, passed,
	time_spent, ip_address, user_agent, completed_at, created_at, updated_at`

// DefaultNumberRetries bounds how often an attempt insert is retried after losing a numbering race.
const DefaultNumberRetries = 5

// insertNextAttemptSQL allocates the next attempt number and enforces the attempt
// limit in one statement. The aggregate always yields one row; HAVING drops it
// when the user is already at the limit, so nothing is inserted.
const insertNextAttemptSQL = `INSERT INTO quiz_attempts
	(id, quiz_id, user_id, attempt_number, status, answers, score, percentage, passed, time_spent,
	 ip_address, user_agent, created_at, updated_at)
	SELECT ?, ?, ?, COALESCE(MAX(attempt_number), 0) + 1, ?, ?, 0, 0, 0, 0, ?, ?,
	 CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
	FROM quiz_attempts
	WHERE quiz_id = ? AND user_id = ?
	HAVING ? = 0 OR COALESCE(MAX(attempt_number), 0) < ?`

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db            *sqlx.DB
	dialect       dialect
	numberRetries int
}

// NewSQLXAttemptRepository creates a new instance of sqlxAttemptRepository.
// numberRetries <= 0 falls back to DefaultNumberRetries.
func NewSQLXAttemptRepository(db *sqlx.DB, numberRetries int) domain.AttemptRepository {
	if numberRetries <= 0 {
		numberRetries = DefaultNumberRetries
	}
	return &sqlxAttemptRepository{db: db, dialect: dialectOf(db.DriverName()), numberRetries: numberRetries}
}

func toDomainAttempt(m *models.QuizAttempt) *domain.Attempt {
	if m == nil {
		return nil
	}
	answers := make([]domain.GradedAnswer, 0, len(m.Answers))
	for _, a := range m.Answers {
		answers = append(answers, domain.GradedAnswer{
			QuestionID:    a.QuestionID,
			Answer:        a.Answer,
			IsCorrect:     a.IsCorrect,
			PendingReview: a.PendingReview,
			PointsAwarded: a.PointsAwarded,
			TimeSpent:     a.TimeSpent,
		})
	}
	return &domain.Attempt{
		ID:            m.ID,
		QuizID:        m.QuizID,
		UserID:        m.UserID,
		AttemptNumber: m.AttemptNumber,
		Status:        domain.AttemptStatus(m.Status),
		Answers:       answers,
		Score:         m.Score,
		Percentage:    m.Percentage,
		Passed:        m.Passed != 0,
		TimeSpent:     m.TimeSpent,
		IPAddress:     m.IPAddress.String,
		UserAgent:     m.UserAgent.String,
		CompletedAt:   util.NullTimeToPtr(m.CompletedAt),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func fromDomainAnswers(answers []domain.GradedAnswer) models.AnswerList {
	records := make(models.AnswerList, 0, len(answers))
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

func scanAttempt(row rowScanner) (*models.QuizAttempt, error) {
	var m models.QuizAttempt
	err := row.Scan(
		&m.ID, &m.QuizID, &m.UserID, &m.AttemptNumber, &m.Status, &m.Answers, &m.Score,
		&m.Percentage, &m.Passed, &m.TimeSpent, &m.IPAddress, &m.UserAgent, &m.CompletedAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateNextAttempt inserts the attempt under the next free attempt number.
// Two concurrent starts may compute the same number; the unique index on
// (quiz_id, user_id, attempt_number) rejects the loser, which then retries.
func (r *sqlxAttemptRepository) CreateNextAttempt(ctx context.Context, attempt *domain.Attempt, maxAttempts int) error {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(insertNextAttemptSQL)

	var lastErr error
	for try := 0; try < r.numberRetries; try++ {
		res, err := exec.ExecContext(ctx, query,
			attempt.ID, attempt.QuizID, attempt.UserID,
			string(domain.AttemptInProgress), models.AnswerList{},
			util.StringToNullString(attempt.IPAddress), util.StringToNullString(attempt.UserAgent),
			attempt.QuizID, attempt.UserID,
			maxAttempts, maxAttempts,
		)
		if err != nil {
			if isUniqueViolation(err) {
				lastErr = err
				logger.Get().Debug("attempt number taken, retrying",
					zap.String("quizID", attempt.QuizID),
					zap.String("userID", attempt.UserID),
					zap.Int("try", try+1))
				continue
			}
			return fmt.Errorf("failed to insert attempt for quiz %s: %w", attempt.QuizID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected for attempt %s: %w", attempt.ID, err)
		}
		if affected == 0 {
			return domain.ErrAttemptLimitReached
		}

		stored, err := r.GetAttemptByID(ctx, attempt.ID)
		if err != nil {
			return err
		}
		if stored == nil {
			return fmt.Errorf("attempt %s missing after insert", attempt.ID)
		}
		attempt.AttemptNumber = stored.AttemptNumber
		attempt.CreatedAt = stored.CreatedAt
		attempt.UpdatedAt = stored.UpdatedAt
		return nil
	}
	return fmt.Errorf("failed to allocate attempt number after %d tries: %w", r.numberRetries, lastErr)
}

// GetAttemptByID retrieves an attempt by its ID
func (r *sqlxAttemptRepository) GetAttemptByID(ctx context.Context, id string) (*domain.Attempt, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`SELECT ` + attemptColumns + ` FROM quiz_attempts WHERE id = ?`)

	m, err := scanAttempt(exec.QueryRowxContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt by id %s: %w", id, err)
	}
	return toDomainAttempt(m), nil
}

// CountByQuizAndUser counts every attempt a user made on a quiz, whatever its status
func (r *sqlxAttemptRepository) CountByQuizAndUser(ctx context.Context, quizID, userID string) (int, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = ? AND user_id = ?`)

	var count int
	if err := exec.QueryRowxContext(ctx, query, quizID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count attempts for quiz %s: %w", quizID, err)
	}
	return count, nil
}

// CompleteAttempt writes the graded attempt if it is still in progress
func (r *sqlxAttemptRepository) CompleteAttempt(ctx context.Context, attempt *domain.Attempt) (bool, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`UPDATE quiz_attempts SET status = ?, answers = ?, score = ?, percentage = ?,
		passed = ?, time_spent = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`)

	res, err := exec.ExecContext(ctx, query,
		string(attempt.Status), fromDomainAnswers(attempt.Answers), attempt.Score, attempt.Percentage,
		util.BoolToInt(attempt.Passed), attempt.TimeSpent, util.TimePtrToNullTime(attempt.CompletedAt),
		attempt.UpdatedAt, attempt.ID, string(domain.AttemptInProgress),
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete attempt %s: %w", attempt.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for attempt %s: %w", attempt.ID, err)
	}
	return affected == 1, nil
}

// ListAttempts returns matching attempts, newest first
func (r *sqlxAttemptRepository) ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]*domain.Attempt, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.QuizID != "" {
		where = append(where, "quiz_id = ?")
		args = append(args, filter.QuizID)
	}

	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC" + r.dialect.limit(filter.Limit)

	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryxContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]*domain.Attempt, 0)
	for rows.Next() {
		m, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt row: %w", err)
		}
		attempts = append(attempts, toDomainAttempt(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attempt rows: %w", err)
	}
	return attempts, nil
}

// AggregateCompleted aggregates the completed attempts of a quiz
func (r *sqlxAttemptRepository) AggregateCompleted(ctx context.Context, quizID string) (*domain.AttemptAggregate, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`SELECT COUNT(*),
		COALESCE(AVG(CAST(percentage AS FLOAT)), 0),
		COALESCE(AVG(CAST(time_spent AS FLOAT)), 0),
		COALESCE(AVG(CAST(passed AS FLOAT)), 0)
		FROM quiz_attempts WHERE quiz_id = ? AND status = ?`)

	var agg domain.AttemptAggregate
	err := exec.QueryRowxContext(ctx, query, quizID, string(domain.AttemptCompleted)).
		Scan(&agg.Count, &agg.AvgPercentage, &agg.AvgTimeSpent, &agg.PassRatio)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate attempts for quiz %s: %w", quizID, err)
	}
	return &agg, nil
}

package models

import (
	"database/sql"
	"database/sql/driver"
	"time"
)

// AnswerRecord is the stored form of one graded answer.
type AnswerRecord struct {
	QuestionID    string `json:"questionId" bson:"questionId"`
	Answer        string `json:"answer" bson:"answer"`
	IsCorrect     bool   `json:"isCorrect" bson:"isCorrect"`
	PendingReview bool   `json:"pendingReview,omitempty" bson:"pendingReview,omitempty"`
	PointsAwarded int    `json:"pointsAwarded" bson:"pointsAwarded"`
	TimeSpent     int    `json:"timeSpent" bson:"timeSpent"`
}

// AnswerList stores graded answers as JSON text
type AnswerList []AnswerRecord

func (a AnswerList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return valueJSON([]AnswerRecord(a))
}

func (a *AnswerList) Scan(value interface{}) error {
	*a = AnswerList{}
	_, err := scanJSON(value, (*[]AnswerRecord)(a))
	return err
}

// QuizAttempt mirrors one row of the quiz_attempts table.
// Passed is kept as 0/1 so the same column works on Oracle, Postgres and SQLite.
type QuizAttempt struct {
	ID            string         `db:"id"`
	QuizID        string         `db:"quiz_id"`
	UserID        string         `db:"user_id"`
	AttemptNumber int            `db:"attempt_number"`
	Status        string         `db:"status"`
	Answers       AnswerList     `db:"answers"`
	Score         int            `db:"score"`
	Percentage    int            `db:"percentage"`
	Passed        int            `db:"passed"`
	TimeSpent     int            `db:"time_spent"`
	IPAddress     sql.NullString `db:"ip_address"`
	UserAgent     sql.NullString `db:"user_agent"`
	CompletedAt   sql.NullTime   `db:"completed_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

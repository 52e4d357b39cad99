package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// scanJSON decodes a JSON text column. NULL, empty text and "null" leave dst untouched.
func scanJSON(value interface{}, dst interface{}) (bool, error) {
	if value == nil {
		return false, nil
	}

	var bytesToParse []byte
	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return false, errors.New("json column Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	// Oracle은 빈 문자열을 NULL로 저장하므로 빈 값도 허용
	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		return false, nil
	}
	return true, json.Unmarshal(bytesToParse, dst)
}

func valueJSON(v interface{}) (driver.Value, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil // []byte 대신 string 반환 (CLOB 호환)
}

// StringSlice stores a string array as JSON text
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return valueJSON([]string(s))
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	*s = StringSlice{}
	_, err := scanJSON(value, (*[]string)(s))
	return err
}

// QuestionRecord is the stored form of a question inside the quizzes.questions column.
type QuestionRecord struct {
	ID            string   `json:"id" bson:"id"`
	Prompt        string   `json:"prompt" bson:"prompt"`
	Kind          string   `json:"kind" bson:"kind"`
	Options       []string `json:"options,omitempty" bson:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty" bson:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty" bson:"explanation,omitempty"`
	Points        int      `json:"points" bson:"points"`
}

// QuestionList stores the ordered question bank as JSON text
type QuestionList []QuestionRecord

func (q QuestionList) Value() (driver.Value, error) {
	if q == nil {
		return "[]", nil
	}
	return valueJSON([]QuestionRecord(q))
}

func (q *QuestionList) Scan(value interface{}) error {
	*q = QuestionList{}
	_, err := scanJSON(value, (*[]QuestionRecord)(q))
	return err
}

// Quiz mirrors one row of the quizzes table
type Quiz struct {
	ID               string         `db:"id"`
	Title            string         `db:"title"`
	Description      sql.NullString `db:"description"`
	Category         string         `db:"category"`
	Difficulty       string         `db:"difficulty"`
	Questions        QuestionList   `db:"questions"`
	TimeLimit        int            `db:"time_limit"`
	PassingScore     int            `db:"passing_score"`
	MaxAttempts      int            `db:"max_attempts"`
	Status           string         `db:"status"`
	Tags             StringSlice    `db:"tags"`
	Instructions     sql.NullString `db:"instructions"`
	BadgeTitle       sql.NullString `db:"badge_title"`
	BadgeDescription sql.NullString `db:"badge_description"`
	CreatedBy        sql.NullString `db:"created_by"`
	PublishedAt      sql.NullTime   `db:"published_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

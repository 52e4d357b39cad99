package seedmodels

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"guardians/internal/domain"

	"gopkg.in/yaml.v3"
)

// SeedQuestion defines the structure for a question in the YAML seed file.
type SeedQuestion struct {
	ID            string   `yaml:"id"`
	Prompt        string   `yaml:"prompt"`
	Kind          string   `yaml:"kind"`
	Options       []string `yaml:"options"`
	CorrectAnswer string   `yaml:"correct_answer"`
	Explanation   string   `yaml:"explanation"`
	Points        int      `yaml:"points"`
}

// SeedQuiz defines the structure for a quiz in the YAML seed file.
type SeedQuiz struct {
	Title            string         `yaml:"title"`
	Description      string         `yaml:"description"`
	Category         string         `yaml:"category"`
	Difficulty       string         `yaml:"difficulty"`
	TimeLimit        int            `yaml:"time_limit"`
	PassingScore     *int           `yaml:"passing_score"`
	MaxAttempts      int            `yaml:"max_attempts"`
	Tags             []string       `yaml:"tags"`
	Instructions     string         `yaml:"instructions"`
	BadgeTitle       string         `yaml:"badge_title"`
	BadgeDescription string         `yaml:"badge_description"`
	Publish          bool           `yaml:"publish"`
	Questions        []SeedQuestion `yaml:"questions"`
}

// SeedFile is the root of the seed document.
type SeedFile struct {
	Quizzes []SeedQuiz `yaml:"quizzes"`
}

// Load reads a seed file. Unknown keys are rejected so typos do not silently drop fields.
func Load(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*SeedFile, error) {
	var file SeedFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &file, nil
}

// ToDomain converts the seed entry into a quiz ready for creation.
func (s SeedQuiz) ToDomain() *domain.Quiz {
	passingScore := domain.DefaultPassingScore
	if s.PassingScore != nil {
		passingScore = *s.PassingScore
	}
	questions := make([]domain.Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		questions = append(questions, domain.Question{
			ID:            q.ID,
			Prompt:        q.Prompt,
			Kind:          domain.QuestionKind(q.Kind),
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			Points:        q.Points,
		})
	}
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Quiz{
		Title:            s.Title,
		Description:      s.Description,
		Category:         s.Category,
		Difficulty:       domain.Difficulty(s.Difficulty),
		Questions:        questions,
		TimeLimit:        s.TimeLimit,
		PassingScore:     passingScore,
		MaxAttempts:      s.MaxAttempts,
		Tags:             tags,
		Instructions:     s.Instructions,
		BadgeTitle:       s.BadgeTitle,
		BadgeDescription: s.BadgeDescription,
	}
}

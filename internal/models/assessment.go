package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AssessmentType enumerates the gradeable unit kinds.
type AssessmentType string

const (
	AssessmentAssignment AssessmentType = "assignment"
	AssessmentQuiz       AssessmentType = "quiz"
	AssessmentExam       AssessmentType = "exam"
)

// QuestionType tags the question union. Only multiple-choice questions are
// auto-gradeable; text questions always require manual grading.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionText           QuestionType = "text"
)

// Question is one entry of an assessment's question list. Options and
// CorrectAnswerIndex are only meaningful for multiple-choice questions.
type Question struct {
	ID                 string       `json:"id"`
	Type               QuestionType `json:"type"`
	Text               string       `json:"text"`
	Options            []string     `json:"options,omitempty"`
	CorrectAnswerIndex *int         `json:"correct_answer_index,omitempty"`
	Points             int          `json:"points"`
}

// QuestionList is stored as a JSONB column on assessments.
type QuestionList []Question

// Value implements driver.Valuer.
func (q QuestionList) Value() (driver.Value, error) {
	if q == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (q *QuestionList) Scan(src interface{}) error {
	if src == nil {
		*q = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported questions column type %T", src)
	}
	return json.Unmarshal(raw, q)
}

// TotalPoints sums the points of every question in the list.
func (q QuestionList) TotalPoints() int {
	total := 0
	for _, question := range q {
		total += question.Points
	}
	return total
}

// Assessment is a gradeable unit belonging to a module.
type Assessment struct {
	ID          string         `db:"id" json:"id"`
	ModuleID    string         `db:"module_id" json:"module_id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Type        AssessmentType `db:"assessment_type" json:"assessment_type"`
	Questions   QuestionList   `db:"questions" json:"questions"`
	TotalPoints int            `db:"total_points" json:"total_points"`
	DueDate     *time.Time     `db:"due_date" json:"due_date,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionStatus describes where a submission sits in its one-directional
// grading flow: Submitted -> AutoGraded -> Graded -> Adjusted.
type SubmissionStatus string

const (
	SubmissionSubmitted  SubmissionStatus = "submitted"
	SubmissionAutoGraded SubmissionStatus = "auto_graded"
	SubmissionGraded     SubmissionStatus = "graded"
	SubmissionAdjusted   SubmissionStatus = "adjusted"
)

// AnswerMap keys a learner's answers by question id. Stored as JSONB.
type AnswerMap map[string]string

// Value implements driver.Valuer.
func (a AnswerMap) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (a *AnswerMap) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported answers column type %T", src)
	}
	return json.Unmarshal(raw, a)
}

// Submission is one learner's attempt at an assessment. AutoGrade is computed
// at submit time from the multiple-choice questions; Grade is entered by the
// facilitator and stays nil until then.
type Submission struct {
	ID           string           `db:"id" json:"id"`
	AssessmentID string           `db:"assessment_id" json:"assessment_id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	Answers      AnswerMap        `db:"answers" json:"answers"`
	AutoGrade    int              `db:"auto_grade" json:"auto_grade"`
	Grade        *float64         `db:"grade" json:"grade,omitempty"`
	Feedback     *string          `db:"feedback" json:"feedback,omitempty"`
	FileURL      *string          `db:"file_url" json:"file_url,omitempty"`
	Status       SubmissionStatus `db:"status" json:"status"`
	SubmittedAt  time.Time        `db:"submitted_at" json:"submitted_at"`
	GradedAt     *time.Time       `db:"graded_at" json:"graded_at,omitempty"`
}

// SubmissionFilter captures listing criteria for submissions.
type SubmissionFilter struct {
	AssessmentID string
	StudentID    string
	CourseID     string
	PendingOnly  bool
}

package service

import (
	"strconv"
	"strings"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

// Score computes the automatic point total for a set of answers. Only
// multiple-choice questions with a valid answer key are scored; text questions
// require manual grading and contribute nothing. Missing answers count as
// incorrect, never as an error. The result is stored as auto_grade, distinct
// from the facilitator-entered grade.
func Score(questions models.QuestionList, answers models.AnswerMap) int {
	total := 0
	for _, q := range questions {
		switch q.Type {
		case models.QuestionMultipleChoice:
			if q.CorrectAnswerIndex == nil {
				continue
			}
			idx := *q.CorrectAnswerIndex
			if idx < 0 || idx >= len(q.Options) {
				continue
			}
			answer, ok := answers[q.ID]
			if !ok {
				continue
			}
			// Clients record either the chosen option text or its index.
			if answer == q.Options[idx] || answer == strconv.Itoa(idx) {
				total += q.Points
			}
		case models.QuestionText:
			// manual grading only
		}
	}
	return total
}

// MaxAutoScore is the ceiling Score can reach: the point sum of all
// auto-gradeable questions.
func MaxAutoScore(questions models.QuestionList) int {
	total := 0
	for _, q := range questions {
		if q.Type == models.QuestionMultipleChoice && q.CorrectAnswerIndex != nil {
			total += q.Points
		}
	}
	return total
}

// ValidateAnswers requires a non-empty recorded answer for every question
// before a submission is accepted. It returns an IncompleteAnswersError naming
// the offending question ids. Enforced by the submission flow, not by Score.
func ValidateAnswers(questions models.QuestionList, answers models.AnswerMap) error {
	var missing []string
	for _, q := range questions {
		if strings.TrimSpace(answers[q.ID]) == "" {
			missing = append(missing, q.ID)
		}
	}
	if len(missing) > 0 {
		return &appErrors.IncompleteAnswersError{QuestionIDs: missing}
	}
	return nil
}

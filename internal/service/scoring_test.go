package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

func sampleQuestions() models.QuestionList {
	return models.QuestionList{
		{ID: "q1", Type: models.QuestionMultipleChoice, Text: "Pick B", Options: []string{"A", "B", "C"}, CorrectAnswerIndex: intPtr(1), Points: 10},
		{ID: "q2", Type: models.QuestionText, Text: "Explain", Points: 5},
	}
}

func TestScoreCorrectChoiceEarnsPoints(t *testing.T) {
	score := Score(sampleQuestions(), models.AnswerMap{"q1": "B", "q2": "because"})
	assert.Equal(t, 10, score)
}

func TestScoreAcceptsIndexForm(t *testing.T) {
	score := Score(sampleQuestions(), models.AnswerMap{"q1": "1"})
	assert.Equal(t, 10, score)
}

func TestScoreTextQuestionsNeverAutoScored(t *testing.T) {
	questions := models.QuestionList{
		{ID: "q1", Type: models.QuestionText, Text: "Essay", Points: 50},
	}
	score := Score(questions, models.AnswerMap{"q1": "a thorough essay"})
	assert.Equal(t, 0, score)
}

func TestScoreEmptyAnswersIsZero(t *testing.T) {
	assert.Equal(t, 0, Score(sampleQuestions(), models.AnswerMap{}))
	assert.Equal(t, 0, Score(sampleQuestions(), nil))
}

func TestScoreWrongAnswerIsZero(t *testing.T) {
	assert.Equal(t, 0, Score(sampleQuestions(), models.AnswerMap{"q1": "A"}))
}

func TestScoreUnansweredQuestionContributesZero(t *testing.T) {
	// q1 answered correctly, q2 unanswered: only q1 counts.
	score := Score(sampleQuestions(), models.AnswerMap{"q1": "B"})
	assert.Equal(t, 10, score)
}

func TestScoreAllCorrectReachesMax(t *testing.T) {
	questions := models.QuestionList{
		{ID: "q1", Type: models.QuestionMultipleChoice, Options: []string{"A", "B"}, CorrectAnswerIndex: intPtr(0), Points: 10},
		{ID: "q2", Type: models.QuestionMultipleChoice, Options: []string{"A", "B"}, CorrectAnswerIndex: intPtr(1), Points: 15},
	}
	score := Score(questions, models.AnswerMap{"q1": "A", "q2": "B"})
	assert.Equal(t, 25, score)
	assert.Equal(t, MaxAutoScore(questions), score)
}

func TestScoreNeverExceedsChoicePointSum(t *testing.T) {
	questions := sampleQuestions()
	answers := models.AnswerMap{"q1": "B", "q2": "text answer worth nothing automatically"}
	score := Score(questions, answers)
	assert.LessOrEqual(t, score, MaxAutoScore(questions))
	assert.GreaterOrEqual(t, score, 0)
}

func TestScoreIgnoresInvalidAnswerKey(t *testing.T) {
	questions := models.QuestionList{
		{ID: "q1", Type: models.QuestionMultipleChoice, Options: []string{"A"}, CorrectAnswerIndex: intPtr(5), Points: 10},
		{ID: "q2", Type: models.QuestionMultipleChoice, Options: []string{"A", "B"}, Points: 10},
	}
	assert.Equal(t, 0, Score(questions, models.AnswerMap{"q1": "A", "q2": "A"}))
}

func TestValidateAnswersComplete(t *testing.T) {
	err := ValidateAnswers(sampleQuestions(), models.AnswerMap{"q1": "B", "q2": "because"})
	require.NoError(t, err)
}

func TestValidateAnswersReportsMissingIDs(t *testing.T) {
	err := ValidateAnswers(sampleQuestions(), models.AnswerMap{"q2": "   "})
	require.Error(t, err)

	var incomplete *appErrors.IncompleteAnswersError
	require.ErrorAs(t, err, &incomplete)
	assert.ElementsMatch(t, []string{"q1", "q2"}, incomplete.QuestionIDs)
}

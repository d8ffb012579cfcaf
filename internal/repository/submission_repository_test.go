package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/edulane/lms-api/internal/models"
)

func newSubmissionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubmissionRepositoryExists(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM submissions WHERE assessment_id = $1 AND student_id = $2")).
		WithArgs("asmt-1", "stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sub-1"))

	exists, err := repo.Exists(context.Background(), "asmt-1", "stu-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryExistsNoRows(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM submissions WHERE assessment_id = $1 AND student_id = $2")).
		WithArgs("asmt-1", "stu-2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	exists, err := repo.Exists(context.Background(), "asmt-1", "stu-2")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListSubmittedAssessmentIDs(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	rows := sqlmock.NewRows([]string{"assessment_id"}).AddRow("asmt-1").AddRow("asmt-2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.assessment_id FROM submissions s JOIN assessments a ON a.id = s.assessment_id WHERE s.student_id = $1 AND a.module_id = $2")).
		WithArgs("stu-1", "mod-1").
		WillReturnRows(rows)

	ids, err := repo.ListSubmittedAssessmentIDs(context.Background(), "stu-1", "mod-1")
	require.NoError(t, err)
	require.Equal(t, []string{"asmt-1", "asmt-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositorySetGrade(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	gradedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET grade = $1, feedback = $2, graded_at = $3, status = $4 WHERE id = $5")).
		WithArgs(88.5, "solid work", gradedAt, models.SubmissionGraded, "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetGrade(context.Background(), "sub-1", 88.5, "solid work", gradedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryAdjustGrade(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET grade = $1, status = $2 WHERE id = $3")).
		WithArgs(100.0, models.SubmissionAdjusted, "sub-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AdjustGrade(context.Background(), "sub-2", 100.0))
	require.NoError(t, mock.ExpectationsWereMet())
}

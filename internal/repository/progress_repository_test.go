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

func newProgressRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProgressRepositoryUpsertResourceView(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	view := &models.ResourceView{
		ResourceID: "res-1",
		StudentID:  "stu-1",
		ViewedAt:   time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO resource_views")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertResourceView(context.Background(), view))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryUpsertResourceViewDuplicate(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	// ON CONFLICT DO NOTHING: a repeated view affects zero rows and is not
	// an error.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO resource_views")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	view := &models.ResourceView{ResourceID: "res-1", StudentID: "stu-1", ViewedAt: time.Now()}
	require.NoError(t, repo.UpsertResourceView(context.Background(), view))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryListViewedResourceIDs(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	rows := sqlmock.NewRows([]string{"resource_id"}).AddRow("res-1").AddRow("res-3")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT v.resource_id FROM resource_views v JOIN resources res ON res.id = v.resource_id WHERE v.student_id = $1 AND res.module_id = $2")).
		WithArgs("stu-1", "mod-1").
		WillReturnRows(rows)

	ids, err := repo.ListViewedResourceIDs(context.Background(), "stu-1", "mod-1")
	require.NoError(t, err)
	require.Equal(t, []string{"res-1", "res-3"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

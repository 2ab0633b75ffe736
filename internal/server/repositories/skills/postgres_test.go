package skills

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`^SELECT\s+id,\s*name,\s*category\s+FROM\s+skills\s+ORDER\s+BY`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category"}).
			AddRow("s1", "Go", "backend").
			AddRow("s2", "Figma", "design"))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Skill{{ID: "s1", Name: "Go", Category: "backend"}, {ID: "s2", Name: "Figma", Category: "design"}}, got)
}

func TestListForUser_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`JOIN\s+user_skills`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category"}))

	got, err := repo.ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListForUser_RowError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`JOIN\s+user_skills`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category"}).
			AddRow("s1", "Go", "backend").
			RowError(0, errors.New("broken row")))

	_, err := repo.ListForUser(context.Background(), "u1")
	assert.Error(t, err)
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`^INSERT\s+INTO\s+skills`).WithArgs("Go", "backend").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.Skill{Name: "Go", Category: "backend"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestAddRemove(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^INSERT\s+INTO\s+user_skills.*ON\s+CONFLICT\s+DO\s+NOTHING$`).
		WithArgs("u1", "s1").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.Add(context.Background(), "u1", "s1"))

	mock.ExpectExec(`^INSERT\s+INTO\s+user_skills`).
		WithArgs("u1", "nope").WillReturnError(&pgconn.PgError{Code: "23503"})
	assert.ErrorIs(t, repo.Add(context.Background(), "u1", "nope"), common.ErrorNotFound)

	mock.ExpectExec(`^DELETE\s+FROM\s+user_skills\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+skill_id\s*=\s*\$2$`).
		WithArgs("u1", "s1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Remove(context.Background(), "u1", "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

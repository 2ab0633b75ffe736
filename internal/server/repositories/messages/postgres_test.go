package messages

import (
	"context"
	"errors"
	"testing"
	"time"

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

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`^INSERT\s+INTO\s+team_messages\s*\(team_id,\s*user_id,\s*body\)`).
		WithArgs("t1", "u1", "hello").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("m1", now))

	m, err := repo.Create(context.Background(), &models.Message{TeamID: "t1", UserID: "u1", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, now, m.CreatedAt)
}

func TestCreate_UnknownTeam(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`^INSERT\s+INTO\s+team_messages`).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := repo.Create(context.Background(), &models.Message{TeamID: "nope", UserID: "u1", Body: "x"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListRecent(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	t0 := time.Now()

	mock.ExpectQuery(`FROM\s+team_messages\s+WHERE\s+team_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$2`).
		WithArgs("t1", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_id", "user_id", "body", "created_at"}).
			AddRow("m1", "t1", "u1", "first", t0).
			AddRow("m2", "t1", "u2", "second", t0.Add(time.Second)))

	got, err := repo.ListRecent(context.Background(), "t1", 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Body)
	assert.Equal(t, "second", got[1].Body)
}

func TestListRecent_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+team_messages`).WillReturnError(errors.New("db err"))

	_, err := repo.ListRecent(context.Background(), "t1", 10)
	assert.EqualError(t, err, "db error: db err")
}

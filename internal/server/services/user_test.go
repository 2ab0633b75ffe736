package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T, db *sql.DB, store *memStore, pub EventPublisher) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:       "k",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 2 * time.Hour,
	}
	s := NewUserService(db, &fakeManager{store}, cfg, pub, logging.Nop())
	s.bcryptCost = bcrypt.MinCost
	return s
}

func TestUserService_SignUp(t *testing.T) {
	db, mock := newMockDB(t)
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := newUserService(t, db, store, pub)

	mock.ExpectBegin()
	mock.ExpectCommit()

	pair, err := svc.SignUp(context.Background(), "  Ann.Smith@Example.com ", "password123", "")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.Len(t, pair.RefreshToken, 64)
	require.NoError(t, mock.ExpectationsWereMet())

	u := store.users["u-1"]
	require.NotNil(t, u)
	assert.Equal(t, "ann.smith@example.com", u.Email)
	assert.Equal(t, common.RoleUser, u.Role)
	assert.Equal(t, "ann_smith", store.profiles[u.ID].Username)
	assert.Equal(t, 1, store.tokensOf(u.ID))

	session, err := svc.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, session.UserID)
	assert.Equal(t, []portal.EventType{portal.EventSignedIn}, pub.types())
}

func TestUserService_SignUp_Validation(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newUserService(t, db, newMemStore(), nil)

	tests := []struct {
		name, email, password, handle string
	}{
		{"bad email", "not-an-email", "password123", "bob"},
		{"short password", "bob@example.com", "short", "bob"},
		{"short handle", "bob@example.com", "password123", "b!"},
		{"long handle", "bob@example.com", "password123", "abcdefghijklmnopqrstuvwxyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(context.Background(), tt.email, tt.password, tt.handle)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestUserService_SignUp_RollsBackOnProfileError(t *testing.T) {
	db, mock := newMockDB(t)
	store := newMemStore()
	store.fail["Profiles.Create"] = common.ErrorAlreadyExists
	pub := &recordingPublisher{}
	svc := newUserService(t, db, store, pub)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.SignUp(context.Background(), "ann@example.com", "password123", "ann")
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, pub.types())
}

func signUp(t *testing.T, svc *UserService, mock sqlmock.Sqlmock, email string) *TokenPair {
	t.Helper()
	mock.ExpectBegin()
	mock.ExpectCommit()
	pair, err := svc.SignUp(context.Background(), email, "password123", "")
	require.NoError(t, err)
	return pair
}

func TestUserService_Login(t *testing.T) {
	db, mock := newMockDB(t)
	store := newMemStore()
	svc := newUserService(t, db, store, nil)
	signUp(t, svc, mock, "ann@example.com")

	pair, err := svc.Login(context.Background(), "ANN@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	_, err = svc.Login(context.Background(), "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = svc.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_RefreshToken_Rotates(t *testing.T) {
	db, mock := newMockDB(t)
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := newUserService(t, db, store, pub)
	first := signUp(t, svc, mock, "ann@example.com")

	mock.ExpectBegin()
	mock.ExpectCommit()
	second, err := svc.RefreshToken(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.RefreshToken(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, []portal.EventType{portal.EventSignedIn, portal.EventTokenRefreshed}, pub.types())
}

func TestUserService_RefreshToken_Expired(t *testing.T) {
	db, mock := newMockDB(t)
	store := newMemStore()
	svc := newUserService(t, db, store, nil)
	require.NoError(t, memTokens{store}.Create(context.Background(), "u-1", "stale", time.Now().Add(-time.Minute)))

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.RefreshToken(context.Background(), "stale")
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Zero(t, store.tokensOf("u-1"))
}

func TestUserService_Logout(t *testing.T) {
	db, mock := newMockDB(t)
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := newUserService(t, db, store, pub)
	pair := signUp(t, svc, mock, "ann@example.com")
	session, err := svc.Authenticate(pair.AccessToken)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Logout(context.Background(), "someone-else", pair.RefreshToken), common.ErrorForbidden)
	require.Equal(t, 1, store.tokensOf(session.UserID))

	require.NoError(t, svc.Logout(context.Background(), session.UserID, pair.RefreshToken))
	assert.Zero(t, store.tokensOf(session.UserID))

	// a second logout with the same token is a no-op
	require.NoError(t, svc.Logout(context.Background(), session.UserID, pair.RefreshToken))
	assert.Equal(t, portal.EventSignedOut, pub.types()[len(pub.types())-1])
}

func TestUserService_Logout_AllTokens(t *testing.T) {
	db, mock := newMockDB(t)
	store := newMemStore()
	svc := newUserService(t, db, store, nil)
	signUp(t, svc, mock, "ann@example.com")
	_, err := svc.Login(context.Background(), "ann@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, 2, store.tokensOf("u-1"))

	require.NoError(t, svc.Logout(context.Background(), "u-1", ""))
	assert.Zero(t, store.tokensOf("u-1"))
}

func TestUserService_Authenticate_Invalid(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newUserService(t, db, newMemStore(), nil)

	_, err := svc.Authenticate("garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestUserService_BootstrapAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("empty email is a no-op", func(t *testing.T) {
		db, _ := newMockDB(t)
		svc := newUserService(t, db, newMemStore(), nil)
		require.NoError(t, svc.BootstrapAdmin(ctx, "", ""))
	})

	t.Run("creates missing admin", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := newMemStore()
		svc := newUserService(t, db, store, nil)
		mock.ExpectBegin()
		mock.ExpectCommit()

		require.NoError(t, svc.BootstrapAdmin(ctx, "root@example.com", "password123"))
		u, err := svc.Me(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, common.RoleSuperAdmin, u.Role)
	})

	t.Run("promotes existing user", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := newMemStore()
		svc := newUserService(t, db, store, nil)
		signUp(t, svc, mock, "ann@example.com")

		require.NoError(t, svc.BootstrapAdmin(ctx, "ann@example.com", "ignored"))
		assert.Equal(t, common.RoleSuperAdmin, store.users["u-1"].Role)
	})

	t.Run("short password fails", func(t *testing.T) {
		db, _ := newMockDB(t)
		svc := newUserService(t, db, newMemStore(), nil)
		err := svc.BootstrapAdmin(ctx, "root@example.com", "x")
		assert.True(t, errors.Is(err, common.ErrorValidation))
	})
}

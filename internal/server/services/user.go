// Package services contains the portal's server-side business logic. This
// file implements UserService: sign-up, sign-in, refresh token rotation,
// sign-out and the bootstrap super-admin.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/portal/username"
	"github.com/dmitrijs2005/studioportal/internal/server/auth"
	"github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	events      EventPublisher
	log         logging.Logger
	validate    *validator.Validate

	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, events EventPublisher, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		events:      publisherOrNop(events),
		log:         log,
		validate:    validator.New(),
		jwtSecret:   []byte(cfg.SecretKey),
		accessTTL:   cfg.AccessTokenTTL,
		refreshTTL:  cfg.RefreshTokenTTL,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

// SignUp creates a user and its profile in one transaction and signs the user
// in. An empty handle is derived from the email's local part.
func (s *UserService) SignUp(ctx context.Context, email, password, handle string) (*TokenPair, error) {
	return s.register(ctx, email, password, handle, common.RoleUser)
}

func (s *UserService) register(ctx context.Context, email, password, handle, role string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLen)
	}

	var (
		name string
		err  error
	)
	if strings.TrimSpace(handle) == "" {
		name, err = username.FromEmail(email)
	} else {
		name, err = username.Sanitize(handle)
	}
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var (
		user *models.User
		pair *TokenPair
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: email, PasswordHash: hash, Role: role})
		if err != nil {
			return err
		}
		user = u

		if err := s.repomanager.Profiles(tx).Create(ctx, &models.Profile{ID: u.ID, Username: name, DisplayName: name}); err != nil {
			return err
		}

		pair, err = s.generateTokenPair(ctx, u, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishAuth(user.ID, portal.EventSignedIn, sessionOf(user, pair.ExpiresAt))
	return pair, nil
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, user, s.db)
	if err != nil {
		return nil, err
	}

	s.publishAuth(user.ID, portal.EventSignedIn, sessionOf(user, pair.ExpiresAt))
	return pair, nil
}

// RefreshToken rotates refreshToken inside a transaction. An unknown or
// already rotated token yields common.ErrInvalidToken; an expired one is
// consumed and yields common.ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var (
		user    *models.User
		pair    *TokenPair
		expired bool
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}
		if token.Expires.Before(time.Now()) {
			expired = true
			return nil
		}

		user, err = s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return err
		}
		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, common.ErrRefreshTokenExpired
	}

	s.publishAuth(user.ID, portal.EventTokenRefreshed, sessionOf(user, pair.ExpiresAt))
	return pair, nil
}

// Logout revokes refreshToken, or every token of the user when it is empty.
func (s *UserService) Logout(ctx context.Context, userID, refreshToken string) error {
	repo := s.repomanager.RefreshTokens(s.db)

	if refreshToken == "" {
		if err := repo.DeleteByUser(ctx, userID); err != nil {
			return err
		}
	} else {
		token, err := repo.Find(ctx, refreshToken)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			// already gone
		case err != nil:
			return err
		case token.UserID != userID:
			return common.ErrorForbidden
		default:
			if err := repo.Delete(ctx, refreshToken); err != nil {
				return err
			}
		}
	}

	s.publishAuth(userID, portal.EventSignedOut, nil)
	return nil
}

// Authenticate verifies an access token and returns its session.
func (s *UserService) Authenticate(accessToken string) (*portal.Session, error) {
	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return claims.Session(), nil
}

// Me returns the stored account of userID.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// BootstrapAdmin makes email a super-admin, creating the account with
// password when it does not exist yet. An empty email is a no-op.
func (s *UserService) BootstrapAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role == common.RoleSuperAdmin {
			return nil
		}
		if err := s.repomanager.Users(s.db).SetRole(ctx, user.ID, common.RoleSuperAdmin); err != nil {
			return err
		}
		s.log.Info(ctx, "promoted bootstrap admin", "email", email)
		return nil
	case errors.Is(err, common.ErrorNotFound):
		if _, err := s.register(ctx, email, password, "", common.RoleSuperAdmin); err != nil {
			return fmt.Errorf("create bootstrap admin: %w", err)
		}
		s.log.Info(ctx, "created bootstrap admin", "email", email)
		return nil
	default:
		return err
	}
}

func (s *UserService) publishAuth(userID string, typ portal.EventType, session *portal.Session) {
	s.events.Publish(portal.AuthTopic(userID), portal.Event{
		Type:    typ,
		Topic:   portal.AuthTopic(userID),
		Session: session,
	})
}

func sessionOf(u *models.User, expires time.Time) *portal.Session {
	return &portal.Session{UserID: u.ID, Email: u.Email, Role: u.Role, ExpiresAt: expires}
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, expires, err := auth.GenerateToken(user.ID, user.Email, user.Role, s.jwtSecret, s.accessTTL)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refresh, time.Now().Add(s.refreshTTL)); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expires}, nil
}

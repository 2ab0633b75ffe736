// Package auth is the CLI's authentication service: sign-in, sign-up and
// sign-out against the portal, the current session, and an ordered stream
// of auth changes that the session store subscribes to.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/studioportal/internal/client/client"
	"github.com/dmitrijs2005/studioportal/internal/client/models"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/pubsub"
)

// Topic is the local broker topic auth changes are published on.
const Topic = "auth"

// API is the part of *client.Client the service needs.
type API interface {
	SignUp(ctx context.Context, email, password, username string) (models.TokenPair, error)
	Login(ctx context.Context, email, password string) (models.TokenPair, error)
	Logout(ctx context.Context) error
	Session(ctx context.Context) (*models.SessionInfo, error)
	Subscribe(ctx context.Context, topic string) (*client.Subscription, error)
}

type Service struct {
	api    API
	broker *pubsub.Broker[portal.Event]
	log    logging.Logger

	mu   sync.Mutex
	last *portal.Session
}

func NewService(api API, log logging.Logger) *Service {
	return &Service{
		api:    api,
		broker: pubsub.New[portal.Event](pubsub.DefaultBuffer),
		log:    log,
	}
}

// Subscribe returns the ordered stream of auth changes. A subscriber that
// falls more than pubsub.DefaultBuffer events behind is evicted.
func (s *Service) Subscribe() (*pubsub.Subscription[portal.Event], error) {
	return s.broker.Subscribe(Topic)
}

func (s *Service) publish(typ portal.EventType, session *portal.Session) {
	s.mu.Lock()
	s.last = session
	s.mu.Unlock()
	s.broker.Publish(Topic, portal.Event{Type: typ, Topic: Topic, Session: session})
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*portal.Session, error) {
	if _, err := s.api.Login(ctx, email, password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.signedIn(ctx)
}

func (s *Service) SignUp(ctx context.Context, email, password, username string) (*portal.Session, error) {
	if _, err := s.api.SignUp(ctx, email, password, username); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return s.signedIn(ctx)
}

func (s *Service) signedIn(ctx context.Context) (*portal.Session, error) {
	info, err := s.api.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	s.publish(portal.EventSignedIn, info.Session)
	return info.Session, nil
}

// SignOut revokes the server-side refresh token and forgets local
// credentials. Subscribers see SignedOut even when the server call failed.
func (s *Service) SignOut(ctx context.Context) error {
	err := s.api.Logout(ctx)
	s.publish(portal.EventSignedOut, nil)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// CurrentSession fetches the session of the stored credentials, refreshing
// an expired access token on the way. Missing or rejected credentials give
// (nil, nil); transport errors are returned.
func (s *Service) CurrentSession(ctx context.Context) (*portal.Session, error) {
	info, err := s.api.Session(ctx)
	switch {
	case err == nil:
		s.mu.Lock()
		s.last = info.Session
		s.mu.Unlock()
		return info.Session, nil
	case client.IsAuthError(err):
		s.log.Debug(ctx, "no usable session", "error", err)
		s.mu.Lock()
		s.last = nil
		s.mu.Unlock()
		return nil, nil
	default:
		return nil, err
	}
}

// TokenRefreshed is the client refresh hook. It publishes the last known
// session with the new expiry.
func (s *Service) TokenRefreshed(_ context.Context, pair models.TokenPair) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return
	}
	next := *last
	next.ExpiresAt = pair.ExpiresAt
	s.publish(portal.EventTokenRefreshed, &next)
}

// Follow relays auth changes made elsewhere (another device signing out, a
// profile edit) from the server's auth topic of userID until ctx ends. Each
// remote event triggers a session refetch, so only changes that affect these
// credentials are published.
func (s *Service) Follow(ctx context.Context, userID string) error {
	sub, err := s.api.Subscribe(ctx, portal.AuthTopic(userID))
	if err != nil {
		return err
	}
	defer sub.Close()

	for ev := range sub.C {
		session, err := s.CurrentSession(ctx)
		if err != nil {
			s.log.Warn(ctx, "session refetch failed", "event", ev.Type, "error", err)
			continue
		}
		if session == nil {
			s.publish(portal.EventSignedOut, nil)
			return nil
		}
		typ := ev.Type
		if typ == portal.EventSignedOut {
			// Another device's token was revoked; ours still works.
			typ = portal.EventUserUpdated
		}
		s.publish(typ, session)
	}
	if err := sub.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close ends every subscription.
func (s *Service) Close() {
	s.broker.Close()
}

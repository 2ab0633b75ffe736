package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/portal/username"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
)

// ProfileUpdate is an owner's edit of their profile. Nil fields are kept.
type ProfileUpdate struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
}

const (
	maxDisplayName = 80
	maxBio         = 1000
)

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	events      EventPublisher
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, events EventPublisher) *ProfileService {
	return &ProfileService{db: db, repomanager: m, events: publisherOrNop(events)}
}

// Get returns any profile; profiles are public within the portal.
func (s *ProfileService) Get(ctx context.Context, id string) (*portal.Profile, error) {
	p, err := s.repomanager.Profiles(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Portal(), nil
}

// requireOwner is the single place the profile/session identity is checked.
func requireOwner(actor *portal.Session, profileID string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if profileID != actor.UserID {
		return common.ErrorForbidden
	}
	return nil
}

func (s *ProfileService) Update(ctx context.Context, actor *portal.Session, profileID string, upd ProfileUpdate) (*portal.Profile, error) {
	if err := requireOwner(actor, profileID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Profiles(s.db)
	current, err := repo.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	next := *current
	if upd.Username != nil {
		name, err := username.Sanitize(*upd.Username)
		if err != nil {
			return nil, err
		}
		next.Username = name
	}
	if upd.DisplayName != nil {
		next.DisplayName = strings.TrimSpace(*upd.DisplayName)
		if len(next.DisplayName) > maxDisplayName {
			return nil, common.ErrorValidation
		}
	}
	if upd.Bio != nil {
		next.Bio = strings.TrimSpace(*upd.Bio)
		if len(next.Bio) > maxBio {
			return nil, common.ErrorValidation
		}
	}

	saved, err := repo.Update(ctx, &next)
	if err != nil {
		return nil, err
	}

	s.userUpdated(actor)
	return saved.Portal(), nil
}

func (s *ProfileService) MarkWelcomeSeen(ctx context.Context, actor *portal.Session) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	return s.repomanager.Profiles(s.db).MarkWelcomeSeen(ctx, actor.UserID)
}

// SetAvatar stores url as the actor's avatar.
func (s *ProfileService) SetAvatar(ctx context.Context, actor *portal.Session, url string) (*portal.Profile, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	repo := s.repomanager.Profiles(s.db)
	if err := repo.SetAvatar(ctx, actor.UserID, url); err != nil {
		return nil, err
	}
	p, err := repo.Get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	s.userUpdated(actor)
	return p.Portal(), nil
}

func (s *ProfileService) userUpdated(actor *portal.Session) {
	topic := portal.AuthTopic(actor.UserID)
	session := *actor
	s.events.Publish(topic, portal.Event{Type: portal.EventUserUpdated, Topic: topic, Session: &session})
}

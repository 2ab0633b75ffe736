package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
	maxMessageLen       = 4000
)

type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	teams       *TeamService
	events      EventPublisher
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, teams *TeamService, events EventPublisher) *MessageService {
	return &MessageService{db: db, repomanager: m, teams: teams, events: publisherOrNop(events)}
}

func (s *MessageService) List(ctx context.Context, actor *portal.Session, teamID string, limit int) ([]models.Message, error) {
	if err := s.teams.RequireAccess(ctx, actor, teamID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	return s.repomanager.Messages(s.db).ListRecent(ctx, teamID, limit)
}

// Post stores body and publishes it to the team topic.
func (s *MessageService) Post(ctx context.Context, actor *portal.Session, teamID, body string) (*models.Message, error) {
	if err := s.teams.RequireAccess(ctx, actor, teamID); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxMessageLen {
		return nil, common.ErrorValidation
	}

	msg, err := s.repomanager.Messages(s.db).Create(ctx, &models.Message{TeamID: teamID, UserID: actor.UserID, Body: body})
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, common.ErrorInternal
	}
	topic := portal.TeamTopic(teamID)
	s.events.Publish(topic, portal.Event{Type: portal.EventMessageInserted, Topic: topic, Payload: payload})
	return msg, nil
}

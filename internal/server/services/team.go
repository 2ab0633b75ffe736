package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
)

const defaultMemberRole = "member"

type TeamService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTeamService(db *sql.DB, m repomanager.RepositoryManager) *TeamService {
	return &TeamService{db: db, repomanager: m}
}

func (s *TeamService) Create(ctx context.Context, actor *portal.Session, name, description string) (*models.Team, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrorValidation
	}
	return s.repomanager.Teams(s.db).Create(ctx, &models.Team{Name: name, Description: strings.TrimSpace(description)})
}

func (s *TeamService) AddMember(ctx context.Context, actor *portal.Session, teamID, userID, role string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if role == "" {
		role = defaultMemberRole
	}
	return s.repomanager.Teams(s.db).AddMember(ctx, &models.TeamMember{TeamID: teamID, UserID: userID, Role: role})
}

func (s *TeamService) RemoveMember(ctx context.Context, actor *portal.Session, teamID, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.repomanager.Teams(s.db).RemoveMember(ctx, teamID, userID)
}

// List returns every team for a super-admin and the actor's teams otherwise.
func (s *TeamService) List(ctx context.Context, actor *portal.Session) ([]models.Team, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	repo := s.repomanager.Teams(s.db)
	if isAdmin(actor) {
		return repo.ListAll(ctx)
	}
	return repo.ListForUser(ctx, actor.UserID)
}

func (s *TeamService) Members(ctx context.Context, actor *portal.Session, teamID string) ([]models.TeamMember, error) {
	if err := s.RequireAccess(ctx, actor, teamID); err != nil {
		return nil, err
	}
	return s.repomanager.Teams(s.db).Members(ctx, teamID)
}

// RequireAccess passes for super-admins and members of teamID.
func (s *TeamService) RequireAccess(ctx context.Context, actor *portal.Session, teamID string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if isAdmin(actor) {
		return nil
	}
	ok, err := s.repomanager.Teams(s.db).IsMember(ctx, teamID, actor.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorForbidden
	}
	return nil
}

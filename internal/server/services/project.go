package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/portal/branding"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
)

// ProjectInput is the writable part of a project. ColorScheme is decoded
// strictly; an empty value clears it.
type ProjectInput struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	ClientName   string          `json:"client_name"`
	ClientEmail  string          `json:"client_email" binding:"omitempty,email"`
	ClientUserID string          `json:"client_user_id"`
	TeamID       string          `json:"team_id"`
	LogoURL      string          `json:"logo_url" binding:"omitempty,url"`
	ColorScheme  json.RawMessage `json:"color_scheme"`
}

func (in ProjectInput) model() (*models.Project, error) {
	p := &models.Project{
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		ClientName:   strings.TrimSpace(in.ClientName),
		ClientEmail:  strings.TrimSpace(in.ClientEmail),
		ClientUserID: in.ClientUserID,
		TeamID:       in.TeamID,
		LogoURL:      in.LogoURL,
	}
	if p.Name == "" {
		return nil, common.ErrorValidation
	}
	if len(in.ColorScheme) > 0 && string(in.ColorScheme) != "null" {
		cs, err := branding.Decode(in.ColorScheme)
		if err != nil {
			return nil, err
		}
		p.ColorScheme = &cs
	}
	return p, nil
}

type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager) *ProjectService {
	return &ProjectService{db: db, repomanager: m}
}

func (s *ProjectService) Create(ctx context.Context, actor *portal.Session, in ProjectInput) (*models.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := in.model()
	if err != nil {
		return nil, err
	}
	return s.repomanager.Projects(s.db).Create(ctx, p)
}

func (s *ProjectService) Update(ctx context.Context, actor *portal.Session, id string, in ProjectInput) (*models.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := in.model()
	if err != nil {
		return nil, err
	}
	p.ID = id
	return s.repomanager.Projects(s.db).Update(ctx, p)
}

// List returns all projects for a super-admin, otherwise those where the
// actor is the client or on the project team.
func (s *ProjectService) List(ctx context.Context, actor *portal.Session) ([]models.Project, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	repo := s.repomanager.Projects(s.db)
	if isAdmin(actor) {
		return repo.ListAll(ctx)
	}
	return repo.ListForUser(ctx, actor.UserID)
}

func (s *ProjectService) Get(ctx context.Context, actor *portal.Session, id string) (*models.Project, error) {
	if err := s.RequireAccess(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repomanager.Projects(s.db).Get(ctx, id)
}

func (s *ProjectService) RequireAccess(ctx context.Context, actor *portal.Session, projectID string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if isAdmin(actor) {
		return nil
	}
	ok, err := s.repomanager.Projects(s.db).HasAccess(ctx, projectID, actor.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorForbidden
	}
	return nil
}

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

// FeatureService runs the request/approve workflow: requests start pending
// and a super-admin moves them to approved or rejected exactly once.
type FeatureService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	projects    *ProjectService
}

func NewFeatureService(db *sql.DB, m repomanager.RepositoryManager, projects *ProjectService) *FeatureService {
	return &FeatureService{db: db, repomanager: m, projects: projects}
}

func (s *FeatureService) Request(ctx context.Context, actor *portal.Session, projectID, title, description string) (*models.Feature, error) {
	if err := s.projects.RequireAccess(ctx, actor, projectID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, common.ErrorValidation
	}
	return s.repomanager.Features(s.db).Create(ctx, &models.Feature{
		ProjectID:   projectID,
		RequestedBy: actor.UserID,
		Title:       title,
		Description: strings.TrimSpace(description),
	})
}

func (s *FeatureService) List(ctx context.Context, actor *portal.Session, projectID string) ([]models.Feature, error) {
	if err := s.projects.RequireAccess(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.repomanager.Features(s.db).ListByProject(ctx, projectID)
}

// Decide approves or rejects a pending feature. Deciding twice yields
// common.ErrInvalidTransition.
func (s *FeatureService) Decide(ctx context.Context, actor *portal.Session, featureID string, approve bool) (*models.Feature, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	to := models.FeatureRejected
	if approve {
		to = models.FeatureApproved
	}
	return s.repomanager.Features(s.db).Transition(ctx, featureID, models.FeaturePending, to, actor.UserID)
}

// Package projects stores client projects and their branding.
package projects

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	Update(ctx context.Context, p *models.Project) (*models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	ListAll(ctx context.Context) ([]models.Project, error)
	// ListForUser returns projects where userID is the client or a member of
	// the project team.
	ListForUser(ctx context.Context, userID string) ([]models.Project, error)
	// HasAccess reports whether userID is the client or a team member of the
	// project.
	HasAccess(ctx context.Context, projectID, userID string) (bool, error)
}

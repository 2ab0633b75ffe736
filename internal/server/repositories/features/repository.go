// Package features stores feature requests raised against projects.
package features

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, f *models.Feature) (*models.Feature, error)
	Get(ctx context.Context, id string) (*models.Feature, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Feature, error)
	// Transition moves a feature from status from to status to, recording
	// who decided. It yields common.ErrInvalidTransition when the feature is
	// not currently in from.
	Transition(ctx context.Context, id, from, to, decidedBy string) (*models.Feature, error)
}

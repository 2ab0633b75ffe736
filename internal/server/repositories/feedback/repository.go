// Package feedback stores user feedback about the portal.
package feedback

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, f *models.Feedback) (*models.Feedback, error)
	List(ctx context.Context, limit int) ([]models.Feedback, error)
}

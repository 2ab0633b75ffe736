// Package skills stores the skill catalog and which users claim which skills.
package skills

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Skill, error)
	Create(ctx context.Context, s *models.Skill) (*models.Skill, error)
	ListForUser(ctx context.Context, userID string) ([]models.Skill, error)
	// Add is idempotent. An unknown skill yields common.ErrorNotFound.
	Add(ctx context.Context, userID, skillID string) error
	// Remove is idempotent.
	Remove(ctx context.Context, userID, skillID string) error
}

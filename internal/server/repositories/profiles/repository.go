// Package profiles stores the public profile attached to every user.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, id string) (*models.Profile, error)
	// Update writes username, display name and bio. A taken username yields
	// common.ErrorAlreadyExists.
	Update(ctx context.Context, p *models.Profile) (*models.Profile, error)
	SetAvatar(ctx context.Context, id, url string) error
	MarkWelcomeSeen(ctx context.Context, id string) error
}

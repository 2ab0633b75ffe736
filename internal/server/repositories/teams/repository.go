// Package teams stores teams and their memberships.
package teams

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Team) (*models.Team, error)
	Get(ctx context.Context, id string) (*models.Team, error)
	ListAll(ctx context.Context) ([]models.Team, error)
	ListForUser(ctx context.Context, userID string) ([]models.Team, error)
	AddMember(ctx context.Context, m *models.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	Members(ctx context.Context, teamID string) ([]models.TeamMember, error)
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

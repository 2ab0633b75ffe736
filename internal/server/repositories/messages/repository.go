// Package messages stores team chat messages.
package messages

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	// ListRecent returns up to limit of the newest messages, oldest first.
	ListRecent(ctx context.Context, teamID string, limit int) ([]models.Message, error)
}

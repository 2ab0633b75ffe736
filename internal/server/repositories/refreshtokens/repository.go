// Package refreshtokens declares the server-side repository contract for
// the refresh tokens backing portal sessions.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, expires time.Time) error

	// Find returns the token row or common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Consume deletes the token and returns what it held, so a token can be
	// rotated at most once. A missing token yields common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a token; deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
}

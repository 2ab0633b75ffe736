// Package models defines server-side records persisted in PostgreSQL.
package models

import (
	"time"

	"github.com/dmitrijs2005/studioportal/internal/portal"
)

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         string
	CreatedAt    time.Time
}

type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// Profile is the public face of a user; its ID is the user's ID.
type Profile struct {
	ID                 string
	Username           string
	DisplayName        string
	AvatarURL          string
	Bio                string
	HasSeenWelcomeCard bool
	UpdatedAt          time.Time
}

func (p *Profile) Portal() *portal.Profile {
	return &portal.Profile{
		ID:                 p.ID,
		Username:           p.Username,
		DisplayName:        p.DisplayName,
		AvatarURL:          p.AvatarURL,
		Bio:                p.Bio,
		HasSeenWelcomeCard: p.HasSeenWelcomeCard,
	}
}

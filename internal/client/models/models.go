// Package models defines the wire records the CLI exchanges with the portal
// server. Session and Profile live in package portal.
package models

import (
	"time"

	"github.com/dmitrijs2005/studioportal/internal/portal"
)

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Empty reports whether p carries no tokens at all.
func (p TokenPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

type SessionInfo struct {
	Session *portal.Session `json:"session"`
	Profile *portal.Profile `json:"profile,omitempty"`
}

// ProfileUpdate is a partial update; nil fields are left unchanged.
type ProfileUpdate struct {
	Username    *string `json:"username,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}

type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Message struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredObject is an uploaded (or upload-ready) object. UploadURL is set
// for presigned uploads only.
type StoredObject struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	UploadURL string    `json:"upload_url,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

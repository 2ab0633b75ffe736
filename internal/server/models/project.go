package models

import (
	"time"

	"github.com/dmitrijs2005/studioportal/internal/portal/branding"
)

const (
	FeaturePending  = "pending"
	FeatureApproved = "approved"
	FeatureRejected = "rejected"
)

// Project is a client engagement. ClientUserID and TeamID are "" when unset.
type Project struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	ClientName   string                `json:"client_name"`
	ClientEmail  string                `json:"client_email"`
	ClientUserID string                `json:"client_user_id,omitempty"`
	TeamID       string                `json:"team_id,omitempty"`
	LogoURL      string                `json:"logo_url,omitempty"`
	ColorScheme  *branding.ColorScheme `json:"color_scheme,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

type Feature struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	RequestedBy string     `json:"requested_by"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DecidedBy   string     `json:"decided_by,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Feedback struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

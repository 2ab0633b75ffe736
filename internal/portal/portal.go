// Package portal holds the identity records shared by the server, the
// client and the layout logic.
package portal

import "time"

// Session is the authenticated principal as seen by the portal.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type Profile struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	DisplayName        string `json:"display_name"`
	AvatarURL          string `json:"avatar_url"`
	Bio                string `json:"bio"`
	HasSeenWelcomeCard bool   `json:"has_seen_welcome_card"`
}

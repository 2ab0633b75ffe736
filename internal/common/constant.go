// Package common contains shared constants, sentinel errors and small helpers
// used by both the portal server and its clients.
package common

const (
	// AccessCookieName carries the access token for HTML page requests.
	AccessCookieName = "portal_access"

	// LoggingOutCookieName is a session-scoped flag set while a logout is in
	// progress. It suppresses the login redirect until the user reaches home.
	LoggingOutCookieName = "portal_logging_out"

	// LoggingOutKey is the client-side storage key for the same flag.
	LoggingOutKey = "logging_out"

	// RedirectParam is the query parameter carrying the original path on login redirects.
	RedirectParam = "redirectedFrom"

	// RoleUser and RoleSuperAdmin are the two account roles.
	RoleUser       = "user"
	RoleSuperAdmin = "super_admin"
)

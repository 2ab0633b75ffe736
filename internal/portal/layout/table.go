package layout

import "github.com/dmitrijs2005/studioportal/internal/portal/route"

type Event int

const (
	EvNotMounted Event = iota
	EvLoggingOut
	EvMinimalPath
	EvPublicPath
	EvAuthPending
	EvNoUser
	EvProfilePending
	EvProfileReady
)

func (e Event) String() string {
	switch e {
	case EvNotMounted:
		return "not-mounted"
	case EvLoggingOut:
		return "logging-out"
	case EvMinimalPath:
		return "minimal-path"
	case EvPublicPath:
		return "public-path"
	case EvAuthPending:
		return "auth-pending"
	case EvNoUser:
		return "no-user"
	case EvProfilePending:
		return "profile-pending"
	case EvProfileReady:
		return "profile-ready"
	}
	return "unknown"
}

// derive picks the single event of a render pass. Order matters: mount,
// logout flag, minimal, public/auth-flow, then the app path sub-cases.
func derive(in Input, path string, cat route.Category) Event {
	switch {
	case !in.Mounted:
		return EvNotMounted
	case in.LoggingOut && path != "/":
		return EvLoggingOut
	case cat == route.Minimal:
		return EvMinimalPath
	case cat == route.Public || cat == route.AuthFlow:
		return EvPublicPath
	case in.AuthLoading:
		return EvAuthPending
	case in.Session == nil || in.Session.UserID == "":
		return EvNoUser
	case ProfileMatches(in.Session, in.Profile):
		return EvProfileReady
	default:
		return EvProfilePending
	}
}

// anyState marks transitions valid from every state.
const anyState State = -1

type edge struct {
	from State
	ev   Event
}

var transitions = map[edge]State{
	{anyState, EvNotMounted}:  Mounting,
	{anyState, EvLoggingOut}:  LoggingOut,
	{anyState, EvMinimalPath}: MinimalLayout,
	{anyState, EvPublicPath}:  PublicLayout,

	{Mounting, EvAuthPending}:         InitializingAuth,
	{InitializingAuth, EvAuthPending}: InitializingAuth,

	{Mounting, EvProfilePending}:         LoadingProfile,
	{InitializingAuth, EvProfilePending}: LoadingProfile,
	{LoadingProfile, EvProfilePending}:   LoadingProfile,
	{AuthenticatedApp, EvProfilePending}: LoadingProfile,

	{Mounting, EvProfileReady}:         AuthenticatedApp,
	{InitializingAuth, EvProfileReady}: AuthenticatedApp,
	{LoadingProfile, EvProfileReady}:   AuthenticatedApp,
	{AuthenticatedApp, EvProfileReady}: AuthenticatedApp,

	{Mounting, EvNoUser}:           RedirectingToLogin,
	{InitializingAuth, EvNoUser}:   RedirectingToLogin,
	{LoadingProfile, EvNoUser}:     RedirectingToLogin,
	{AuthenticatedApp, EvNoUser}:   RedirectingToLogin,
	{RedirectingToLogin, EvNoUser}: RedirectingToLogin,
}

func lookup(from State, ev Event) (State, bool) {
	if to, ok := transitions[edge{from, ev}]; ok {
		return to, true
	}
	to, ok := transitions[edge{anyState, ev}]
	return to, ok
}

// next applies ev to from, restarting from Mounting when the table has no
// entry. Every event has an entry from Mounting.
func next(from State, ev Event) State {
	if to, ok := lookup(from, ev); ok {
		return to
	}
	to, _ := lookup(Mounting, ev)
	return to
}

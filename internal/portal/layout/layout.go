// Package layout decides which shell a page renders in, given the path
// category, the session and the profile state.
//
// A decision is produced by deriving one Event from the Input and looking up
// the (current state, event) pair in an explicit transition table. Pairs with
// no entry restart the machine from Mounting, the same as a navigation.
package layout

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/portal/route"
)

type State int

const (
	Mounting State = iota
	LoggingOut
	MinimalLayout
	PublicLayout
	InitializingAuth
	LoadingProfile
	AuthenticatedApp
	RedirectingToLogin
)

var stateNames = map[State]string{
	Mounting:           "mounting",
	LoggingOut:         "logging-out",
	MinimalLayout:      "minimal-layout",
	PublicLayout:       "public-layout",
	InitializingAuth:   "initializing-auth",
	LoadingProfile:     "loading-profile",
	AuthenticatedApp:   "authenticated-app",
	RedirectingToLogin: "redirecting-to-login",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether a render pass ends in s. Redirecting states end the
// pass too; the navigation that follows restarts the machine.
func (s State) Terminal() bool {
	switch s {
	case LoggingOut, MinimalLayout, PublicLayout, AuthenticatedApp, RedirectingToLogin:
		return true
	}
	return false
}

type Shell int

const (
	ShellNone Shell = iota
	ShellLoading
	ShellBare
	ShellPublic
	ShellApp
)

func (s Shell) String() string {
	switch s {
	case ShellNone:
		return "none"
	case ShellLoading:
		return "loading"
	case ShellBare:
		return "bare"
	case ShellPublic:
		return "public"
	case ShellApp:
		return "app"
	}
	return "unknown"
}

var shells = map[State]Shell{
	Mounting:           ShellNone,
	LoggingOut:         ShellLoading,
	MinimalLayout:      ShellBare,
	PublicLayout:       ShellPublic,
	InitializingAuth:   ShellLoading,
	LoadingProfile:     ShellLoading,
	AuthenticatedApp:   ShellApp,
	RedirectingToLogin: ShellNone,
}

// Input is everything a render pass knows.
type Input struct {
	Mounted    bool
	LoggingOut bool
	Path       string

	AuthLoading bool
	Session     *portal.Session

	Profile        *portal.Profile
	ProfileLoading bool
	ProfileErr     string
}

type Decision struct {
	State    State
	Category route.Category
	Shell    Shell
	// Redirect is the target of a navigation the caller must perform, or "".
	Redirect string
	// FetchProfile asks the caller to start a profile fetch for the session user.
	FetchProfile bool
	// Error is the recorded profile fetch error, surfaced while loading.
	Error string
}

// ProfileMatches reports whether p belongs to the user of s.
func ProfileMatches(s *portal.Session, p *portal.Profile) bool {
	return s != nil && p != nil && s.UserID != "" && p.ID == s.UserID
}

// Decide runs a single pass from Mounting with the default classifier.
func Decide(in Input) Decision {
	m := NewMachine(nil)
	return m.Step(context.Background(), in)
}

// Machine carries the layout state across render passes of one path.
type Machine struct {
	classifier *route.Classifier
	state      State
	path       string
}

// NewMachine returns a machine in Mounting. A nil classifier uses route.Default.
func NewMachine(c *route.Classifier) *Machine {
	if c == nil {
		c = route.Default
	}
	return &Machine{classifier: c, state: Mounting}
}

func (m *Machine) State() State { return m.state }

// Navigate restarts the machine for path.
func (m *Machine) Navigate(path string) {
	m.path = route.Normalize(path)
	m.state = Mounting
}

// Step advances the machine with in. A change of path is treated as a
// navigation.
func (m *Machine) Step(ctx context.Context, in Input) Decision {
	path := route.Normalize(in.Path)
	if path != m.path {
		m.Navigate(path)
	}

	cls := m.classifier.Classify(ctx, path)
	ev := derive(in, path, cls.Category)
	m.state = next(m.state, ev)

	return m.decision(in, path, cls.Category)
}

func (m *Machine) decision(in Input, path string, cat route.Category) Decision {
	d := Decision{
		State:    m.state,
		Category: cat,
		Shell:    shells[m.state],
	}

	switch m.state {
	case LoggingOut:
		d.Redirect = "/"
	case RedirectingToLogin:
		d.Redirect = route.LoginURL(path)
	case LoadingProfile:
		d.Error = in.ProfileErr
		d.FetchProfile = !in.ProfileLoading && in.ProfileErr == ""
	}
	return d
}

// Package navigator resolves which page the CLI shows for a path. It feeds
// the session store and profile loader into the layout machine, fetches the
// profile when asked to and follows redirects.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/client/profile"
	"github.com/dmitrijs2005/studioportal/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/studioportal/internal/client/session"
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/portal/layout"
	"github.com/dmitrijs2005/studioportal/internal/portal/route"
)

var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrTimeout          = errors.New("page did not settle in time")
)

const DefaultMaxRedirects = 5

type Sessions interface {
	Snapshot() session.Snapshot
	Changes() <-chan struct{}
	SetPath(path string)
}

type Profiles interface {
	Ensure(ctx context.Context, s *portal.Session, path string) bool
	State() profile.State
	Changes() <-chan struct{}
}

type SignOuter interface {
	SignOut(ctx context.Context) error
}

// Page is the settled result of opening a path.
type Page struct {
	Path     string
	Decision layout.Decision
	Session  *portal.Session
	Profile  *portal.Profile
	// Redirects lists the paths followed to reach Path.
	Redirects []string
}

type Options struct {
	Classifier   *route.Classifier
	Logger       logging.Logger
	Wait         time.Duration
	MaxRedirects int
}

type Navigator struct {
	sessions Sessions
	profiles Profiles
	flags    metadata.Repository
	auth     SignOuter
	machine  *layout.Machine
	log      logging.Logger
	wait     time.Duration
	max      int

	mu      sync.Mutex
	current string
	pending string
}

func New(sessions Sessions, profiles Profiles, flags metadata.Repository, auth SignOuter, opts Options) *Navigator {
	n := &Navigator{
		sessions: sessions,
		profiles: profiles,
		flags:    flags,
		auth:     auth,
		machine:  layout.NewMachine(opts.Classifier),
		log:      opts.Logger,
		wait:     opts.Wait,
		max:      opts.MaxRedirects,
		current:  "/",
	}
	if n.log == nil {
		n.log = logging.Nop()
	}
	if n.wait <= 0 {
		n.wait = 15 * time.Second
	}
	if n.max <= 0 {
		n.max = DefaultMaxRedirects
	}
	return n
}

// Current returns the path of the last settled page.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// HandleRedirect is the session store's redirect callback. It is ignored
// while a logout is in progress and when it was raised for a page other
// than the current one.
func (n *Navigator) HandleRedirect(to string) {
	ctx := context.Background()
	if n.loggingOut(ctx) {
		n.log.Debug(ctx, "redirect suppressed during logout", "to", to)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if from := redirectSource(to); from != "" && from != n.current {
		n.log.Debug(ctx, "stale redirect dropped", "to", to, "current", n.current)
		return
	}
	n.pending = to
}

func redirectSource(to string) string {
	u, err := url.Parse(to)
	if err != nil {
		return ""
	}
	from := u.Query().Get(common.RedirectParam)
	if from == "" {
		return ""
	}
	return route.Normalize(from)
}

// TakeRedirect returns and clears a redirect queued by HandleRedirect.
func (n *Navigator) TakeRedirect() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	to := n.pending
	n.pending = ""
	return to, to != ""
}

func (n *Navigator) loggingOut(ctx context.Context) bool {
	v, err := n.flags.Get(ctx, common.LoggingOutKey)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			n.log.Warn(ctx, "read logging-out flag", "error", err)
		}
		return false
	}
	return len(v) > 0
}

// Open renders path and every redirect it leads to, and returns the page
// the user ends up on.
func (n *Navigator) Open(ctx context.Context, path string) (Page, error) {
	var hops []string
	for {
		page, err := n.render(ctx, path)
		if err != nil {
			return page, err
		}
		to := page.Decision.Redirect
		if to == "" {
			page.Redirects = hops
			n.settled(ctx, page.Path)
			return page, nil
		}
		if len(hops) == n.max {
			return page, fmt.Errorf("%w: stopped at %s", ErrTooManyRedirects, to)
		}
		n.log.Debug(ctx, "redirect", "from", page.Path, "to", to)
		hops = append(hops, to)
		path = to
	}
}

func (n *Navigator) settled(ctx context.Context, path string) {
	n.mu.Lock()
	n.current = path
	n.mu.Unlock()

	if path == "/" && n.loggingOut(ctx) {
		if err := n.flags.Delete(ctx, common.LoggingOutKey); err != nil {
			n.log.Warn(ctx, "clear logging-out flag", "error", err)
		}
	}
}

// render runs layout passes for one path until the decision is terminal,
// reports a profile error or the wait timeout expires.
func (n *Navigator) render(ctx context.Context, path string) (Page, error) {
	path = route.Normalize(path)
	n.sessions.SetPath(path)
	n.machine.Navigate(path)

	timer := time.NewTimer(n.wait)
	defer timer.Stop()

	in := layout.Input{Path: path}
	page := Page{Path: path, Decision: n.machine.Step(ctx, in)}

	in.Mounted = true
	in.LoggingOut = n.loggingOut(ctx)
	for {
		snap := n.sessions.Snapshot()
		prof := n.profiles.State()
		in.AuthLoading = snap.Loading
		in.Session = snap.Session
		in.Profile = prof.Profile
		in.ProfileLoading = prof.Loading
		in.ProfileErr = prof.Err

		d := n.machine.Step(ctx, in)
		page = Page{Path: path, Decision: d, Session: in.Session, Profile: in.Profile}

		if d.FetchProfile && n.profiles.Ensure(ctx, in.Session, path) {
			continue
		}
		if d.State.Terminal() || d.Error != "" {
			return page, nil
		}

		select {
		case <-n.sessions.Changes():
		case <-n.profiles.Changes():
		case <-timer.C:
			return page, fmt.Errorf("%w: %s stuck in %s", ErrTimeout, path, d.State)
		case <-ctx.Done():
			return page, ctx.Err()
		}
	}
}

// Logout marks a logout in progress, signs out and returns to the home page.
// The flag keeps the sign-out from bouncing the user to the login page and is
// cleared once home is reached.
func (n *Navigator) Logout(ctx context.Context) (Page, error) {
	if err := n.flags.Set(ctx, common.LoggingOutKey, []byte("1")); err != nil {
		return Page{}, fmt.Errorf("set logging-out flag: %w", err)
	}

	signErr := n.auth.SignOut(ctx)
	page, openErr := n.Open(ctx, n.Current())

	n.mu.Lock()
	n.pending = ""
	n.mu.Unlock()

	return page, errors.Join(signErr, openErr)
}

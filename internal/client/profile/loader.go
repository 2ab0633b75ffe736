// Package profile loads the profile of the signed-in user for app pages.
package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/portal/layout"
	"github.com/dmitrijs2005/studioportal/internal/portal/route"
)

// Fetcher is satisfied by *client.Client.
type Fetcher interface {
	Profile(ctx context.Context, id string) (*portal.Profile, error)
}

type State struct {
	Profile *portal.Profile
	Loading bool
	// Err is the message of the last failed fetch. It sticks until the
	// session user changes; there is no retry.
	Err string
}

// Loader fetches at most one profile per session user. Results of a fetch
// started for a previous user, or arriving after Close, are dropped.
type Loader struct {
	fetcher    Fetcher
	classifier *route.Classifier
	log        logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	userID  string
	gen     uint64
	state   State
	closed  bool
	changes chan struct{}
}

func NewLoader(f Fetcher, c *route.Classifier, log logging.Logger) *Loader {
	if c == nil {
		c = route.Default
	}
	if log == nil {
		log = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		fetcher:    f,
		classifier: c,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		changes:    make(chan struct{}, 1),
	}
}

// Ensure starts a fetch when the session has a user, path is app-classified
// and no matching profile is cached, loading or failed. It reports whether a
// fetch was started. A different (or no) session user drops the cache.
func (l *Loader) Ensure(ctx context.Context, s *portal.Session, path string) bool {
	isApp := l.classifier.IsApp(ctx, path)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	uid := ""
	if s != nil {
		uid = s.UserID
	}
	if uid != l.userID {
		l.resetLocked(uid)
	}
	if uid == "" || !isApp {
		return false
	}
	if layout.ProfileMatches(s, l.state.Profile) || l.state.Loading || l.state.Err != "" {
		return false
	}

	l.state.Loading = true
	l.wg.Add(1)
	go l.load(l.gen, uid)
	l.notify()
	return true
}

func (l *Loader) resetLocked(uid string) {
	l.gen++
	l.userID = uid
	l.state = State{}
	l.notify()
}

func (l *Loader) load(gen uint64, uid string) {
	defer l.wg.Done()

	p, err := l.fetcher.Profile(l.ctx, uid)
	switch {
	case err != nil:
	case p == nil:
		err = fmt.Errorf("profile of user %q: %w", uid, common.ErrorNotFound)
	case p.ID != uid:
		err = fmt.Errorf("profile %q does not belong to user %q", p.ID, uid)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || gen != l.gen {
		return
	}
	l.state.Loading = false
	if err != nil {
		l.log.Warn(l.ctx, "profile fetch failed", "user_id", uid, "error", err)
		l.state.Err = err.Error()
		l.state.Profile = nil
	} else {
		l.state.Profile = p
	}
	l.notify()
}

// Set stores p as the current profile when it belongs to the tracked user,
// e.g. after an update call returned it.
func (l *Loader) Set(p *portal.Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || p == nil || p.ID == "" || p.ID != l.userID {
		return
	}
	cp := *p
	l.state = State{Profile: &cp}
	l.notify()
}

func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state
	if st.Profile != nil {
		cp := *st.Profile
		st.Profile = &cp
	}
	return st
}

// Changes receives a value after the state changed; notifications coalesce.
func (l *Loader) Changes() <-chan struct{} {
	return l.changes
}

func (l *Loader) notify() {
	select {
	case l.changes <- struct{}{}:
	default:
	}
}

// Close marks the loader unmounted, cancels an in-flight fetch and waits for it.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.cancel()
	l.wg.Wait()
}

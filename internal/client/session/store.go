// Package session holds the CLI's current authentication session.
//
// A Store is created by the application root and fed by an auth Source: one
// fetch of the current session, then the Source's change stream applied in
// emission order.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/portal/route"
	"github.com/dmitrijs2005/studioportal/internal/pubsub"
)

var ErrStarted = errors.New("session store already started")

// Source is satisfied by *auth.Service.
type Source interface {
	CurrentSession(ctx context.Context) (*portal.Session, error)
	Subscribe() (*pubsub.Subscription[portal.Event], error)
}

type Snapshot struct {
	Session *portal.Session
	// Loading is true until the first fetch completes.
	Loading bool
	// Started is false before Start and after Stop.
	Started bool
}

type Options struct {
	Classifier *route.Classifier
	Logger     logging.Logger
	// OnRedirect receives the login URL when a sign-out arrives while the
	// current path is app-classified. Called without the store lock held.
	OnRedirect func(to string)
}

type Store struct {
	src        Source
	classifier *route.Classifier
	log        logging.Logger
	onRedirect func(string)

	mu      sync.Mutex
	snap    Snapshot
	path    string
	changes chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewStore(src Source, opts Options) *Store {
	s := &Store{
		src:        src,
		classifier: opts.Classifier,
		log:        opts.Logger,
		onRedirect: opts.OnRedirect,
		changes:    make(chan struct{}, 1),
	}
	if s.classifier == nil {
		s.classifier = route.Default
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	return s
}

// SetPath records the path currently shown; it decides whether a sign-out
// redirects.
func (s *Store) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = route.Normalize(path)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	if snap.Session != nil {
		cp := *snap.Session
		snap.Session = &cp
	}
	return snap
}

// Changes receives a value after the snapshot changed. Notifications
// coalesce; read Snapshot after each one.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Start subscribes to the source and fetches the current session in the
// background. Events that arrive during the fetch are applied after it.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrStarted
	}
	sub, err := s.src.Subscribe()
	if err != nil {
		return err
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.snap = Snapshot{Loading: true, Started: true}
	s.notify()

	go s.run(ctx, sub)
	return nil
}

// Stop unsubscribes and waits for the background goroutine. Results that
// arrive afterwards are dropped.
func (s *Store) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done

	s.mu.Lock()
	s.snap.Started = false
	s.snap.Loading = false
	s.mu.Unlock()
	s.notify()
}

func (s *Store) run(ctx context.Context, sub *pubsub.Subscription[portal.Event]) {
	defer close(s.done)

	for {
		s.fetch(ctx)
		if !s.consume(ctx, sub) {
			return
		}

		s.log.Warn(ctx, "auth subscription evicted, resubscribing")
		next, err := s.src.Subscribe()
		if err != nil {
			s.log.Warn(ctx, "auth resubscribe failed", "error", err)
			return
		}
		sub = next
	}
}

func (s *Store) fetch(ctx context.Context) {
	session, err := s.src.CurrentSession(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.log.Warn(ctx, "session fetch failed", "error", err)
		session = nil
	}

	s.mu.Lock()
	s.snap.Session = session
	s.snap.Loading = false
	s.mu.Unlock()
	s.notify()
}

// consume applies events until ctx ends or the stream closes. It reports
// whether the stream was closed by eviction.
func (s *Store) consume(ctx context.Context, sub *pubsub.Subscription[portal.Event]) bool {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-sub.C:
			if !ok {
				return sub.Evicted()
			}
			s.apply(ctx, msg.Payload)
		}
	}
}

func (s *Store) apply(ctx context.Context, ev portal.Event) {
	var redirect string

	s.mu.Lock()
	switch ev.Type {
	case portal.EventSignedIn, portal.EventTokenRefreshed, portal.EventUserUpdated:
		s.snap.Session = ev.Session
	case portal.EventSignedOut:
		s.snap.Session = nil
		if s.path != "" && s.classifier.IsApp(ctx, s.path) {
			redirect = route.LoginURL(s.path)
		}
	default:
		s.mu.Unlock()
		return
	}
	s.snap.Loading = false
	s.mu.Unlock()
	s.notify()

	if redirect != "" && s.onRedirect != nil {
		s.onRedirect(redirect)
	}
}

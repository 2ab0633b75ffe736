package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrijs2005/studioportal/internal/client/auth"
	"github.com/dmitrijs2005/studioportal/internal/client/client"
	"github.com/dmitrijs2005/studioportal/internal/client/config"
	"github.com/dmitrijs2005/studioportal/internal/client/models"
	"github.com/dmitrijs2005/studioportal/internal/client/navigator"
	"github.com/dmitrijs2005/studioportal/internal/client/profile"
	"github.com/dmitrijs2005/studioportal/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/studioportal/internal/client/session"
	"github.com/dmitrijs2005/studioportal/internal/client/skills"
	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/portal"
)

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB
	hc     *http.Client

	api      *client.Client
	auth     *auth.Service
	store    *session.Store
	profiles *profile.Loader
	nav      *navigator.Navigator
	skills   *skills.Set

	reader *bufio.Reader
	outMu  sync.Mutex
	out    io.Writer

	mu         sync.Mutex
	loginFrom  string
	stopFollow context.CancelFunc
	wg         sync.WaitGroup
}

// NewApp opens the state file and wires the client components. Logs go to
// stderr at cfg.LogLevel.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	log := logging.New(os.Stderr, "text", cfg.LogLevel)

	db, err := client.InitDatabase(ctx, cfg.StateFile)
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}

	a := &App{
		config: cfg,
		log:    log,
		db:     db,
		hc:     &http.Client{Timeout: cfg.RequestTimeout},
		reader: bufio.NewReader(in),
		out:    out,
	}

	a.api, err = client.New(cfg.ServerURL, client.NewMetadataTokens(db),
		client.WithHTTPClient(a.hc),
		client.WithLogger(log),
		client.WithRefreshHook(func(ctx context.Context, pair models.TokenPair) {
			a.auth.TokenRefreshed(ctx, pair)
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a.auth = auth.NewService(a.api, log)
	a.store = session.NewStore(a.auth, session.Options{
		Logger:     log,
		OnRedirect: func(to string) { a.nav.HandleRedirect(to) },
	})
	a.profiles = profile.NewLoader(a.api, nil, log)
	a.nav = navigator.New(a.store, a.profiles, metadata.NewSQLiteRepository(db), a.auth, navigator.Options{
		Logger: log,
		Wait:   cfg.WaitTimeout,
	})
	a.skills = skills.New(a.api, log)
	return a, nil
}

// Start begins tracking the session.
func (a *App) Start(ctx context.Context) error {
	return a.store.Start(ctx)
}

// Close stops background work and closes the state file.
func (a *App) Close() error {
	a.unfollow()
	a.store.Stop()
	a.profiles.Close()
	a.auth.Close()
	return a.db.Close()
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) isLoggedIn() bool {
	return a.store.Snapshot().Session != nil
}

func (a *App) getStatus() string {
	s := ""
	if sess := a.store.Snapshot().Session; sess != nil {
		s = sess.Email + " "
	}
	s += a.nav.Current()
	return fmt.Sprintf("(%s)", s)
}

func (a *App) pendingRedirect() (string, bool) {
	return a.nav.TakeRedirect()
}

var errWaitSession = errors.New("session did not load in time")

// awaitSession waits for the store's first fetch and returns the session.
func (a *App) awaitSession(ctx context.Context) (*portal.Session, error) {
	snap, err := a.awaitSnapshot(ctx, func(session.Snapshot) bool { return true })
	return snap.Session, err
}

// awaitSnapshot waits until the store has loaded and cond holds.
func (a *App) awaitSnapshot(ctx context.Context, cond func(session.Snapshot) bool) (session.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.WaitTimeout)
	defer cancel()
	for {
		snap := a.store.Snapshot()
		if !snap.Loading && cond(snap) {
			return snap, nil
		}
		select {
		case <-a.store.Changes():
		case <-ctx.Done():
			return snap, errWaitSession
		}
	}
}

// follow relays remote auth changes for s until unfollow or Close.
func (a *App) follow(ctx context.Context, s *portal.Session) {
	a.unfollow()

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.mu.Lock()
	a.stopFollow = cancel
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.auth.Follow(ctx, s.UserID); err != nil {
			a.log.Warn(ctx, "realtime auth updates unavailable", "error", err)
		}
	}()
}

func (a *App) unfollow() {
	a.mu.Lock()
	cancel := a.stopFollow
	a.stopFollow = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	a.wg.Wait()
}

package cli

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/studioportal/internal/client/session"
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/portal/username"
)

// Prompt seams, stubbed in tests.
var (
	promptLine     = askLine
	promptPassword = askPassword
)

const defaultLanding = "/dashboard"

// Login prompts for credentials, signs in and opens the page that sent the
// user to the login screen, or the dashboard.
func (a *App) Login(ctx context.Context) error {
	email, err := promptLine(a.reader, a.out, "Email")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.reader, a.out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.auth.SignIn(ctx, email, string(password))
	if err != nil {
		return err
	}
	a.printf("Signed in as %s\n", s.Email)
	return a.enter(ctx, s, a.landing())
}

// SignUp prompts for an email, a username and a password. The username is
// sanitized before anything is sent.
func (a *App) SignUp(ctx context.Context) error {
	email, err := promptLine(a.reader, a.out, "Email")
	if err != nil {
		return err
	}
	raw, err := promptLine(a.reader, a.out, "Username (3-20 of a-z, 0-9, _)")
	if err != nil {
		return err
	}
	name, err := username.Sanitize(raw)
	if err != nil {
		return err
	}
	password, err := promptPassword(a.reader, a.out, "Choose a password (at least 8 characters)")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.auth.SignUp(ctx, email, string(password), name)
	if err != nil {
		return err
	}
	a.printf("Welcome, %s! Signed in as %s\n", name, s.Email)
	return a.enter(ctx, s, "/welcome")
}

// enter waits for the session store to pick up s, then opens path.
func (a *App) enter(ctx context.Context, s *portal.Session, path string) error {
	_, err := a.awaitSnapshot(ctx, func(snap session.Snapshot) bool {
		return snap.Session != nil && snap.Session.UserID == s.UserID
	})
	if err != nil {
		return err
	}
	a.follow(ctx, s)
	return a.Open(ctx, path)
}

// Logout signs out and returns to the home page.
func (a *App) Logout(ctx context.Context) error {
	a.unfollow()
	page, err := a.nav.Logout(ctx)
	if page.Path != "" {
		a.printPage(page)
	}
	if err != nil {
		return err
	}
	a.printf("Signed out\n")
	return nil
}

// WhoAmI prints the current session and profile.
func (a *App) WhoAmI(ctx context.Context) error {
	s, err := a.awaitSession(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		a.printf("Not signed in\n")
		return nil
	}
	a.printf("%s (%s), session expires %s\n", s.Email, s.Role, s.ExpiresAt.Local().Format("2006-01-02 15:04"))

	p, err := a.api.Profile(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	a.profiles.Set(p)
	a.printf("@%s %s\n", p.Username, p.DisplayName)
	return nil
}

// landing returns the redirectedFrom path recorded by the last login
// redirect, or the dashboard.
func (a *App) landing() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	to := a.loginFrom
	a.loginFrom = ""
	if to == "" {
		return defaultLanding
	}
	return to
}

func (a *App) rememberLoginRedirect(to string) {
	u, err := url.Parse(to)
	if err != nil || u.Path != "/login" {
		return
	}
	if from := u.Query().Get(common.RedirectParam); from != "" {
		a.mu.Lock()
		a.loginFrom = from
		a.mu.Unlock()
	}
}

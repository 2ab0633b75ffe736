package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/client/models"
	"github.com/dmitrijs2005/studioportal/internal/client/navigator"
	"github.com/dmitrijs2005/studioportal/internal/portal/username"
)

// Open navigates to path and prints the page the user ends up on.
func (a *App) Open(ctx context.Context, path string) error {
	page, err := a.nav.Open(ctx, path)
	for _, to := range page.Redirects {
		a.rememberLoginRedirect(to)
	}
	if page.Path != "" {
		a.printPage(page)
	}
	return err
}

func (a *App) printPage(p navigator.Page) {
	var b strings.Builder
	for _, to := range p.Redirects {
		fmt.Fprintf(&b, "-> %s\n", to)
	}
	fmt.Fprintf(&b, "[%s] %s (%s)\n", p.Decision.Shell, p.Path, p.Decision.State)
	switch {
	case p.Decision.Error != "":
		fmt.Fprintf(&b, "   could not load your profile: %s\n", p.Decision.Error)
	case p.Profile != nil:
		fmt.Fprintf(&b, "   @%s\n", p.Profile.Username)
	}
	a.printf("%s", b.String())
}

// Skills lists the catalog, marking the user's skills.
func (a *App) Skills(ctx context.Context) error {
	if err := a.skills.Load(ctx); err != nil {
		return err
	}
	category := ""
	for _, sk := range a.skills.Catalog() {
		if sk.Category != category {
			category = sk.Category
			a.printf("%s:\n", category)
		}
		mark := " "
		if a.skills.Has(sk.ID) {
			mark = "x"
		}
		a.printf("  [%s] %s (%s)\n", mark, sk.Name, sk.ID)
	}
	return nil
}

// ToggleSkill flips one skill. The change shows immediately and is undone
// if the server rejects it.
func (a *App) ToggleSkill(ctx context.Context, id string) error {
	if len(a.skills.Catalog()) == 0 {
		if err := a.skills.Load(ctx); err != nil {
			return err
		}
	}
	on, err := a.skills.Toggle(ctx, id)
	if err != nil {
		return err
	}
	verb := "removed"
	if on {
		verb = "added"
	}
	a.printf("Skill %s %s\n", id, verb)
	return nil
}

// Teams lists the teams the user belongs to.
func (a *App) Teams(ctx context.Context) error {
	teams, err := a.api.Teams(ctx)
	if err != nil {
		return err
	}
	if len(teams) == 0 {
		a.printf("No teams\n")
	}
	for _, t := range teams {
		a.printf("%s  %s\n", t.ID, t.Name)
	}
	return nil
}

var errNothingToUpdate = errors.New("nothing to update")

// UpdateProfile sends the given fields; empty strings are left unchanged.
// The username is sanitized first and rejected locally when out of range.
func (a *App) UpdateProfile(ctx context.Context, name, displayName, bio string) error {
	var upd models.ProfileUpdate
	if name != "" {
		clean, err := username.Sanitize(name)
		if err != nil {
			return err
		}
		upd.Username = &clean
	}
	if displayName != "" {
		upd.DisplayName = &displayName
	}
	if bio != "" {
		upd.Bio = &bio
	}
	if upd == (models.ProfileUpdate{}) {
		return errNothingToUpdate
	}

	p, err := a.api.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	a.profiles.Set(p)
	a.printf("Profile updated: @%s %s\n", p.Username, p.DisplayName)
	return nil
}

// EditProfile asks for each field; an empty answer keeps the current value.
func (a *App) EditProfile(ctx context.Context) error {
	name, err := promptLine(a.reader, a.out, "Username (empty to keep)")
	if err != nil {
		return err
	}
	display, err := promptLine(a.reader, a.out, "Display name (empty to keep)")
	if err != nil {
		return err
	}
	bio, err := askBio(a.reader, a.out)
	if err != nil {
		return err
	}
	return a.UpdateProfile(ctx, name, display, bio)
}

// DismissWelcome records that the welcome card was seen.
func (a *App) DismissWelcome(ctx context.Context) error {
	if err := a.api.MarkWelcomeSeen(ctx); err != nil {
		return err
	}
	a.printf("Welcome card dismissed\n")
	return nil
}

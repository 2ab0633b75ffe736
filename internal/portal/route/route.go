// Package route classifies navigation paths into the layout categories the
// portal renders.
package route

import (
	"context"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/logging"
)

type Category int

const (
	Public Category = iota
	AuthFlow
	Minimal
	App
)

func (c Category) String() string {
	switch c {
	case Public:
		return "public"
	case AuthFlow:
		return "auth-flow"
	case Minimal:
		return "minimal"
	case App:
		return "app"
	default:
		return "unknown"
	}
}

// Lists holds the static prefix lists a Classifier matches against.
type Lists struct {
	Minimal  []string
	Public   []string
	AuthFlow []string
	App      []string
}

// DefaultLists returns the prefixes used by the portal.
func DefaultLists() Lists {
	return Lists{
		Minimal:  []string{"/skills", "/welcome", "/embed"},
		Public:   []string{"/", "/services", "/portfolio", "/about", "/contact", "/pricing", "/blog"},
		AuthFlow: []string{"/login", "/signup", "/forgot-password", "/reset-password", "/auth/callback"},
		App:      []string{"/dashboard", "/profile", "/projects", "/teams", "/messages", "/settings", "/admin", "/onboarding"},
	}
}

type Result struct {
	Category Category
	// Matched is false when no list contained the path and Category is the
	// Public fallback.
	Matched bool
}

type Classifier struct {
	lists Lists
	log   logging.Logger
}

// NewClassifier returns a Classifier over lists. log may be nil.
func NewClassifier(lists Lists, log logging.Logger) *Classifier {
	return &Classifier{lists: lists, log: log}
}

// Default is a classifier over DefaultLists that does not log.
var Default = NewClassifier(DefaultLists(), nil)

// Classify returns the category of path. Precedence is minimal, then
// public/auth-flow, then app.
func (c *Classifier) Classify(ctx context.Context, path string) Result {
	p := Normalize(path)

	switch {
	case matchAny(p, c.lists.Minimal):
		return Result{Category: Minimal, Matched: true}
	case matchAny(p, c.lists.Public):
		return Result{Category: Public, Matched: true}
	case matchAny(p, c.lists.AuthFlow):
		return Result{Category: AuthFlow, Matched: true}
	case matchAny(p, c.lists.App):
		return Result{Category: App, Matched: true}
	}

	if c.log != nil {
		c.log.Warn(ctx, "unclassified path, falling back to public layout", "path", p)
	}
	return Result{Category: Public, Matched: false}
}

// IsApp reports whether path requires an authenticated session.
func (c *Classifier) IsApp(ctx context.Context, path string) bool {
	return c.Classify(ctx, path).Category == App
}

// Normalize strips the query string, fragment and trailing slashes. An empty
// result becomes "/".
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return "/"
	}
	if path[0] != '/' {
		path = "/" + path
	}
	return path
}

func matchAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if match(path, p) {
			return true
		}
	}
	return false
}

// match: the root prefix only matches "/" itself.
func match(path, prefix string) bool {
	if prefix == "/" {
		return path == "/"
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// LoginURL builds the login path that returns to from after sign-in.
func LoginURL(from string) string {
	return "/login?" + common.RedirectParam + "=" + url.QueryEscape(from)
}

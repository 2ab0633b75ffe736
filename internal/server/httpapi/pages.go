package httpapi

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/portal/layout"
	"github.com/dmitrijs2005/studioportal/internal/portal/route"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var pageTemplates = template.Must(template.New("").ParseFS(templatesFS, "templates/*.tmpl"))

type pageData struct {
	Path     string
	State    string
	Category string
	Session  *portal.Session
	Profile  *portal.Profile
	Error    string
}

// page renders every non-API GET through the layout machine. The server
// knows the session synchronously, so one pass never ends in
// InitializingAuth; a profile fetch requested by the machine is done inline
// and fed back as a second pass.
func (s *Server) page(c *gin.Context) {
	if c.Request.URL.Path == "/v1" || strings.HasPrefix(c.Request.URL.Path, "/v1/") {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorBody{Error: "no such endpoint", Code: "not_found"})
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.AbortWithStatus(http.StatusMethodNotAllowed)
		return
	}

	ctx := c.Request.Context()
	path := route.Normalize(c.Request.URL.Path)
	_, flagErr := c.Cookie(common.LoggingOutCookieName)

	in := layout.Input{
		Mounted:    true,
		Path:       path,
		LoggingOut: flagErr == nil,
	}
	if token, err := c.Cookie(common.AccessCookieName); err == nil && token != "" {
		if session, err := s.svc.Auth.Authenticate(token); err == nil {
			in.Session = session
		}
	}

	m := layout.NewMachine(s.classifier)
	d := m.Step(ctx, in)
	if d.FetchProfile {
		p, err := s.svc.Profiles.Get(ctx, in.Session.UserID)
		if err != nil {
			s.logger.Warn(ctx, "profile fetch failed", "user_id", in.Session.UserID, "error", err)
			in.ProfileErr = "could not load your profile"
		} else {
			in.Profile = p
		}
		d = m.Step(ctx, in)
	}

	if in.LoggingOut && path == "/" {
		c.SetCookie(common.LoggingOutCookieName, "", -1, "/", "", false, true)
	}

	if d.Redirect != "" {
		c.Redirect(http.StatusSeeOther, d.Redirect)
		return
	}

	status := http.StatusOK
	if d.Error != "" {
		status = http.StatusServiceUnavailable
	}
	c.HTML(status, d.Shell.String()+".tmpl", pageData{
		Path:     path,
		State:    d.State.String(),
		Category: d.Category.String(),
		Session:  in.Session,
		Profile:  in.Profile,
		Error:    d.Error,
	})
}

package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/server/services"
	"github.com/gin-gonic/gin"
)

type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SessionResponse is returned by GET /v1/session.
type SessionResponse struct {
	Session *portal.Session `json:"session"`
	Profile *portal.Profile `json:"profile,omitempty"`
}

func (s *Server) signUp(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pair, err := s.svc.Auth.SignUp(c.Request.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setAccessCookie(c, pair)
	c.JSON(http.StatusCreated, pair)
}

func (s *Server) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pair, err := s.svc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setAccessCookie(c, pair)
	c.JSON(http.StatusOK, pair)
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pair, err := s.svc.Auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setAccessCookie(c, pair)
	c.JSON(http.StatusOK, pair)
}

// logout revokes the refresh token (all of the user's tokens when none is
// given), drops the access cookie and raises the logging-out flag for pages.
func (s *Server) logout(c *gin.Context) {
	var req logoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if err := s.svc.Auth.Logout(c.Request.Context(), sessionOf(c).UserID, req.RefreshToken); err != nil {
		s.fail(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.AccessCookieName, "", -1, "/", "", false, true)
	c.SetCookie(common.LoggingOutCookieName, "1", 0, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (s *Server) currentSession(c *gin.Context) {
	session := sessionOf(c)
	resp := SessionResponse{Session: session}

	profile, err := s.svc.Profiles.Get(c.Request.Context(), session.UserID)
	switch {
	case err == nil:
		resp.Profile = profile
	case errors.Is(err, common.ErrorNotFound):
	default:
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) setAccessCookie(c *gin.Context, pair *services.TokenPair) {
	maxAge := int(time.Until(pair.ExpiresAt).Seconds())
	if maxAge <= 0 {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.AccessCookieName, pair.AccessToken, maxAge, "/", "", false, true)
}

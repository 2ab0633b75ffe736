package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/studioportal/internal/server/services"
	"github.com/gin-gonic/gin"
)

type avatarRequest struct {
	URL string `json:"url" binding:"required,url"`
}

func (s *Server) getProfile(c *gin.Context) {
	p, err := s.svc.Profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) updateProfile(c *gin.Context) {
	var upd services.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	actor := sessionOf(c)
	p, err := s.svc.Profiles.Update(c.Request.Context(), actor, actor.UserID, upd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) markWelcomeSeen(c *gin.Context) {
	if err := s.svc.Profiles.MarkWelcomeSeen(c.Request.Context(), sessionOf(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) setAvatar(c *gin.Context) {
	var req avatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.svc.Profiles.SetAvatar(c.Request.Context(), sessionOf(c), req.URL)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

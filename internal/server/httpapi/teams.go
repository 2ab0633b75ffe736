package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type teamRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type memberRequest struct {
	Role string `json:"role"`
}

type messageRequest struct {
	Body string `json:"body" binding:"required"`
}

func (s *Server) listTeams(c *gin.Context) {
	list, err := s.svc.Teams.List(c.Request.Context(), sessionOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createTeam(c *gin.Context) {
	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := s.svc.Teams.Create(c.Request.Context(), sessionOf(c), req.Name, req.Description)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) teamMembers(c *gin.Context) {
	list, err := s.svc.Teams.Members(c.Request.Context(), sessionOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) addTeamMember(c *gin.Context) {
	var req memberRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if err := s.svc.Teams.AddMember(c.Request.Context(), sessionOf(c), c.Param("id"), c.Param("userID"), req.Role); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) removeTeamMember(c *gin.Context) {
	if err := s.svc.Teams.RemoveMember(c.Request.Context(), sessionOf(c), c.Param("id"), c.Param("userID")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listMessages(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	list, err := s.svc.Messages.List(c.Request.Context(), sessionOf(c), c.Param("id"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) postMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := s.svc.Messages.Post(c.Request.Context(), sessionOf(c), c.Param("id"), req.Body)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

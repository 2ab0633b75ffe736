package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/studioportal/internal/server/services"
	"github.com/gin-gonic/gin"
)

type featureRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type decisionRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

type feedbackRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Message string `json:"message"`
}

func (s *Server) listProjects(c *gin.Context) {
	list, err := s.svc.Projects.List(c.Request.Context(), sessionOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createProject(c *gin.Context) {
	var in services.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.svc.Projects.Create(c.Request.Context(), sessionOf(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.svc.Projects.Get(c.Request.Context(), sessionOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) updateProject(c *gin.Context) {
	var in services.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.svc.Projects.Update(c.Request.Context(), sessionOf(c), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listFeatures(c *gin.Context) {
	list, err := s.svc.Features.List(c.Request.Context(), sessionOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) requestFeature(c *gin.Context) {
	var req featureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	f, err := s.svc.Features.Request(c.Request.Context(), sessionOf(c), c.Param("id"), req.Title, req.Description)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (s *Server) decideFeature(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	f, err := s.svc.Features.Decide(c.Request.Context(), sessionOf(c), c.Param("id"), *req.Approve)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) submitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	fb, err := s.svc.Feedback.Submit(c.Request.Context(), sessionOf(c), req.Rating, req.Message)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (s *Server) listFeedback(c *gin.Context) {
	list, err := s.svc.Feedback.List(c.Request.Context(), sessionOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

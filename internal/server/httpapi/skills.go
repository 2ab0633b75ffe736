package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type skillRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
}

func (s *Server) listSkills(c *gin.Context) {
	list, err := s.svc.Skills.Catalog(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createSkill(c *gin.Context) {
	var req skillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sk, err := s.svc.Skills.Create(c.Request.Context(), sessionOf(c), req.Name, req.Category)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sk)
}

func (s *Server) mySkills(c *gin.Context) {
	list, err := s.svc.Skills.Mine(c.Request.Context(), sessionOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) addSkill(c *gin.Context)    { s.setSkill(c, true) }
func (s *Server) removeSkill(c *gin.Context) { s.setSkill(c, false) }

func (s *Server) setSkill(c *gin.Context, on bool) {
	list, err := s.svc.Skills.Set(c.Request.Context(), sessionOf(c), c.Param("id"), on)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

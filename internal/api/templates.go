package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danmuck/nexus/internal/codes"
	"github.com/gin-gonic/gin"
)

var errNoTemplates = errors.New("api: step templates not loaded")

func (s *Server) templateTypes(c *gin.Context) {
	if s.templates == nil {
		writeError(c, errNoTemplates)
		return
	}
	c.JSON(http.StatusOK, gin.H{"traveler_types": s.templates.Types()})
}

// templateSteps returns the default routing for a traveler type, sub-steps
// included.
func (s *Server) templateSteps(c *gin.Context) {
	if s.templates == nil {
		writeError(c, errNoTemplates)
		return
	}
	kind := strings.ToUpper(strings.TrimSpace(c.Param("type")))
	steps, ok := s.templates.Steps(kind)
	if !ok {
		writeError(c, &codes.NotFoundError{Entity: "traveler type", Key: kind})
		return
	}
	c.JSON(http.StatusOK, gin.H{"traveler_type": kind, "steps": steps})
}

package api

import (
	"errors"
	"net/http"

	"reelsmith/orchestrator"
	"reelsmith/types"

	"github.com/gin-gonic/gin"
)

// RegisterRenderRoutes registers render submission and status endpoints.
func RegisterRenderRoutes(r *gin.Engine, s *Server) {
	g := r.Group("/api")
	g.POST("/render", s.handleRender)
	g.GET("/status", s.handleStatus)
}

// RenderResponse acknowledges an accepted render
type RenderResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
}

// handleRender starts a render asynchronously and returns 202 Accepted.
// 409 means the project already has a run in flight.
func (s *Server) handleRender(c *gin.Context) {
	var req types.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Length <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "length must be positive", "error_kind": types.ErrInvalidDuration})
		return
	}

	id, err := s.svc.Submit(s.baseCtx, req)
	switch {
	case errors.Is(err, orchestrator.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": types.KindOf(err)})
		return
	}
	c.JSON(http.StatusAccepted, RenderResponse{Status: "started", RunID: id})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Status.GetStatus())
}

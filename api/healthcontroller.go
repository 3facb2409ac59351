package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterHealthRoutes registers liveness endpoints. They also report whether
// a render is in flight so load balancers can prefer idle instances.
func RegisterHealthRoutes(r *gin.Engine, s *Server) {
	h := func(c *gin.Context) {
		status := s.svc.Status
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"state":  status.GetState(),
			"busy":   status.Busy(),
		})
	}
	r.GET("/health", h)
	r.GET("/api/health", h)
}

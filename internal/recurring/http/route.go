package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/recurring-sessions")

	group.Use(authMiddleware)
	{
		group.POST("", h.Create)
		group.GET("/:id", h.Get)
		group.PATCH("/:id", h.Update)
		group.DELETE("/:id", h.Close)
		group.PUT("/:id/resolution", h.SetResolution)
		group.POST("/:id/recheck", h.Recheck)
		group.POST("/:id/plan", h.Plan)
		group.POST("/:id/submit", h.Submit)
	}
}

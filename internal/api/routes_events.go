package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/volunteerhub/internal/handlers"
)

func registerEventRoutes(api *gin.RouterGroup, handler *handlers.EventHandler, requireAdmin gin.HandlerFunc) {
	group := api.Group("/events")
	{
		group.GET("", handler.List)
		group.GET("/:id", handler.Get)
		group.POST("", requireAdmin, handler.Create)
		group.PUT("/:id", requireAdmin, handler.Update)
		group.DELETE("/:id", requireAdmin, handler.Delete)
		group.GET("/:id/assignments", requireAdmin, handler.Assignments)
	}
}

func registerMatchRoutes(api *gin.RouterGroup, handler *handlers.MatchHandler, requireAdmin gin.HandlerFunc) {
	group := api.Group("/match")
	group.Use(requireAdmin)
	{
		group.POST("/assign", handler.Assign)
		group.GET("/:eventID", handler.Eligible)
	}
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/volunteerhub/internal/handlers"
)

func registerProfileRoutes(api *gin.RouterGroup, handler *handlers.ProfileHandler) {
	api.GET("/profile", handler.Get)
	api.PUT("/profile", handler.Update)
}

func registerSkillRoutes(api *gin.RouterGroup, handler *handlers.SkillHandler, requireAdmin gin.HandlerFunc) {
	api.GET("/skills", handler.List)
	api.POST("/skills", requireAdmin, handler.Create)
}

func registerHistoryRoutes(api *gin.RouterGroup, handler *handlers.HistoryHandler, requireAdmin gin.HandlerFunc) {
	api.GET("/history", handler.Mine)
	api.GET("/history/:volunteerID", requireAdmin, handler.ForVolunteer)
}

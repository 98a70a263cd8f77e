package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/volunteerhub/internal/handlers"
)

func registerPublicAuthRoutes(engine *gin.Engine, handler *handlers.AuthHandler, limit gin.HandlerFunc) {
	auth := engine.Group("/api/auth")
	auth.Use(limit)
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
		auth.POST("/verify-email", handler.VerifyEmail)
	}
}

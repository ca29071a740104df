package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/handlers"
)

func registerAuthRoutes(api *gin.RouterGroup, handler *handlers.AuthHandler, limiter gin.HandlerFunc) {
	auth := api.Group("/auth")
	auth.Use(limiter)
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
		auth.POST("/verify", handler.Verify)
		auth.POST("/resend", handler.Resend)
		auth.POST("/forgot", handler.Forgot)
		auth.POST("/reset", handler.Reset)
	}
}

func registerContactRoutes(api *gin.RouterGroup, handler *handlers.ContactHandler, limiter gin.HandlerFunc) {
	api.POST("/contact", limiter, handler.Send)
}

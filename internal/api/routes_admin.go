package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/handlers"
)

func registerAdminRoutes(protected *gin.RouterGroup, handler *handlers.AdminHandler, audit *handlers.AuditHandler) {
	admin := protected.Group("/admin")

	users := admin.Group("/users")
	{
		users.GET("", handler.ListUsers)
		users.PUT("/:id", handler.UpdateUser)
		users.DELETE("/:id", handler.DeleteUser)
	}

	posts := admin.Group("/posts")
	{
		posts.GET("", handler.ListPosts)
		posts.PUT("/:id", handler.UpdatePost)
		posts.DELETE("/:id", handler.DeletePost)
	}

	cars := admin.Group("/cars")
	{
		cars.GET("", handler.ListCars)
		cars.POST("", handler.CreateCar)
		cars.DELETE("/:id", handler.DeleteCar)
	}

	models := admin.Group("/car-models")
	{
		models.GET("", handler.ListCarModels)
		models.POST("", handler.CreateCarModel)
		models.DELETE("/:id", handler.DeleteCarModel)
	}

	parts := admin.Group("/parts")
	{
		parts.GET("", handler.ListParts)
		parts.POST("", handler.CreatePart)
		parts.DELETE("/:id", handler.DeletePart)
	}

	pendingUsers := admin.Group("/pending-users")
	{
		pendingUsers.GET("", handler.ListPendingUsers)
		pendingUsers.DELETE("/:id", handler.DeletePendingUser)
	}

	pendingCars := admin.Group("/pending-cars")
	{
		pendingCars.GET("", handler.ListPendingCars)
		pendingCars.POST("/:id/approve", handler.ApprovePendingCar)
		pendingCars.DELETE("/:id", handler.RejectPendingCar)
	}

	admin.GET("/audit-logs", audit.List)
}

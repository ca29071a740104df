package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/handlers"
)

func registerListingRoutes(public, protected *gin.RouterGroup, handler *handlers.ListingHandler) {
	posts := public.Group("/posts")
	{
		posts.GET("", handler.List)
		posts.GET("/:id", handler.Get)
		posts.GET("/:id/price-history", handler.PriceHistory)
	}

	owned := protected.Group("/posts")
	{
		owned.POST("", handler.Create)
		owned.PUT("/:id", handler.Update)
		owned.DELETE("/:id", handler.Delete)
		owned.POST("/:id/images", handler.AddImages)
		owned.DELETE("/:id/images", handler.RemoveImage)
	}
}

func registerFavoriteRoutes(protected *gin.RouterGroup, handler *handlers.FavoriteHandler) {
	favorites := protected.Group("/favorites")
	{
		favorites.GET("", handler.List)
		favorites.POST("", handler.Add)
		favorites.DELETE("/:post_id", handler.Remove)
	}
}

func registerProfileRoutes(protected *gin.RouterGroup, handler *handlers.ProfileHandler) {
	profile := protected.Group("/profile")
	{
		profile.GET("", handler.Get)
		profile.PUT("", handler.Update)
		profile.POST("/image", handler.UploadImage)
		profile.DELETE("/image", handler.DeleteImage)
	}
}

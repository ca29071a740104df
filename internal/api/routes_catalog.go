package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/handlers"
)

func registerCatalogRoutes(api *gin.RouterGroup, handler *handlers.CatalogHandler, optionalAuth gin.HandlerFunc) {
	cars := api.Group("/cars")
	{
		cars.GET("", handler.ListCars)
		cars.GET("/models", handler.ListCarModels)
		cars.POST("/request", optionalAuth, handler.RequestCar)
	}
	api.GET("/parts", handler.ListParts)
}

func registerRatesRoutes(api *gin.RouterGroup, handler *handlers.RatesHandler) {
	api.GET("/rates", handler.Get)
}

package app

import (
	"context"
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/server"
)

// BuildRouter: 미들웨어와 API 라우트를 구성한 gin 엔진을 반환한다.
func BuildRouter(ctx context.Context, container *Container, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	_ = router.SetTrustedProxies(constants.ServerConfig.TrustedProxies)

	router.Use(cors.New(cors.Config{
		AllowOrigins: constants.CORSConfig.AllowOrigins,
		AllowMethods: constants.CORSConfig.AllowMethods,
		AllowHeaders: constants.CORSConfig.AllowHeaders,
	}))
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(server.LoggerMiddleware(ctx, logger, "/health"))

	handler := container.Handler
	router.GET("/health", handler.Health)

	api := router.Group("/api")
	{
		api.GET("/geocode", handler.ForwardGeocode)
		api.GET("/geocode/reverse", handler.ReverseGeocode)

		api.POST("/restaurants/search", handler.SearchRestaurants)
		api.GET("/restaurants/:place_id", handler.GetRestaurantDetail)
		api.GET("/restaurants/:place_id/menus", handler.GetRestaurantMenus)
		api.POST("/restaurants/:place_id/menus/contribute", handler.ContributeMenu)
		api.POST("/restaurants/:place_id/delivery", handler.UpdateDeliveryInfo)

		api.GET("/preferences/:session_id", handler.GetPreferences)
		api.PUT("/preferences", handler.SavePreferences)
	}

	return router
}

package handler

import (
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopreviews/pkg/logger"
	"shopreviews/pkg/metrics"
)

const serviceName = "reviews-service"

var errRedisDisabled = errors.New("redis is not configured")

// SetupRoutes настраивает все маршруты сервиса
func SetupRoutes(shopHandler *ShopHandler, healthHandler *HealthCheckHandler, allowOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))
	router.Use(cors.New(corsConfig(allowOrigins)))

	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/health/readiness", healthHandler.Readiness)
	router.GET("/health/liveness", healthHandler.Liveness)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	customers := router.Group("/customers")
	{
		customers.GET("", shopHandler.ListCustomers)
		customers.POST("", shopHandler.CreateCustomer)
		customers.GET("/:id", shopHandler.GetCustomer)
		customers.PUT("/:id", shopHandler.UpdateCustomer)
		customers.DELETE("/:id", shopHandler.DeleteCustomer)
		customers.GET("/:id/items", shopHandler.GetCustomerItems)
	}

	items := router.Group("/items")
	{
		items.GET("", shopHandler.ListItems)
		items.POST("", shopHandler.CreateItem)
		items.GET("/:id", shopHandler.GetItem)
		items.PUT("/:id", shopHandler.UpdateItem)
		items.DELETE("/:id", shopHandler.DeleteItem)
	}

	reviews := router.Group("/reviews")
	{
		reviews.GET("", shopHandler.ListReviews)
		reviews.POST("", shopHandler.CreateReview)
		reviews.GET("/:id", shopHandler.GetReview)
		reviews.PUT("/:id", shopHandler.UpdateReview)
		reviews.DELETE("/:id", shopHandler.DeleteReview)
	}

	return router
}

// corsConfig: "*" в списке означает любой источник
func corsConfig(allowOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Content-Type", logger.RequestIDHeader},
		ExposeHeaders: []string{logger.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range allowOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = allowOrigins
	return cfg
}

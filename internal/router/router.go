package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "smartsplit/docs" // registers the swagger spec
	"smartsplit/internal/handler"
	"smartsplit/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	allowedOrigins []string,
	maxUploadBytes int64,
	splitH *handler.SplitHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	splits := v1.Group("/splits")
	splits.POST("", middleware.BodyLimit(maxUploadBytes), splitH.Create)
	splits.GET("", splitH.List)
	splits.GET("/:id", splitH.GetByID)
	splits.DELETE("/:id", splitH.Delete)
	splits.PATCH("/:id/sections/:index", splitH.UpdateSection)
	splits.GET("/:id/manifest", splitH.Manifest)

	v1.GET("/corrections/report", splitH.AccuracyReport)

	return r
}

package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mysql-mcp-gateway/internal/middleware"
	"mysql-mcp-gateway/internal/service"
)

// RouterDeps carries what the REST surface is built from
type RouterDeps struct {
	Cache       SchemaCache
	Tables      service.TableService
	Checker     DatabaseChecker
	RateLimiter *middleware.RateLimiter
	Logger      logrus.FieldLogger
	Version     string
}

// NewRouter wires the REST endpoints that mirror the MCP tools
func NewRouter(deps RouterDeps) *gin.Engine {
	schemaController := NewSchemaController(deps.Cache)
	queryController := NewQueryController(deps.Cache)
	tableController := NewTableController(deps.Tables)
	healthController := NewHealthController(deps.Checker, deps.Cache, deps.Version)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.PrometheusMiddleware())

	router.GET("/health", healthController.HealthCheck)
	router.GET("/metrics", middleware.MetricsHandler())

	api := router.Group("/api/v1")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.RateLimit())
	}
	{
		api.GET("/health", healthController.HealthCheck)

		api.GET("/schema", schemaController.GetSchema)
		api.POST("/schema/refresh", schemaController.RefreshSchema)
		api.GET("/cache/stats", schemaController.CacheStats)
		api.DELETE("/cache/queries", schemaController.ClearQueryCache)

		api.POST("/query", queryController.ExecuteQuery)

		tables := api.Group("/tables")
		{
			tables.GET("", tableController.ListTables)
			tables.GET("/:name", tableController.DescribeTable)
			tables.GET("/:name/info", tableController.GetTableInfo)
		}
	}

	return router
}

package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"mysql-mcp-gateway/internal/middleware"
	"mysql-mcp-gateway/internal/schema"
	"mysql-mcp-gateway/pkg/response"
)

// SchemaCache is the slice of the cache manager the REST surface needs
type SchemaCache interface {
	GetSchema(ctx context.Context) string
	Query(ctx context.Context, sql string, limit int) (string, error)
	Refresh(ctx context.Context) string
	ClearQueryCache() int
	Stats() schema.CacheStats
}

type SchemaController struct {
	cache SchemaCache
}

func NewSchemaController(cache SchemaCache) *SchemaController {
	return &SchemaController{cache: cache}
}

// GetSchema writes the schema document exactly as it is persisted
// @Router /api/v1/schema [get]
func (sc *SchemaController) GetSchema(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(sc.cache.GetSchema(c.Request.Context())))
}

// RefreshSchema forces a regeneration and reports its status document
// @Router /api/v1/schema/refresh [post]
func (sc *SchemaController) RefreshSchema(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(sc.cache.Refresh(c.Request.Context())))
}

// CacheStats reports schema and query cache statistics
// @Router /api/v1/cache/stats [get]
func (sc *SchemaController) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, response.SuccessResponse(sc.cache.Stats(), middleware.GetCorrelationID(c)))
}

// ClearQueryCache drops cached query results
// @Router /api/v1/cache/queries [delete]
func (sc *SchemaController) ClearQueryCache(c *gin.Context) {
	cleared := sc.cache.ClearQueryCache()
	c.JSON(http.StatusOK, response.SuccessResponse(gin.H{"cleared": cleared}, middleware.GetCorrelationID(c)))
}

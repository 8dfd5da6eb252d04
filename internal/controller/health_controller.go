package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mysql-mcp-gateway/internal/database"
)

type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Service   string         `json:"service"`
	Version   string         `json:"version"`
	Database  DatabaseStatus `json:"database"`
	Schema    SchemaStatus   `json:"schema"`
}

type DatabaseStatus struct {
	Status          string `json:"status"`
	Message         string `json:"message,omitempty"`
	LatencyMs       int64  `json:"latency_ms"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
}

type SchemaStatus struct {
	FilePath   string `json:"file_path"`
	FileExists bool   `json:"file_exists"`
	Fresh      bool   `json:"fresh"`
}

// DatabaseChecker reports the database's reachability
type DatabaseChecker interface {
	Check(ctx context.Context) database.HealthCheckResult
}

type HealthController struct {
	checker DatabaseChecker
	cache   SchemaCache
	version string
}

func NewHealthController(checker DatabaseChecker, cache SchemaCache, version string) *HealthController {
	return &HealthController{
		checker: checker,
		cache:   cache,
		version: version,
	}
}

func (hc *HealthController) HealthCheck(c *gin.Context) {
	result := hc.checker.Check(c.Request.Context())
	stats := hc.cache.Stats().SchemaMetadataCache

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   "mysql-mcp-server",
		Version:   hc.version,
		Database: DatabaseStatus{
			Status:          "connected",
			Message:         result.Message,
			LatencyMs:       result.Latency.Milliseconds(),
			OpenConnections: result.OpenConnections,
			InUse:           result.InUse,
			Idle:            result.Idle,
		},
		Schema: SchemaStatus{
			FilePath:   stats.FilePath,
			FileExists: stats.FileExists,
			Fresh:      stats.Size > 0,
		},
	}

	statusCode := http.StatusOK
	if !result.Healthy() {
		resp.Status = "unhealthy"
		resp.Database.Status = "disconnected"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, resp)
}

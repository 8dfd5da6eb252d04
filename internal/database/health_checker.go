package database

import (
	"context"
	"database/sql"
	"time"
)

// HealthChecker pings the MySQL pool and reports its connection stats
type HealthChecker struct {
	db      *sql.DB
	timeout time.Duration
}

// NewHealthChecker creates a checker. A non-positive timeout falls back to 5s.
func NewHealthChecker(db *sql.DB, timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{db: db, timeout: timeout}
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status          string        `json:"status"`
	Message         string        `json:"message,omitempty"`
	Latency         time.Duration `json:"latency"`
	CheckedAt       time.Time     `json:"checkedAt"`
	OpenConnections int           `json:"openConnections"`
	InUse           int           `json:"inUse"`
	Idle            int           `json:"idle"`
}

// Healthy reports whether the ping succeeded
func (r HealthCheckResult) Healthy() bool {
	return r.Status == "healthy"
}

// Check pings the database within the checker's timeout
func (hc *HealthChecker) Check(ctx context.Context) HealthCheckResult {
	start := time.Now()
	result := HealthCheckResult{CheckedAt: start}

	pingCtx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	if err := hc.db.PingContext(pingCtx); err != nil {
		result.Status = "unhealthy"
		result.Message = "Database ping failed: " + err.Error()
	} else {
		result.Status = "healthy"
	}
	result.Latency = time.Since(start)

	stats := hc.db.Stats()
	result.OpenConnections = stats.OpenConnections
	result.InUse = stats.InUse
	result.Idle = stats.Idle
	return result
}

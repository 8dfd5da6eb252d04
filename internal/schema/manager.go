package schema

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"mysql-mcp-gateway/internal/cache"
	"mysql-mcp-gateway/internal/database"
	"mysql-mcp-gateway/internal/metrics"
	"mysql-mcp-gateway/internal/model"
	"mysql-mcp-gateway/internal/security"
	"mysql-mcp-gateway/internal/utils"
)

// DefaultSchemaFile is where the schema document is persisted unless configured otherwise.
const DefaultSchemaFile = "resources/database_schema.json"

const regenerationKey = "schema"

// DocumentGenerator produces a complete schema document
type DocumentGenerator interface {
	Generate(ctx context.Context) (*model.SchemaDocument, error)
}

// RefreshDetector decides whether the persisted schema is stale
type RefreshDetector interface {
	NeedsRefresh(ctx context.Context) bool
}

// Publisher receives a copy of every regenerated schema document.
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
}

// ManagerConfig configures a CacheManager
type ManagerConfig struct {
	SchemaPath     string
	SchemaTTL      time.Duration
	QueryTTL       time.Duration
	QueryCacheSize int

	// Now overrides the clock of both caches.
	Now func() time.Time
	// Publisher is optional.
	Publisher Publisher
}

// CacheManager fronts schema generation with a freshness flag and query
// execution with a bounded result cache.
type CacheManager struct {
	generator  DocumentGenerator
	detector   RefreshDetector
	client     database.Client
	publisher  Publisher
	schemaPath string

	freshness *cache.FreshnessFlag
	queries   *cache.QueryCache
	group     singleflight.Group
	passMu    sync.Mutex
	validator *security.SQLValidator

	logger logrus.FieldLogger
}

// CacheStats is the get_cache_stats payload
type CacheStats struct {
	SchemaMetadataCache SchemaCacheStats      `json:"schema_metadata_cache"`
	QueryCache          cache.QueryCacheStats `json:"query_cache"`
}

// SchemaCacheStats describes the freshness flag and the persisted file
type SchemaCacheStats struct {
	cache.FlagStats
	FilePath   string `json:"file_path"`
	FileExists bool   `json:"file_exists"`
}

type regeneration struct {
	doc  *model.SchemaDocument
	data []byte
}

// NewCacheManager creates a manager with empty caches
func NewCacheManager(cfg ManagerConfig, generator DocumentGenerator, detector RefreshDetector, client database.Client, logger logrus.FieldLogger) (*CacheManager, error) {
	if cfg.SchemaPath == "" {
		cfg.SchemaPath = DefaultSchemaFile
	}

	queries, err := cache.NewQueryCache(cfg.QueryCacheSize, cfg.QueryTTL, cache.WithClock(cfg.Now))
	if err != nil {
		return nil, err
	}

	return &CacheManager{
		generator:  generator,
		detector:   detector,
		client:     client,
		publisher:  cfg.Publisher,
		schemaPath: cfg.SchemaPath,
		freshness:  cache.NewFreshnessFlag(cfg.SchemaTTL, cache.WithClock(cfg.Now)),
		queries:    queries,
		validator:  security.NewSQLValidator(),
		logger:     logger,
	}, nil
}

// SchemaPath returns the persisted schema location
func (m *CacheManager) SchemaPath() string {
	return m.schemaPath
}

// GetSchema returns the schema document as JSON. It never fails: errors are
// reported as an {"error": ...} document. When regeneration fails but an
// earlier document is on disk, that document is served instead.
func (m *CacheManager) GetSchema(ctx context.Context) string {
	if m.freshness.IsSet() {
		if data, err := os.ReadFile(m.schemaPath); err == nil {
			m.logger.Debug("Schema file is fresh (cached)")
			return string(data)
		}
	}

	if utils.FileExists(m.schemaPath) && !m.detector.NeedsRefresh(ctx) {
		if data, err := os.ReadFile(m.schemaPath); err == nil {
			m.logger.Debug("Schema file is fresh")
			m.freshness.Set()
			return string(data)
		}
	}

	m.logger.Info("Schema file is stale or missing, generating fresh schema")
	result, err := m.regenerate(ctx, "stale", false)
	if err != nil {
		m.logger.WithError(err).Error("Error getting schema")
		if data, readErr := os.ReadFile(m.schemaPath); readErr == nil {
			m.logger.Warn("Serving previously persisted schema")
			return string(data)
		}
		return errorDocument(err)
	}
	return string(result.data)
}

// Query runs a read-only statement through the query cache. Validation and
// execution errors are returned to the caller.
func (m *CacheManager) Query(ctx context.Context, sql string, limit int) (string, error) {
	if err := m.validator.ValidateStatement(sql); err != nil {
		return "", err
	}
	if limit < 0 {
		return "", utils.NewValidationError("Limit must not be negative")
	}

	query := ApplyLimit(sql, limit)
	key := QueryCacheKey(query, limit)

	if cached, ok := m.queries.Get(key); ok {
		m.logger.WithField("query", preview(query)).Debug("Query cache hit")
		return cached, nil
	}

	rows, err := m.client.Execute(ctx, query)
	if err != nil {
		m.logger.WithError(err).Error("Query execution error")
		return "", err
	}
	if rows == nil {
		rows = []model.Row{}
	}

	data, err := utils.MarshalIndent(rows)
	if err != nil {
		return "", utils.NewErrorBuilder(utils.ErrCodeInternalError).
			WithMessage("Failed to serialize query result").
			WithCause(err).
			Build()
	}

	result := string(data)
	m.queries.Set(key, result)
	m.logger.WithField("query", preview(query)).Debug("Query cached")
	return result, nil
}

// Refresh clears the freshness flag and regenerates unconditionally. The
// query cache is left alone. The result is always a status document.
func (m *CacheManager) Refresh(ctx context.Context) string {
	m.logger.Info("Manual schema refresh requested")
	m.freshness.Clear()

	result, err := m.regenerate(ctx, "manual", true)
	if err != nil {
		m.logger.WithError(err).Error("Error refreshing schema")
		return mustMarshal(model.RefreshStatus{
			Status:  "error",
			Message: err.Error(),
		})
	}

	total := result.doc.Metadata.TotalTables
	m.logger.Info("Manual schema refresh completed")
	return mustMarshal(model.RefreshStatus{
		Status:      "success",
		Message:     "Schema refreshed successfully",
		GeneratedAt: result.doc.Metadata.GeneratedAt,
		TotalTables: &total,
		FilePath:    m.schemaPath,
	})
}

// ClearQueryCache drops every cached query result and returns how many were
// dropped. The schema document and freshness flag are untouched.
func (m *CacheManager) ClearQueryCache() int {
	n := m.queries.Purge()
	m.logger.WithField("entries", n).Info("Query cache cleared")
	return n
}

// Stats reports cache occupancy
func (m *CacheManager) Stats() CacheStats {
	return CacheStats{
		SchemaMetadataCache: SchemaCacheStats{
			FlagStats:  m.freshness.Stats(),
			FilePath:   m.schemaPath,
			FileExists: utils.FileExists(m.schemaPath),
		},
		QueryCache: m.queries.Stats(),
	}
}

// regenerate runs generate, persist and flag under one singleflight key so
// concurrent callers share a single pass. Passes never overlap. With own set
// the caller skips any pass already in flight, waits for it to finish and
// then runs a pass of its own. A shared pass ignores the leader's
// cancellation.
func (m *CacheManager) regenerate(ctx context.Context, trigger string, own bool) (*regeneration, error) {
	if own {
		m.group.Forget(regenerationKey)
	}

	passCtx := context.WithoutCancel(ctx)
	v, err, shared := m.group.Do(regenerationKey, func() (interface{}, error) {
		m.passMu.Lock()
		defer m.passMu.Unlock()

		start := time.Now()

		doc, err := m.generator.Generate(passCtx)
		if err != nil {
			metrics.RecordSchemaRegeneration(trigger, "error", time.Since(start))
			return nil, err
		}

		data, err := utils.MarshalIndent(doc)
		if err != nil {
			metrics.RecordSchemaRegeneration(trigger, "error", time.Since(start))
			return nil, utils.NewStorageError(err, "serialize schema document")
		}

		if err := utils.WriteFileAtomic(m.schemaPath, data); err != nil {
			metrics.RecordSchemaRegeneration(trigger, "error", time.Since(start))
			m.logger.WithError(err).WithField("path", m.schemaPath).Error("Error saving schema")
			return nil, utils.NewStorageError(err, m.schemaPath)
		}
		m.logger.WithField("path", m.schemaPath).Info("Schema saved")

		m.freshness.Set()
		metrics.RecordSchemaRegeneration(trigger, "success", time.Since(start))

		m.publish(passCtx, data)
		return &regeneration{doc: doc, data: data}, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.logger.WithField("trigger", trigger).Debug("Joined in-flight schema regeneration")
	}
	return v.(*regeneration), nil
}

func (m *CacheManager) publish(ctx context.Context, data []byte) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, data); err != nil {
		m.logger.WithError(err).Warn("Failed to publish schema snapshot")
	}
}

// ApplyLimit appends " LIMIT n" when n is positive and the text does not
// already mention LIMIT anywhere, case-insensitively.
func ApplyLimit(query string, limit int) string {
	if limit > 0 && !strings.Contains(strings.ToUpper(query), "LIMIT") {
		return query + " LIMIT " + strconv.Itoa(limit)
	}
	return query
}

// QueryCacheKey derives the cache key of a finalized query and its limit.
func QueryCacheKey(query string, limit int) string {
	return utils.CreateHash(fmt.Sprintf("%s:%d", query, limit))
}

func errorDocument(err error) string {
	return mustMarshal(model.ErrorDocument{Error: err.Error()})
}

func mustMarshal(v interface{}) string {
	data, err := utils.MarshalIndent(v)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

func preview(query string) string {
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}

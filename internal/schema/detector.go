package schema

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mysql-mcp-gateway/internal/metrics"
	"mysql-mcp-gateway/internal/utils"
)

// UpdateTimeSource reports the latest engine-recorded modification time of
// the active schema, or nil when the engines do not track it.
type UpdateTimeSource interface {
	LastUpdateTime(ctx context.Context) (*time.Time, error)
}

// StalenessDetector decides whether the persisted schema file must be regenerated
type StalenessDetector struct {
	source     UpdateTimeSource
	schemaPath string
	logger     logrus.FieldLogger
}

// NewStalenessDetector creates a detector for the schema file at schemaPath
func NewStalenessDetector(source UpdateTimeSource, schemaPath string, logger logrus.FieldLogger) *StalenessDetector {
	return &StalenessDetector{
		source:     source,
		schemaPath: schemaPath,
		logger:     logger,
	}
}

// persistedMetadata is the only part of the file the detector needs.
type persistedMetadata struct {
	Metadata struct {
		GeneratedAt string `json:"generated_at"`
	} `json:"metadata"`
}

// NeedsRefresh reports true when the database changed after the persisted
// schema was generated, or when that cannot be established. A null update
// time from the engine alone does not force a refresh.
func (d *StalenessDetector) NeedsRefresh(ctx context.Context) bool {
	stale := d.check(ctx)
	metrics.RecordStalenessCheck(stale)
	return stale
}

func (d *StalenessDetector) check(ctx context.Context) bool {
	lastUpdate, err := d.source.LastUpdateTime(ctx)
	if err != nil {
		d.logger.WithError(err).Error("Error checking schema refresh")
		return true
	}

	var persisted persistedMetadata
	found, err := utils.LoadJSONFile(d.schemaPath, &persisted)
	if err != nil {
		d.logger.WithError(err).WithField("path", d.schemaPath).Error("Error reading persisted schema")
		return true
	}
	if !found {
		return true
	}

	generatedAt, ok := ParseGeneratedAt(persisted.Metadata.GeneratedAt)
	if !ok {
		d.logger.WithField("generated_at", persisted.Metadata.GeneratedAt).Warn("Persisted schema has no usable generation time")
		return true
	}

	if lastUpdate != nil && lastUpdate.After(generatedAt) {
		d.logger.WithFields(logrus.Fields{
			"last_update":  lastUpdate.UTC(),
			"generated_at": generatedAt,
		}).Info("Database schema has changed, refresh needed")
		return true
	}
	return false
}

// ParseGeneratedAt reads metadata.generated_at. Offsets (or a trailing Z)
// are honoured; a timestamp without one is taken as UTC.
func ParseGeneratedAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), true
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

package schema

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysql-mcp-gateway/internal/model"
	"mysql-mcp-gateway/internal/utils"
)

var generatedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func writeSchemaFile(t *testing.T, generated string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database_schema.json")
	doc := model.SchemaDocument{
		Metadata: model.SchemaMetadata{DatabaseName: "shop", GeneratedAt: generated},
		Tables:   map[string]*model.TableEntry{},
	}
	data, err := utils.MarshalIndent(doc)
	require.NoError(t, err)
	require.NoError(t, utils.WriteFileAtomic(path, data))
	return path
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestStalenessDetector(t *testing.T) {
	persisted := generatedAt.Format(GeneratedAtLayout)

	tests := []struct {
		name       string
		lastUpdate *time.Time
		err        error
		generated  string
		noFile     bool
		want       bool
	}{
		{name: "database changed after generation", lastUpdate: timePtr(generatedAt.Add(time.Second)), generated: persisted, want: true},
		{name: "database unchanged", lastUpdate: timePtr(generatedAt.Add(-time.Hour)), generated: persisted, want: false},
		{name: "update equals generation time", lastUpdate: timePtr(generatedAt), generated: persisted, want: false},
		{name: "engine does not track updates", lastUpdate: nil, generated: persisted, want: false},
		{name: "no persisted schema", lastUpdate: nil, noFile: true, want: true},
		{name: "missing generated_at", lastUpdate: nil, generated: "", want: true},
		{name: "unparseable generated_at", lastUpdate: nil, generated: "last tuesday", want: true},
		{name: "zulu suffix", lastUpdate: timePtr(generatedAt.Add(time.Minute)), generated: "2024-06-01T12:00:00Z", want: true},
		{name: "naive timestamp taken as UTC", lastUpdate: timePtr(generatedAt.Add(-time.Minute)), generated: "2024-06-01T12:00:00.123456", want: false},
		{name: "metadata query fails", err: errors.New("connection refused"), generated: persisted, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			if tt.noFile {
				path = filepath.Join(t.TempDir(), "absent.json")
			} else {
				path = writeSchemaFile(t, tt.generated)
			}

			detector := NewStalenessDetector(fakeUpdateTime{t: tt.lastUpdate, err: tt.err}, path, nullLogger())
			assert.Equal(t, tt.want, detector.NeedsRefresh(context.Background()))
		})
	}
}

func TestStalenessDetector_MalformedFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database_schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"metadata": `), 0o644))

	detector := NewStalenessDetector(fakeUpdateTime{}, path, nullLogger())
	assert.True(t, detector.NeedsRefresh(context.Background()))
}

func TestStalenessDetector_ComparesAcrossOffsets(t *testing.T) {
	path := writeSchemaFile(t, "2024-06-01T14:00:00.000000+02:00")
	detector := NewStalenessDetector(fakeUpdateTime{t: timePtr(generatedAt.Add(-time.Second))}, path, nullLogger())

	assert.False(t, detector.NeedsRefresh(context.Background()))
}

func TestParseGeneratedAt(t *testing.T) {
	got, ok := ParseGeneratedAt("2024-06-01 12:00:00")
	require.True(t, ok)
	assert.True(t, got.Equal(generatedAt))

	_, ok = ParseGeneratedAt("   ")
	assert.False(t, ok)
}

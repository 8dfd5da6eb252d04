// Package schema builds, persists and serves the database schema document.
package schema

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"mysql-mcp-gateway/internal/model"
	"mysql-mcp-gateway/internal/utils"
)

const (
	// GeneratedAtLayout is the ISO-8601 form of metadata.generated_at.
	GeneratedAtLayout = "2006-01-02T15:04:05.000000-07:00"

	// SampleRowLimit caps sample_data per table.
	SampleRowLimit = 3
)

// Source is the metadata surface the generator reads from.
// It is implemented by metadata.MetadataExtractor.
type Source interface {
	DatabaseName(ctx context.Context) (string, error)
	ListTables(ctx context.Context) ([]string, error)
	TableInfo(ctx context.Context, table string) (*model.TableInfo, error)
	Columns(ctx context.Context, table string) ([]model.ColumnDescriptor, error)
	Indexes(ctx context.Context, table string) ([]model.IndexDescriptor, error)
	ForeignKeys(ctx context.Context, table string) ([]model.ForeignKey, error)
	SampleRows(ctx context.Context, table string, limit int) ([]model.Row, error)
}

// Generator assembles a SchemaDocument from database metadata
type Generator struct {
	source Source
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewGenerator creates a generator. A nil clock means time.Now.
func NewGenerator(source Source, logger logrus.FieldLogger, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		source: source,
		logger: logger,
		now:    now,
	}
}

// Generate reads every table of the active database. Any metadata failure
// aborts the whole document so a partial schema is never returned.
func (g *Generator) Generate(ctx context.Context) (*model.SchemaDocument, error) {
	g.logger.Info("Generating database schema")

	dbName, err := g.source.DatabaseName(ctx)
	if err != nil {
		return nil, asDataSourceError(err, "resolve database name")
	}

	tables, err := g.source.ListTables(ctx)
	if err != nil {
		return nil, asDataSourceError(err, "list tables")
	}

	doc := &model.SchemaDocument{
		Tables: make(map[string]*model.TableEntry, len(tables)),
	}

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, asDataSourceError(err, "schema generation cancelled")
		}

		entry, err := g.describeTable(ctx, table)
		if err != nil {
			g.logger.WithError(err).WithField("table", table).Error("Failed to read table metadata")
			return nil, err
		}
		doc.Tables[table] = entry
	}

	linkReferences(tables, doc.Tables)

	doc.Metadata = model.SchemaMetadata{
		DatabaseName:  dbName,
		GeneratedAt:   g.now().UTC().Format(GeneratedAtLayout),
		SchemaVersion: model.SchemaVersion,
		TotalTables:   len(doc.Tables),
	}

	g.logger.WithField("tables", len(doc.Tables)).Info("Schema generated")
	return doc, nil
}

func (g *Generator) describeTable(ctx context.Context, table string) (*model.TableEntry, error) {
	entry := model.NewTableEntry()

	info, err := g.source.TableInfo(ctx, table)
	if err != nil {
		return nil, asDataSourceError(err, fmt.Sprintf("table info for %s", table))
	}
	entry.TableInfo = info

	columns, err := g.source.Columns(ctx, table)
	if err != nil {
		return nil, asDataSourceError(err, fmt.Sprintf("columns for %s", table))
	}
	if columns != nil {
		entry.Columns = columns
	}

	indexes, err := g.source.Indexes(ctx, table)
	if err != nil {
		return nil, asDataSourceError(err, fmt.Sprintf("indexes for %s", table))
	}
	if indexes != nil {
		entry.Indexes = indexes
	}

	fks, err := g.source.ForeignKeys(ctx, table)
	if err != nil {
		return nil, asDataSourceError(err, fmt.Sprintf("foreign keys for %s", table))
	}
	if fks != nil {
		entry.ForeignKeys = fks
		entry.Relationships.References = append([]model.ForeignKey{}, fks...)
	}

	samples, err := g.source.SampleRows(ctx, table, SampleRowLimit)
	if err != nil {
		return nil, asDataSourceError(err, fmt.Sprintf("sample rows for %s", table))
	}
	if samples != nil {
		entry.SampleData = samples
	}

	return entry, nil
}

// linkReferences fills referenced_by once every table has been visited.
// References to tables outside the set are dropped.
func linkReferences(order []string, tables map[string]*model.TableEntry) {
	for _, name := range order {
		entry, ok := tables[name]
		if !ok {
			continue
		}
		for _, fk := range entry.ForeignKeys {
			target, exists := tables[fk.ReferencedTableName]
			if !exists {
				continue
			}
			target.Relationships.ReferencedBy = append(target.Relationships.ReferencedBy, model.ReferencedBy{
				Table:      name,
				Column:     fk.ColumnName,
				Constraint: fk.ConstraintName,
			})
		}
	}
}

func asDataSourceError(err error, details string) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return utils.NewDataSourceError(err, details)
}

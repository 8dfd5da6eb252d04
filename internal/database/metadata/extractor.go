package metadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mysql-mcp-gateway/internal/database"
	"mysql-mcp-gateway/internal/model"
	"mysql-mcp-gateway/internal/utils"
)

// MetadataExtractor issues the MySQL metadata queries for the active schema
type MetadataExtractor struct {
	client database.Client
}

// NewMetadataExtractor creates a new metadata extractor
func NewMetadataExtractor(client database.Client) *MetadataExtractor {
	return &MetadataExtractor{client: client}
}

// DatabaseName resolves the active database
func (e *MetadataExtractor) DatabaseName(ctx context.Context) (string, error) {
	rows, err := e.client.Execute(ctx, databaseNameQuery)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rowString(rows[0], "database_name"), nil
}

// ListTables enumerates the tables of the active database in engine order
func (e *MetadataExtractor) ListTables(ctx context.Context) ([]string, error) {
	rows, err := e.client.Execute(ctx, showTablesQuery)
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, len(rows))
	for _, row := range rows {
		name := toString(row.First())
		if name != "" {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

// TableInfo fetches engine statistics for a table. It returns nil without
// error when the table has no statistics row (e.g. it was just dropped).
func (e *MetadataExtractor) TableInfo(ctx context.Context, table string) (*model.TableInfo, error) {
	rows, err := e.client.Execute(ctx, tableInfoQuery, table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	r := rows[0]
	return &model.TableInfo{
		TableName:      rowString(r, "TABLE_NAME"),
		TableRows:      rowInt64(r, "TABLE_ROWS"),
		AvgRowLength:   rowInt64(r, "AVG_ROW_LENGTH"),
		DataLength:     rowInt64(r, "DATA_LENGTH"),
		MaxDataLength:  rowInt64(r, "MAX_DATA_LENGTH"),
		IndexLength:    rowInt64(r, "INDEX_LENGTH"),
		DataFree:       rowInt64(r, "DATA_FREE"),
		AutoIncrement:  rowInt64(r, "AUTO_INCREMENT"),
		CreateTime:     rowTimestamp(r, "CREATE_TIME"),
		UpdateTime:     rowTimestamp(r, "UPDATE_TIME"),
		CheckTime:      rowTimestamp(r, "CHECK_TIME"),
		TableCollation: rowNullString(r, "TABLE_COLLATION"),
		Checksum:       rowInt64(r, "CHECKSUM"),
		CreateOptions:  rowNullString(r, "CREATE_OPTIONS"),
		TableComment:   rowNullString(r, "TABLE_COMMENT"),
	}, nil
}

// Columns describes a table's columns in declaration order
func (e *MetadataExtractor) Columns(ctx context.Context, table string) ([]model.ColumnDescriptor, error) {
	rows, err := e.client.Execute(ctx, "DESCRIBE "+QuoteIdentifier(table))
	if err != nil {
		return nil, err
	}

	columns := make([]model.ColumnDescriptor, 0, len(rows))
	for _, r := range rows {
		columns = append(columns, model.ColumnDescriptor{
			Field:   rowString(r, "Field"),
			Type:    rowString(r, "Type"),
			Null:    rowString(r, "Null"),
			Key:     rowString(r, "Key"),
			Default: rowNullString(r, "Default"),
			Extra:   rowString(r, "Extra"),
		})
	}
	return columns, nil
}

// Indexes returns SHOW INDEX rows for a table
func (e *MetadataExtractor) Indexes(ctx context.Context, table string) ([]model.IndexDescriptor, error) {
	rows, err := e.client.Execute(ctx, "SHOW INDEX FROM "+QuoteIdentifier(table))
	if err != nil {
		return nil, err
	}

	indexes := make([]model.IndexDescriptor, 0, len(rows))
	for _, r := range rows {
		idx := model.IndexDescriptor{
			Table:        rowString(r, "Table"),
			KeyName:      rowString(r, "Key_name"),
			ColumnName:   rowNullString(r, "Column_name"),
			Collation:    rowNullString(r, "Collation"),
			Cardinality:  rowInt64(r, "Cardinality"),
			SubPart:      rowInt64(r, "Sub_part"),
			Packed:       rowNullString(r, "Packed"),
			Null:         rowString(r, "Null"),
			IndexType:    rowString(r, "Index_type"),
			Comment:      rowString(r, "Comment"),
			IndexComment: rowString(r, "Index_comment"),
			Visible:      rowNullString(r, "Visible"),
			Expression:   rowNullString(r, "Expression"),
		}
		if v := rowInt64(r, "Non_unique"); v != nil {
			idx.NonUnique = *v
		}
		if v := rowInt64(r, "Seq_in_index"); v != nil {
			idx.SeqInIndex = *v
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// ForeignKeys returns the foreign keys declared by a table
func (e *MetadataExtractor) ForeignKeys(ctx context.Context, table string) ([]model.ForeignKey, error) {
	rows, err := e.client.Execute(ctx, foreignKeyQuery, table)
	if err != nil {
		return nil, err
	}

	fks := make([]model.ForeignKey, 0, len(rows))
	for _, r := range rows {
		fks = append(fks, model.ForeignKey{
			ColumnName:           rowString(r, "COLUMN_NAME"),
			ReferencedTableName:  rowString(r, "REFERENCED_TABLE_NAME"),
			ReferencedColumnName: rowString(r, "REFERENCED_COLUMN_NAME"),
			ConstraintName:       rowString(r, "CONSTRAINT_NAME"),
		})
	}
	return fks, nil
}

// SampleRows returns up to limit rows of a table
func (e *MetadataExtractor) SampleRows(ctx context.Context, table string, limit int) ([]model.Row, error) {
	return e.client.Execute(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", QuoteIdentifier(table), limit))
}

// LastUpdateTime returns the most recent UPDATE_TIME across the active
// schema, or nil when the storage engines do not track it.
func (e *MetadataExtractor) LastUpdateTime(ctx context.Context) (*time.Time, error) {
	rows, err := e.client.Execute(ctx, lastUpdateQuery)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	v, _ := rows[0].Get("last_update")
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &t, nil
	default:
		parsed, err := time.ParseInLocation(updateTimeLayout, toString(t), time.UTC)
		if err != nil {
			return nil, utils.NewDataSourceError(err, "unparseable UPDATE_TIME")
		}
		return &parsed, nil
	}
}

// updateTimeLayout matches DATETIME text with or without fractional seconds.
const updateTimeLayout = "2006-01-02 15:04:05.999999"

// QuoteIdentifier backtick-quotes a MySQL identifier
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

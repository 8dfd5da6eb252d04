package database

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mysql-mcp-gateway/internal/metrics"
	"mysql-mcp-gateway/internal/model"
	"mysql-mcp-gateway/internal/utils"
)

// Client executes SQL text against the database and returns ordered rows.
// Failures are reported as DataSourceError.
type Client interface {
	Execute(ctx context.Context, query string, args ...interface{}) ([]model.Row, error)
}

// MySQLClient implements Client over a database/sql handle opened with the
// go-sql-driver/mysql driver.
type MySQLClient struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

// NewMySQLClient creates a client over an open connection pool
func NewMySQLClient(db *sql.DB, logger logrus.FieldLogger) *MySQLClient {
	return &MySQLClient{
		db:     db,
		logger: logger,
	}
}

// DB exposes the underlying pool for health checks.
func (c *MySQLClient) DB() *sql.DB {
	return c.db
}

// Ping verifies the database is reachable
func (c *MySQLClient) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return utils.NewDataSourceError(err, "ping")
	}
	return nil
}

// Execute runs query and materializes every row.
func (c *MySQLClient) Execute(ctx context.Context, query string, args ...interface{}) ([]model.Row, error) {
	start := time.Now()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDatabaseCall("error", time.Since(start))
		c.logger.WithError(err).WithField("query", truncate(query, 200)).Error("Query execution error")
		return nil, utils.NewDataSourceError(err, truncate(query, 200))
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		metrics.RecordDatabaseCall("error", time.Since(start))
		c.logger.WithError(err).WithField("query", truncate(query, 200)).Error("Failed to read query results")
		return nil, utils.NewDataSourceError(err, truncate(query, 200))
	}

	metrics.RecordDatabaseCall("success", time.Since(start))
	return result, nil
}

func scanRows(rows *sql.Rows) ([]model.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	result := make([]model.Row, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		for i, v := range values {
			values[i] = normalizeValue(v, columnTypes[i].DatabaseTypeName())
		}
		result = append(result, model.NewRow(columns, values))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeValue converts driver values into JSON-friendly Go values.
// The text protocol hands every non-temporal column back as []byte, so
// integer and float columns are parsed by their declared type. DECIMAL stays
// a string to keep its exact representation.
func normalizeValue(v interface{}, dbType string) interface{} {
	raw, ok := v.([]byte)
	if !ok {
		return v
	}

	text := string(raw)
	switch strings.ToUpper(dbType) {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR":
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
		if n, err := strconv.ParseUint(text, 10, 64); err == nil {
			return n
		}
		return text
	case "UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT":
		if n, err := strconv.ParseUint(text, 10, 64); err == nil {
			return n
		}
		return text
	case "FLOAT", "DOUBLE":
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
		return text
	case "BINARY", "VARBINARY", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BIT", "GEOMETRY":
		return raw
	default:
		return text
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

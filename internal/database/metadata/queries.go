package metadata

import (
	"fmt"
	"strconv"
	"time"

	"mysql-mcp-gateway/internal/model"
)

// =============================================================================
// MySQL metadata queries
// =============================================================================

const (
	databaseNameQuery = "SELECT DATABASE() AS database_name"

	showTablesQuery = "SHOW TABLES"

	tableInfoQuery = `
		SELECT
			TABLE_NAME,
			TABLE_ROWS,
			AVG_ROW_LENGTH,
			DATA_LENGTH,
			MAX_DATA_LENGTH,
			INDEX_LENGTH,
			DATA_FREE,
			AUTO_INCREMENT,
			CREATE_TIME,
			UPDATE_TIME,
			CHECK_TIME,
			TABLE_COLLATION,
			CHECKSUM,
			CREATE_OPTIONS,
			TABLE_COMMENT
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_NAME = ?`

	foreignKeyQuery = `
		SELECT
			COLUMN_NAME,
			REFERENCED_TABLE_NAME,
			REFERENCED_COLUMN_NAME,
			CONSTRAINT_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_NAME = ?
		AND REFERENCED_TABLE_NAME IS NOT NULL`

	lastUpdateQuery = `
		SELECT MAX(UPDATE_TIME) AS last_update
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = DATABASE()`
)

// =============================================================================
// Row conversion helpers
// =============================================================================

func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", model.JSONValue(val))
	}
}

func rowString(r model.Row, column string) string {
	v, _ := r.Get(column)
	return toString(v)
}

func rowNullString(r model.Row, column string) *string {
	v, ok := r.Get(column)
	if !ok || v == nil {
		return nil
	}
	s := toString(v)
	return &s
}

func rowInt64(r model.Row, column string) *int64 {
	v, ok := r.Get(column)
	if !ok || v == nil {
		return nil
	}

	var n int64
	switch val := v.(type) {
	case int64:
		n = val
	case int:
		n = int64(val)
	case int32:
		n = int64(val)
	case uint64:
		n = int64(val)
	case uint32:
		n = int64(val)
	case float64:
		n = int64(val)
	default:
		parsed, err := strconv.ParseInt(toString(val), 10, 64)
		if err != nil {
			return nil
		}
		n = parsed
	}
	return &n
}

func rowTimestamp(r model.Row, column string) *string {
	v, ok := r.Get(column)
	if !ok || v == nil {
		return nil
	}
	if t, isTime := v.(time.Time); isTime {
		s := model.FormatTimestamp(t)
		return &s
	}
	s := toString(v)
	return &s
}

package security

import (
	"strings"

	"mysql-mcp-gateway/internal/utils"
)

const (
	msgEmptyQuery     = "Query cannot be empty"
	msgNotSelectQuery = "Only SELECT queries are allowed"
)

// SQLValidator admits read-only statements. The check is a leading SELECT
// keyword and nothing more; statements are never parsed.
type SQLValidator struct{}

// NewSQLValidator creates a new SQLValidator instance
func NewSQLValidator() *SQLValidator {
	return &SQLValidator{}
}

// ValidateStatement returns a ValidationError for blank text or text that
// does not start with SELECT after trimming, case-insensitively.
func (sv *SQLValidator) ValidateStatement(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return utils.NewValidationError(msgEmptyQuery)
	}
	if !sv.IsReadOnly(trimmed) {
		return utils.NewValidationError(msgNotSelectQuery)
	}
	return nil
}

// IsReadOnly reports whether the statement begins with SELECT
func (sv *SQLValidator) IsReadOnly(sql string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sql)), "SELECT")
}

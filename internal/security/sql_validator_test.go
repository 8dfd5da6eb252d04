package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysql-mcp-gateway/internal/utils"
)

func TestValidateStatement(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantMsg string
	}{
		{"plain select", "SELECT * FROM users", ""},
		{"lowercase with padding", "  \n select 1 ", ""},
		{"select prefix only", "SELECTED_ROWS", ""},
		{"empty", "", msgEmptyQuery},
		{"whitespace", " \t\n", msgEmptyQuery},
		{"update", "UPDATE t SET x = 1", msgNotSelectQuery},
		{"cte", "WITH x AS (SELECT 1) SELECT * FROM x", msgNotSelectQuery},
		{"show", "SHOW TABLES", msgNotSelectQuery},
	}

	sv := NewSQLValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sv.ValidateStatement(tt.sql)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, utils.IsValidationError(err))
			var appErr *utils.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

package response

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysql-mcp-gateway/internal/utils"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        utils.NewValidationError("Only SELECT queries are allowed"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   utils.ErrCodeValidationFailed,
			wantMsg:    "Only SELECT queries are allowed",
		},
		{
			name:       "not found",
			err:        utils.NewNotFoundError("Table 'ghost'"),
			wantStatus: http.StatusNotFound,
			wantCode:   utils.ErrCodeNotFound,
			wantMsg:    "Table 'ghost' not found",
		},
		{
			name:       "data source",
			err:        utils.NewDataSourceError(errors.New("server has gone away"), "SHOW TABLES"),
			wantStatus: http.StatusBadGateway,
			wantCode:   utils.ErrCodeDataSourceError,
			wantMsg:    "server has gone away",
		},
		{
			name:       "plain error is hidden",
			err:        errors.New("secret internals"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   utils.ErrCodeInternalError,
			wantMsg:    "An internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := FromError(tt.err, "cid-1")
			assert.Equal(t, tt.wantStatus, status)
			require.NotNil(t, resp.Error)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
			assert.Equal(t, "cid-1", resp.CorrelationID)
		})
	}
}

func TestSuccessResponse(t *testing.T) {
	resp := SuccessResponse([]string{"orders"}, "cid-2")
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, []string{"orders"}, resp.Data)
	assert.False(t, resp.Timestamp.IsZero())
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysql-mcp-gateway/internal/cache"
	"mysql-mcp-gateway/internal/model"
	"mysql-mcp-gateway/internal/schema"
	"mysql-mcp-gateway/internal/utils"
)

type fakeCache struct {
	schemaDoc  string
	queryOut   string
	queryErr   error
	lastSQL    string
	lastLimit  int
	refreshOut string
}

func (c *fakeCache) GetSchema(context.Context) string { return c.schemaDoc }

func (c *fakeCache) Query(_ context.Context, sql string, limit int) (string, error) {
	c.lastSQL, c.lastLimit = sql, limit
	return c.queryOut, c.queryErr
}

func (c *fakeCache) Refresh(context.Context) string { return c.refreshOut }

func (c *fakeCache) Stats() schema.CacheStats {
	return schema.CacheStats{
		SchemaMetadataCache: schema.SchemaCacheStats{
			FlagStats: cache.FlagStats{Size: 1, MaxSize: 1, TTLSeconds: 3600},
			FilePath:  "resources/database_schema.json",
		},
		QueryCache: cache.QueryCacheStats{MaxSize: 100, TTLSeconds: 300},
	}
}

type fakeTables struct {
	err error
}

func (f *fakeTables) ListTables(context.Context) ([]model.TableListItem, error) {
	return []model.TableListItem{{Name: "users", Rows: 3}}, f.err
}

func (f *fakeTables) DescribeTable(_ context.Context, name string) (*model.TableDescription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.TableDescription{TableName: name, Columns: []model.ColumnDescriptor{}}, nil
}

func (f *fakeTables) GetTableInfo(_ context.Context, name string) (*model.TableDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.TableDetails{TableInfo: &model.TableInfo{TableName: name}}, nil
}

func newTestServer(c *fakeCache, tables *fakeTables) *MCPServer {
	logger, _ := test.NewNullLogger()
	return NewMCPServer(c, tables, logger)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleQuery(t *testing.T) {
	c := &fakeCache{queryOut: `[{"id": 1}]`}
	s := newTestServer(c, &fakeTables{})

	result, err := s.handleQuery(context.Background(), callRequest("query_mysql", map[string]any{
		"sql":   "SELECT id FROM users",
		"limit": float64(10),
	}))
	require.NoError(t, err)

	assert.Equal(t, `[{"id": 1}]`, resultText(t, result))
	assert.Equal(t, "SELECT id FROM users", c.lastSQL)
	assert.Equal(t, 10, c.lastLimit)
}

func TestHandleQuery_DefaultLimitAndLegacyArgument(t *testing.T) {
	c := &fakeCache{queryOut: "[]"}
	s := newTestServer(c, &fakeTables{})

	_, err := s.handleQuery(context.Background(), callRequest("query_mysql", map[string]any{
		"query": "SELECT 1",
	}))
	require.NoError(t, err)

	assert.Equal(t, "SELECT 1", c.lastSQL)
	assert.Equal(t, 1000, c.lastLimit)
}

func TestHandleQuery_ValidationErrorPropagates(t *testing.T) {
	c := &fakeCache{queryErr: utils.NewValidationError("Only SELECT queries are allowed")}
	s := newTestServer(c, &fakeTables{})

	result, err := s.instrument("query_mysql", s.handleQuery)(context.Background(), callRequest("query_mysql", map[string]any{
		"sql": "DELETE FROM users",
	}))
	assert.Nil(t, result)
	assert.True(t, utils.IsValidationError(err))
}

func TestHandleDescribeTable(t *testing.T) {
	s := newTestServer(&fakeCache{}, &fakeTables{})

	result, err := s.handleDescribeTable(context.Background(), callRequest("describe_table", map[string]any{
		"table_name": "users",
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"table_name":"users","columns":[],"table_info":null}`, resultText(t, result))
}

func TestHandleListTables(t *testing.T) {
	s := newTestServer(&fakeCache{}, &fakeTables{})

	result, err := s.handleListTables(context.Background(), callRequest("list_tables", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"users","rows":3,"data_length":0,"index_length":0}]`, resultText(t, result))
}

func TestHandleGetTableInfo_NotFound(t *testing.T) {
	s := newTestServer(&fakeCache{}, &fakeTables{err: utils.NewNotFoundError("Table 'ghost'")})

	_, err := s.handleGetTableInfo(context.Background(), callRequest("get_table_info", map[string]any{
		"table_name": "ghost",
	}))
	assert.True(t, utils.IsErrorType(err, utils.ErrCodeNotFound))
}

func TestHandleRefreshSchema_NeverErrors(t *testing.T) {
	s := newTestServer(&fakeCache{refreshOut: `{"status": "error", "message": "boom"}`}, &fakeTables{})

	result, err := s.handleRefreshSchema(context.Background(), callRequest("refresh_schema_manual", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"status": "error"`)
}

func TestHandleCacheStats(t *testing.T) {
	s := newTestServer(&fakeCache{}, &fakeTables{})

	result, err := s.handleCacheStats(context.Background(), callRequest("get_cache_stats", nil))
	require.NoError(t, err)

	var stats map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &stats))
	assert.Equal(t, float64(3600), stats["schema_metadata_cache"]["ttl"])
	assert.Equal(t, float64(100), stats["query_cache"]["max_size"])
}

func TestHandleSchemaResource(t *testing.T) {
	s := newTestServer(&fakeCache{schemaDoc: `{"error": "unreachable"}`}, &fakeTables{})

	contents, err := s.handleSchemaResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, SchemaResourceURI, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.Equal(t, `{"error": "unreachable"}`, text.Text)
}

func TestToolsAreRegistered(t *testing.T) {
	s := newTestServer(&fakeCache{}, &fakeTables{})

	response := s.Server().HandleMessage(context.Background(), json.RawMessage(
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(response)
	require.NoError(t, err)

	for _, name := range []string{"query_mysql", "describe_table", "list_tables", "get_table_info", "refresh_schema_manual", "get_cache_stats"} {
		assert.Contains(t, string(data), `"name":"`+name+`"`)
	}
}

func TestToolCallErrorsSurfaceAsRPCErrors(t *testing.T) {
	s := newTestServer(&fakeCache{queryErr: errors.New("DATA_SOURCE_ERROR: gone")}, &fakeTables{})

	response := s.Server().HandleMessage(context.Background(), json.RawMessage(
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"query_mysql","arguments":{"sql":"SELECT 1"}}}`))
	data, err := json.Marshal(response)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"error"`)
	assert.Contains(t, string(data), "DATA_SOURCE_ERROR: gone")
}

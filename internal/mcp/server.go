package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"mysql-mcp-gateway/internal/metrics"
	"mysql-mcp-gateway/internal/model"
	"mysql-mcp-gateway/internal/schema"
	"mysql-mcp-gateway/internal/service"
	"mysql-mcp-gateway/internal/utils"
)

const (
	// SchemaResourceURI identifies the schema document resource.
	SchemaResourceURI = "database://schema"

	serverName    = "mysql-mcp-server"
	serverVersion = "1.0.0"
)

// SchemaCache is the cache manager surface exposed over MCP
type SchemaCache interface {
	GetSchema(ctx context.Context) string
	Query(ctx context.Context, sql string, limit int) (string, error)
	Refresh(ctx context.Context) string
	Stats() schema.CacheStats
}

// MCPServer exposes read-only database access and schema introspection over MCP
type MCPServer struct {
	cache  SchemaCache
	tables service.TableService
	server *server.MCPServer
	logger logrus.FieldLogger

	mu        sync.Mutex
	transport shutdowner
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(cache SchemaCache, tables service.TableService, logger logrus.FieldLogger) *MCPServer {
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	mcpServer := &MCPServer{
		cache:  cache,
		tables: tables,
		server: s,
		logger: logger,
	}

	mcpServer.registerTools()
	mcpServer.registerResources()

	return mcpServer
}

// Server returns the underlying mcp-go server
func (m *MCPServer) Server() *server.MCPServer {
	return m.server
}

func (m *MCPServer) registerTools() {
	queryTool := mcp.NewTool("query_mysql",
		mcp.WithDescription("Execute a read-only SELECT query against the MySQL database"),
		mcp.WithString("sql", mcp.Required(), mcp.Description("SQL SELECT query to execute")),
		mcp.WithNumber("limit", mcp.DefaultNumber(model.DefaultQueryLimit), mcp.Min(0),
			mcp.Description("Maximum number of rows to return (default: 1000)")))
	m.server.AddTool(queryTool, m.instrument("query_mysql", m.handleQuery))

	describeTool := mcp.NewTool("describe_table",
		mcp.WithDescription("Get table structure and metadata"),
		mcp.WithString("table_name", mcp.Required(), mcp.Description("Name of the table to describe")))
	m.server.AddTool(describeTool, m.instrument("describe_table", m.handleDescribeTable))

	listTablesTool := mcp.NewTool("list_tables",
		mcp.WithDescription("List all tables in the current database with row counts and sizes"))
	m.server.AddTool(listTablesTool, m.instrument("list_tables", m.handleListTables))

	tableInfoTool := mcp.NewTool("get_table_info",
		mcp.WithDescription("Get detailed table information including indexes"),
		mcp.WithString("table_name", mcp.Required(), mcp.Description("Name of the table to get info for")))
	m.server.AddTool(tableInfoTool, m.instrument("get_table_info", m.handleGetTableInfo))

	refreshTool := mcp.NewTool("refresh_schema_manual",
		mcp.WithDescription("Regenerate the cached database schema document"))
	m.server.AddTool(refreshTool, m.instrument("refresh_schema_manual", m.handleRefreshSchema))

	statsTool := mcp.NewTool("get_cache_stats",
		mcp.WithDescription("Report schema and query cache statistics"))
	m.server.AddTool(statsTool, m.instrument("get_cache_stats", m.handleCacheStats))
}

func (m *MCPServer) registerResources() {
	schemaResource := mcp.NewResource(SchemaResourceURI, "get_database_schema",
		mcp.WithResourceDescription("Complete database schema with tables, columns, indexes, relationships and sample data"),
		mcp.WithMIMEType("application/json"))
	m.server.AddResource(schemaResource, m.handleSchemaResource)
}

// instrument records a metric and a log line for every tool call
func (m *MCPServer) instrument(name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)
		metrics.RecordToolCall(name, err)

		entry := m.logger.WithFields(logrus.Fields{
			"tool":     name,
			"duration": time.Since(start),
		})
		if err != nil {
			entry.WithError(err).WithField("code", utils.GetErrorCode(err)).Warn("Tool call failed")
		} else {
			entry.Debug("Tool call completed")
		}
		return result, err
	}
}

// handleQuery handles the query_mysql tool call
func (m *MCPServer) handleQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sql := mcp.ParseString(request, "sql", "")
	if sql == "" {
		sql = mcp.ParseString(request, "query", "")
	}
	limit := mcp.ParseInt(request, "limit", model.DefaultQueryLimit)

	result, err := m.cache.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(result), nil
}

// handleDescribeTable handles the describe_table tool call
func (m *MCPServer) handleDescribeTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableName := mcp.ParseString(request, "table_name", "")

	description, err := m.tables.DescribeTable(ctx, tableName)
	if err != nil {
		return nil, err
	}
	return jsonResult(description)
}

// handleListTables handles the list_tables tool call
func (m *MCPServer) handleListTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tables, err := m.tables.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(tables)
}

// handleGetTableInfo handles the get_table_info tool call
func (m *MCPServer) handleGetTableInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableName := mcp.ParseString(request, "table_name", "")

	details, err := m.tables.GetTableInfo(ctx, tableName)
	if err != nil {
		return nil, err
	}
	return jsonResult(details)
}

// handleRefreshSchema handles the refresh_schema_manual tool call. Failures
// are reported inside the status document.
func (m *MCPServer) handleRefreshSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(m.cache.Refresh(ctx)), nil
}

// handleCacheStats handles the get_cache_stats tool call
func (m *MCPServer) handleCacheStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(m.cache.Stats())
}

// handleSchemaResource serves database://schema. It never fails.
func (m *MCPServer) handleSchemaResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	document := m.cache.GetSchema(ctx)
	metrics.RecordToolCall("get_database_schema", nil)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SchemaResourceURI,
			MIMEType: "application/json",
			Text:     document,
		},
	}, nil
}

// StartStdio starts the MCP server using stdio transport
func (m *MCPServer) StartStdio() error {
	return server.ServeStdio(m.server)
}

// StartSSE serves the MCP protocol over SSE on addr until Shutdown.
func (m *MCPServer) StartSSE(addr, baseURL string) error {
	sse := server.NewSSEServer(m.server, server.WithBaseURL(baseURL))

	m.setTransport(sse)

	m.logger.WithField("addr", addr).Info("Starting MCP SSE transport")
	return sse.Start(addr)
}

// StartStreamableHTTP serves the MCP protocol on addr under /mcp until Shutdown.
func (m *MCPServer) StartStreamableHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(m.server, server.WithEndpointPath("/mcp"))
	m.setTransport(httpServer)

	m.logger.WithField("addr", addr).Info("Starting MCP streamable HTTP transport")
	return httpServer.Start(addr)
}

func (m *MCPServer) setTransport(t shutdowner) {
	m.mu.Lock()
	m.transport = t
	m.mu.Unlock()
}

// Shutdown stops the network transport if one is running
func (m *MCPServer) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	t := m.transport
	m.mu.Unlock()

	if t == nil {
		return nil
	}
	return t.Shutdown(ctx)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := utils.MarshalIndent(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

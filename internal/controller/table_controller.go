package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mysql-mcp-gateway/internal/middleware"
	"mysql-mcp-gateway/internal/service"
	"mysql-mcp-gateway/pkg/response"
)

type TableController struct {
	tables service.TableService
}

func NewTableController(tables service.TableService) *TableController {
	return &TableController{tables: tables}
}

// ListTables returns every table with its row and size estimates
// @Router /api/v1/tables [get]
func (tc *TableController) ListTables(c *gin.Context) {
	items, err := tc.tables.ListTables(c.Request.Context())
	tc.respond(c, items, err)
}

// DescribeTable returns a table's columns and brief statistics
// @Router /api/v1/tables/{name} [get]
func (tc *TableController) DescribeTable(c *gin.Context) {
	desc, err := tc.tables.DescribeTable(c.Request.Context(), c.Param("name"))
	tc.respond(c, desc, err)
}

// GetTableInfo returns full statistics, columns and indexes
// @Router /api/v1/tables/{name}/info [get]
func (tc *TableController) GetTableInfo(c *gin.Context) {
	details, err := tc.tables.GetTableInfo(c.Request.Context(), c.Param("name"))
	tc.respond(c, details, err)
}

func (tc *TableController) respond(c *gin.Context, data interface{}, err error) {
	correlationID := middleware.GetCorrelationID(c)
	if err != nil {
		c.JSON(response.FromError(err, correlationID))
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse(data, correlationID))
}

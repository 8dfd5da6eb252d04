package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"mysql-mcp-gateway/internal/middleware"
	"mysql-mcp-gateway/internal/model"
	"mysql-mcp-gateway/pkg/response"
)

type QueryController struct {
	cache     SchemaCache
	validator *validator.Validate
}

func NewQueryController(cache SchemaCache) *QueryController {
	return &QueryController{
		cache:     cache,
		validator: validator.New(),
	}
}

// ExecuteQuery godoc
// @Summary Execute a read-only SQL query
// @Description Runs a SELECT through the query cache. A LIMIT clause is
// appended when the statement has none.
// @Tags queries
// @Accept json
// @Produce json
// @Param request body model.QueryRequest true "Query execution request"
// @Success 200 {object} response.StandardResponse
// @Failure 400 {object} response.StandardResponse
// @Failure 422 {object} response.StandardResponse
// @Failure 502 {object} response.StandardResponse
// @Router /api/v1/query [post]
func (qc *QueryController) ExecuteQuery(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.InvalidRequestResponse(err.Error(), correlationID))
		return
	}

	if err := qc.validator.Struct(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, response.ValidationErrorResponse(err.Error(), correlationID))
		return
	}

	result, err := qc.cache.Query(c.Request.Context(), req.SQL, req.EffectiveLimit())
	if err != nil {
		c.JSON(response.FromError(err, correlationID))
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(json.RawMessage(result), correlationID))
}

package response

import (
	"errors"
	"time"

	"mysql-mcp-gateway/internal/utils"
)

// StandardResponse represents a standardized API response
type StandardResponse struct {
	Success       bool        `json:"success"`
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	Message       string      `json:"message,omitempty"`
	CorrelationID string      `json:"correlationId"`
	Timestamp     time.Time   `json:"timestamp"`
}

// ErrorInfo represents error information in responses
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse creates a successful response
func SuccessResponse(data interface{}, correlationID string) *StandardResponse {
	return &StandardResponse{
		Success:       true,
		Data:          data,
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
	}
}

// ErrorResponse creates an error response
func ErrorResponse(code, message, details, correlationID string) *StandardResponse {
	return &StandardResponse{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
	}
}

// FromError builds an error response and the matching HTTP status. Errors
// that are not AppErrors are reported as internal errors without leaking
// their text.
func FromError(err error, correlationID string) (int, *StandardResponse) {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return utils.GetErrorStatus(appErr), ErrorResponse(appErr.Code, appErr.Message, appErr.Details, correlationID)
	}
	return utils.GetErrorStatus(err), InternalServerErrorResponse(correlationID)
}

// ValidationErrorResponse creates a validation error response
func ValidationErrorResponse(message string, correlationID string) *StandardResponse {
	return ErrorResponse(utils.ErrCodeValidationFailed, message, "", correlationID)
}

// InvalidRequestResponse reports a body that could not be bound
func InvalidRequestResponse(details string, correlationID string) *StandardResponse {
	return ErrorResponse(utils.ErrCodeInvalidRequest, "Invalid request body", details, correlationID)
}

// InternalServerErrorResponse creates an internal server error response
func InternalServerErrorResponse(correlationID string) *StandardResponse {
	return ErrorResponse(utils.ErrCodeInternalError, "An internal error occurred", "", correlationID)
}
